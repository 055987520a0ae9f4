package periodos

import "time"

// EnviarRequest carries a normal submission. Evidence files are uploaded
// beforehand one by one; the submit call references their ids.
type EnviarRequest struct {
	Comentarios   *string  `json:"comentarios,omitempty"`
	DocumentoID   string   `json:"documento_id" validate:"required,uuid4"`
	EvidenciasIDs []string `json:"evidencias_ids" validate:"required,min=1,max=2,dive,uuid4"`
}

// RevisionRequest carries a supervisor action (aprobar, rechazar,
// solicitar_correccion, iniciar_revision).
type RevisionRequest struct {
	Comentarios *string `json:"comentarios,omitempty"`
}

// ListPeriodosRequest filters the paginated period listing.
type ListPeriodosRequest struct {
	EntidadID *int64     `json:"entidad_id,omitempty"`
	ReporteID *int64     `json:"reporte_id,omitempty"`
	Estado    *Estado    `json:"estado,omitempty"`
	DesdeFin  *time.Time `json:"desde_fin,omitempty"`
	HastaFin  *time.Time `json:"hasta_fin,omitempty"`
	Page      int        `json:"page" validate:"gte=0"`
	PerPage   int        `json:"per_page" validate:"gte=0,lte=100"`
}
