package admin

import "time"

// ActionType classifies an administrative intervention.
type ActionType string

const (
	ActionOverrideSubmit ActionType = "OVERRIDE_SUBMIT"
	ActionUploadEvidence ActionType = "UPLOAD_EVIDENCE"
	ActionMarkCompleted  ActionType = "MARK_COMPLETED"
	ActionStatusChange   ActionType = "STATUS_CHANGE"
)

// ActionTypes lists every known type, in display order.
func ActionTypes() []ActionType {
	return []ActionType{ActionOverrideSubmit, ActionUploadEvidence, ActionMarkCompleted, ActionStatusChange}
}

func (t ActionType) Valido() bool {
	switch t {
	case ActionOverrideSubmit, ActionUploadEvidence, ActionMarkCompleted, ActionStatusChange:
		return true
	}
	return false
}

// Label returns the display name used in listings and the CSV export.
func (t ActionType) Label() string {
	switch t {
	case ActionOverrideSubmit:
		return "Envío por administrador"
	case ActionUploadEvidence:
		return "Carga de evidencia"
	case ActionMarkCompleted:
		return "Marcado como completado"
	case ActionStatusChange:
		return "Cambio de estado"
	default:
		return string(t)
	}
}

// AdminAction is the immutable audit record of one administrative override.
// Rows are only ever inserted; there is no update or delete path.
type AdminAction struct {
	ActionID            int64      `json:"action_id" db:"id"`
	ActionType          ActionType `json:"action_type" db:"action_type"`
	PeriodoID           int64      `json:"periodo_id" db:"periodo_id"`
	AdminID             int64      `json:"admin_id" db:"admin_id"`
	AdminNombre         string     `json:"admin_nombre" db:"admin_nombre"`
	ResponsableID       int64      `json:"responsable_id" db:"responsable_id"`
	ResponsableAfectado string     `json:"responsable_afectado" db:"responsable_afectado"`
	ReporteNombre       string     `json:"reporte_nombre" db:"reporte_nombre"`
	Motivo              string     `json:"motivo" db:"motivo"`
	Comentarios         *string    `json:"comentarios,omitempty" db:"comentarios"`
	EstadoAnterior      string     `json:"estado_anterior" db:"estado_anterior"`
	EstadoResultante    string     `json:"estado_resultante" db:"estado_resultante"`
	FilesCount          int        `json:"files_count" db:"files_count"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}
