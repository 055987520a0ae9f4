package periodos

import "time"

// ReportePeriodo is one obligation instance of a report definition for one
// entity in one time window. Created in pendiente by an external scheduler;
// mutated only through state machine transitions; never deleted, only
// superseded by the next window's period.
type ReportePeriodo struct {
	PeriodoID                 int64      `json:"periodo_id" db:"id"`
	ReporteID                 int64      `json:"reporte_id" db:"reporte_id"`
	EntidadID                 int64      `json:"entidad_id" db:"entidad_id"`
	PeriodoInicio             time.Time  `json:"periodo_inicio" db:"periodo_inicio"`
	PeriodoFin                time.Time  `json:"periodo_fin" db:"periodo_fin"`
	Frecuencia                Frecuencia `json:"frecuencia" db:"frecuencia"`
	FechaVencimientoCalculada time.Time  `json:"fecha_vencimiento_calculada" db:"fecha_vencimiento_calculada"`
	Estado                    Estado     `json:"estado" db:"estado"`
	FechaEnvioReal            *time.Time `json:"fecha_envio_real,omitempty" db:"fecha_envio_real"`
	DiasDesviacion            *int       `json:"dias_desviacion,omitempty" db:"dias_desviacion"`
	ResponsableElaboracionID  int64      `json:"responsable_elaboracion_id" db:"responsable_elaboracion_id"`
	ResponsableSupervisionID  int64      `json:"responsable_supervision_id" db:"responsable_supervision_id"`
	CreatedAt                 time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at" db:"updated_at"`
}

// Comentario is an append-only note attached to a period transition. Ordered
// by Fecha; never edited or removed.
type Comentario struct {
	ID        int64     `json:"id" db:"id"`
	PeriodoID int64     `json:"periodo_id" db:"periodo_id"`
	Autor     string    `json:"autor" db:"autor"`
	Cargo     string    `json:"cargo" db:"cargo"`
	Accion    string    `json:"accion" db:"accion"`
	Texto     string    `json:"texto" db:"texto"`
	Fecha     time.Time `json:"fecha" db:"fecha"`
}

// ReportePeriodoDetalle is the read model returned by the detail endpoint.
type ReportePeriodoDetalle struct {
	ReportePeriodo
	ReporteNombre string       `json:"reporte_nombre" db:"reporte_nombre"`
	EntidadNombre string       `json:"entidad_nombre" db:"entidad_nombre"`
	Archivos      []Adjunto    `json:"archivos"`
	Comentarios   []Comentario `json:"comentarios"`
}

// Adjunto is the file metadata the detail view exposes for each attached
// artifact. The evidencias package owns upload and storage.
type Adjunto struct {
	ArchivoID      string     `json:"archivo_id"`
	NombreOriginal string     `json:"nombre_original"`
	MimeType       string     `json:"mime_type"`
	TamanoBytes    int64      `json:"tamano_bytes"`
	Slot           Slot       `json:"slot"`
	SubidoPor      int64      `json:"subido_por"`
	SubidoEn       time.Time  `json:"subido_en"`
	URLPublica     *string    `json:"url_publica,omitempty"`
	PeriodoID      *int64     `json:"-"`
}
