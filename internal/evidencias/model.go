package evidencias

import (
	"time"

	"github.com/reto-gober/regulatoria/internal/periodos"
)

// Archivo is an uploaded artifact. It is created unlinked; the submission flow
// binds it to a period. Metadata is immutable after upload.
type Archivo struct {
	ID             string        `json:"archivo_id" db:"id"`
	NombreOriginal string        `json:"nombre_original" db:"nombre_original"`
	MimeType       string        `json:"mime_type" db:"mime_type"`
	TamanoBytes    int64         `json:"tamano_bytes" db:"tamano_bytes"`
	Slot           periodos.Slot `json:"slot" db:"slot"`
	RutaAlmacen    string        `json:"-" db:"ruta_almacen"`
	PeriodoID      *int64        `json:"periodo_id,omitempty" db:"periodo_id"`
	SubidoPor      int64         `json:"subido_por" db:"subido_por"`
	SubidoEn       time.Time     `json:"subido_en" db:"subido_en"`
}
