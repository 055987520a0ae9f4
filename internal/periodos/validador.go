package periodos

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// File constraints enforced before any submit event reaches the state machine.
const (
	// MaxTamanoArchivo is the per-file size ceiling (10 MiB).
	MaxTamanoArchivo = 10 << 20
	// MaxEvidencias caps the evidence files attached to one submission.
	MaxEvidencias = 2
)

// Validation sentinels. Surfaced to the caller before any state mutation;
// nothing is partially applied on rejection.
var (
	ErrTipoArchivoNoPermitido = errors.New("tipo de archivo no permitido")
	ErrArchivoMuyGrande       = errors.New("archivo excede el tamaño máximo")
	ErrFaltaArtefacto         = errors.New("falta artefacto obligatorio")
	ErrDemasiadosArtefactos   = errors.New("demasiados artefactos adjuntos")
	ErrArchivoAjeno           = errors.New("archivo ya vinculado a otro periodo")
)

// Slot distinguishes the primary report document from supporting evidence.
type Slot string

const (
	SlotDocumento Slot = "documento"
	SlotEvidencia Slot = "evidencia"
)

var extensionesPorSlot = map[Slot][]string{
	SlotDocumento: {".pdf", ".doc", ".docx", ".xls", ".xlsx"},
	SlotEvidencia: {".pdf", ".jpg", ".jpeg", ".png", ".zip"},
}

// ArchivoCandidato is the metadata of a file offered for submission.
type ArchivoCandidato struct {
	Nombre string
	Tamano int64
	Slot   Slot
}

// ConjuntoValidado is the file set a submission may persist: exactly one
// report document plus one or two evidence files.
type ConjuntoValidado struct {
	Documento  ArchivoCandidato
	Evidencias []ArchivoCandidato
}

// ValidarArchivo checks one candidate against the per-file constraints:
// extension allowlist for its slot and the size ceiling.
func ValidarArchivo(a ArchivoCandidato) error {
	ext := strings.ToLower(filepath.Ext(a.Nombre))
	permitidas, ok := extensionesPorSlot[a.Slot]
	if !ok {
		return fmt.Errorf("%w: slot %q desconocido para %q", ErrTipoArchivoNoPermitido, a.Slot, a.Nombre)
	}
	allowed := false
	for _, p := range permitidas {
		if ext == p {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q no admite extensión %q", ErrTipoArchivoNoPermitido, a.Slot, ext)
	}
	if a.Tamano > MaxTamanoArchivo {
		return fmt.Errorf("%w: %q pesa %d bytes", ErrArchivoMuyGrande, a.Nombre, a.Tamano)
	}
	return nil
}

// ValidarEnvio checks the candidate set for a normal submission: the report
// document is mandatory and at least one evidence file must accompany it.
func ValidarEnvio(candidatos []ArchivoCandidato) (*ConjuntoValidado, error) {
	var conjunto ConjuntoValidado
	haveDoc := false
	for _, a := range candidatos {
		if err := ValidarArchivo(a); err != nil {
			return nil, err
		}
		switch a.Slot {
		case SlotDocumento:
			if haveDoc {
				return nil, fmt.Errorf("%w: más de un documento de reporte", ErrDemasiadosArtefactos)
			}
			conjunto.Documento = a
			haveDoc = true
		case SlotEvidencia:
			conjunto.Evidencias = append(conjunto.Evidencias, a)
		}
	}
	if !haveDoc {
		return nil, fmt.Errorf("%w: documento de reporte", ErrFaltaArtefacto)
	}
	if len(conjunto.Evidencias) == 0 {
		return nil, fmt.Errorf("%w: al menos una evidencia", ErrFaltaArtefacto)
	}
	if len(conjunto.Evidencias) > MaxEvidencias {
		return nil, fmt.Errorf("%w: máximo %d evidencias", ErrDemasiadosArtefactos, MaxEvidencias)
	}
	return &conjunto, nil
}

// ValidarOverride checks the candidate set for an administrative override.
// Overrides may carry zero files; when files are present each one must still
// satisfy the per-file constraints, the single-document rule and the
// evidence cap.
func ValidarOverride(candidatos []ArchivoCandidato) ([]ArchivoCandidato, error) {
	if len(candidatos) == 0 {
		return nil, nil
	}
	documentos, evidencias := 0, 0
	for _, a := range candidatos {
		if err := ValidarArchivo(a); err != nil {
			return nil, err
		}
		switch a.Slot {
		case SlotDocumento:
			documentos++
		case SlotEvidencia:
			evidencias++
		}
	}
	if documentos > 1 {
		return nil, fmt.Errorf("%w: más de un documento de reporte", ErrDemasiadosArtefactos)
	}
	if evidencias > MaxEvidencias {
		return nil, fmt.Errorf("%w: máximo %d evidencias", ErrDemasiadosArtefactos, MaxEvidencias)
	}
	return candidatos, nil
}
