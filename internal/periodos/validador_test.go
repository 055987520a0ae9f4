package periodos

import (
	"errors"
	"testing"
)

func doc(nombre string, tamano int64) ArchivoCandidato {
	return ArchivoCandidato{Nombre: nombre, Tamano: tamano, Slot: SlotDocumento}
}

func ev(nombre string, tamano int64) ArchivoCandidato {
	return ArchivoCandidato{Nombre: nombre, Tamano: tamano, Slot: SlotEvidencia}
}

func TestValidarEnvioAcepta(t *testing.T) {
	cases := [][]ArchivoCandidato{
		{doc("reporte.pdf", 1024), ev("soporte.jpg", 2048)},
		{doc("reporte.xlsx", 5 << 20), ev("acta.pdf", 1 << 20), ev("captura.png", 512)},
	}
	for i, candidatos := range cases {
		conjunto, err := ValidarEnvio(candidatos)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if conjunto.Documento.Nombre == "" {
			t.Fatalf("case %d: documento missing from validated set", i)
		}
		if len(conjunto.Evidencias) == 0 || len(conjunto.Evidencias) > MaxEvidencias {
			t.Fatalf("case %d: %d evidencias", i, len(conjunto.Evidencias))
		}
	}
}

func TestValidarEnvioRechaza(t *testing.T) {
	cases := []struct {
		name       string
		candidatos []ArchivoCandidato
		sentinel   error
	}{
		{"sin evidencias", []ArchivoCandidato{doc("reporte.pdf", 10)}, ErrFaltaArtefacto},
		{"sin documento", []ArchivoCandidato{ev("soporte.jpg", 10)}, ErrFaltaArtefacto},
		{"conjunto vacio", nil, ErrFaltaArtefacto},
		{"extension documento", []ArchivoCandidato{doc("reporte.exe", 10), ev("s.jpg", 10)}, ErrTipoArchivoNoPermitido},
		{"extension evidencia", []ArchivoCandidato{doc("r.pdf", 10), ev("s.bat", 10)}, ErrTipoArchivoNoPermitido},
		{"muy grande", []ArchivoCandidato{doc("r.pdf", MaxTamanoArchivo+1), ev("s.jpg", 10)}, ErrArchivoMuyGrande},
		{"demasiadas evidencias", []ArchivoCandidato{doc("r.pdf", 10), ev("a.jpg", 1), ev("b.jpg", 1), ev("c.jpg", 1)}, ErrDemasiadosArtefactos},
		{"doble documento", []ArchivoCandidato{doc("r.pdf", 10), doc("r2.pdf", 10), ev("s.jpg", 1)}, ErrDemasiadosArtefactos},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ValidarEnvio(c.candidatos); !errors.Is(err, c.sentinel) {
				t.Fatalf("got %v, want %v", err, c.sentinel)
			}
		})
	}
}

func TestValidarEnvioTamanoLimiteExacto(t *testing.T) {
	if _, err := ValidarEnvio([]ArchivoCandidato{doc("r.pdf", MaxTamanoArchivo), ev("s.jpg", MaxTamanoArchivo)}); err != nil {
		t.Fatalf("files at the exact limit must pass: %v", err)
	}
}

func TestValidarOverridePermiteConjuntoVacio(t *testing.T) {
	archivos, err := ValidarOverride(nil)
	if err != nil {
		t.Fatalf("override sin archivos: %v", err)
	}
	if archivos != nil {
		t.Fatalf("expected nil set, got %v", archivos)
	}
}

func TestValidarOverrideValidaArchivosPresentes(t *testing.T) {
	if _, err := ValidarOverride([]ArchivoCandidato{ev("s.bat", 10)}); !errors.Is(err, ErrTipoArchivoNoPermitido) {
		t.Fatalf("expected ErrTipoArchivoNoPermitido, got %v", err)
	}
	if _, err := ValidarOverride([]ArchivoCandidato{ev("a.jpg", 1), ev("b.jpg", 1), ev("c.jpg", 1)}); !errors.Is(err, ErrDemasiadosArtefactos) {
		t.Fatalf("expected ErrDemasiadosArtefactos, got %v", err)
	}
	if _, err := ValidarOverride([]ArchivoCandidato{doc("r.pdf", 10), doc("r2.pdf", 10)}); !errors.Is(err, ErrDemasiadosArtefactos) {
		t.Fatalf("expected ErrDemasiadosArtefactos for duplicate document, got %v", err)
	}
	if _, err := ValidarOverride([]ArchivoCandidato{doc("r.pdf", 10), ev("a.jpg", 1)}); err != nil {
		t.Fatalf("valid override set rejected: %v", err)
	}
}
