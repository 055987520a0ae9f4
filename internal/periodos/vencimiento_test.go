package periodos

import (
	"testing"
	"time"
)

func TestDiasDesviacion(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		enviado  time.Time
		expected int
	}{
		{"mismo dia a ultima hora", time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC), 0},
		{"mismo dia a medianoche", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 0},
		{"dos dias tarde", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), 2},
		{"dos dias tarde de madrugada", time.Date(2025, 3, 12, 1, 30, 0, 0, time.UTC), 2},
		{"tres dias antes", time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC), -3},
		{"un dia antes por minutos", time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DiasDesviacion(due, c.enviado); got != c.expected {
				t.Fatalf("DiasDesviacion = %d, want %d", got, c.expected)
			}
		})
	}
}

func TestDiasDesviacionIgnoraHoraDelVencimiento(t *testing.T) {
	// Day arithmetic must be stable regardless of time-of-day on either side.
	due := time.Date(2025, 6, 1, 17, 45, 0, 0, time.UTC)
	enviado := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	if got := DiasDesviacion(due, enviado); got != 0 {
		t.Fatalf("same calendar day must be zero, got %d", got)
	}
}

func TestVencimientoCalculado(t *testing.T) {
	fin := time.Date(2025, 2, 28, 16, 30, 0, 0, time.UTC)

	cases := []struct {
		frecuencia Frecuencia
		expected   time.Time
	}{
		{FrecuenciaMensual, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{FrecuenciaTrimestral, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{FrecuenciaSemestral, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)},
		{FrecuenciaAnual, time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := VencimientoCalculado(fin, c.frecuencia); !got.Equal(c.expected) {
			t.Errorf("%s: got %s, want %s", c.frecuencia, got, c.expected)
		}
	}
}

func TestDiasRestantes(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	ahora := time.Date(2025, 3, 7, 22, 0, 0, 0, time.UTC)
	if got := DiasRestantes(ahora, due); got != 3 {
		t.Fatalf("DiasRestantes = %d, want 3", got)
	}
	pasado := time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC)
	if got := DiasRestantes(pasado, due); got != -1 {
		t.Fatalf("DiasRestantes = %d, want -1", got)
	}
}
