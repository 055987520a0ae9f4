package periodos

import (
	"math"
	"time"
)

// Frecuencia classifies how often a report obligation recurs. It determines
// the due offset applied to the end of the reporting window.
type Frecuencia string

const (
	FrecuenciaMensual    Frecuencia = "mensual"
	FrecuenciaTrimestral Frecuencia = "trimestral"
	FrecuenciaSemestral  Frecuencia = "semestral"
	FrecuenciaAnual      Frecuencia = "anual"
)

// PlazoDias returns the calendar days granted after periodoFin to submit.
func (f Frecuencia) PlazoDias() int {
	switch f {
	case FrecuenciaMensual:
		return 10
	case FrecuenciaTrimestral:
		return 15
	case FrecuenciaSemestral:
		return 20
	case FrecuenciaAnual:
		return 30
	}
	return 10
}

// Medianoche normalizes t to local midnight. All day arithmetic works on
// calendar days, never elapsed hours, so "3 days left" is stable regardless
// of time-of-day.
func Medianoche(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// VencimientoCalculado derives the due date from the window end and the
// frequency-derived offset. Pure and deterministic.
func VencimientoCalculado(periodoFin time.Time, f Frecuencia) time.Time {
	return Medianoche(periodoFin).AddDate(0, 0, f.PlazoDias())
}

// DiasDesviacion is the signed calendar-day distance between the due date and
// the submission instant: positive = late, zero = exact, negative = early.
// Computed once at the submitting transition and stored immutably.
func DiasDesviacion(vencimiento, enviado time.Time) int {
	due := Medianoche(vencimiento)
	sub := Medianoche(enviado.In(vencimiento.Location()))
	// Rounding absorbs DST days that are 23 or 25 hours long.
	return int(math.Round(sub.Sub(due).Hours() / 24))
}

// DiasRestantes counts the calendar days from ahora until the due date.
// Negative values mean the deadline already passed.
func DiasRestantes(ahora, vencimiento time.Time) int {
	return -DiasDesviacion(vencimiento, ahora)
}
