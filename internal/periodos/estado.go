package periodos

// Estado enumerates the lifecycle states of a ReportePeriodo.
type Estado string

const (
	EstadoPendiente          Estado = "pendiente"
	EstadoEnElaboracion      Estado = "en_elaboracion"
	EstadoEnviadoATiempo     Estado = "enviado_a_tiempo"
	EstadoEnviadoTarde       Estado = "enviado_tarde"
	EstadoEnRevision         Estado = "en_revision"
	EstadoRequiereCorreccion Estado = "requiere_correccion"
	EstadoAprobado           Estado = "aprobado"
	EstadoRechazado          Estado = "rechazado"
	EstadoVencido            Estado = "vencido"
)

// Estados lists every state, in lifecycle order.
func Estados() []Estado {
	return []Estado{
		EstadoPendiente,
		EstadoEnElaboracion,
		EstadoEnviadoATiempo,
		EstadoEnviadoTarde,
		EstadoEnRevision,
		EstadoRequiereCorreccion,
		EstadoAprobado,
		EstadoRechazado,
		EstadoVencido,
	}
}

// Valido reports whether e is a known state.
func (e Estado) Valido() bool {
	switch e {
	case EstadoPendiente, EstadoEnElaboracion, EstadoEnviadoATiempo, EstadoEnviadoTarde,
		EstadoEnRevision, EstadoRequiereCorreccion, EstadoAprobado, EstadoRechazado, EstadoVencido:
		return true
	}
	return false
}

// Terminal reports whether no further user transition is possible.
// aprobado is the success terminal; vencido the failure terminal.
func (e Estado) Terminal() bool {
	return e == EstadoAprobado || e == EstadoVencido
}

// Enviado reports whether the period currently sits in a submitted state.
func (e Estado) Enviado() bool {
	return e == EstadoEnviadoATiempo || e == EstadoEnviadoTarde
}

// Label returns the presentation label for e. The switch is exhaustive on
// purpose: an unknown state must not fall back to a default string.
func (e Estado) Label() string {
	switch e {
	case EstadoPendiente:
		return "Pendiente"
	case EstadoEnElaboracion:
		return "En elaboración"
	case EstadoEnviadoATiempo:
		return "Enviado a tiempo"
	case EstadoEnviadoTarde:
		return "Enviado tarde"
	case EstadoEnRevision:
		return "En revisión"
	case EstadoRequiereCorreccion:
		return "Requiere corrección"
	case EstadoAprobado:
		return "Aprobado"
	case EstadoRechazado:
		return "Rechazado"
	case EstadoVencido:
		return "Vencido"
	}
	return string(e)
}

// Color returns the presentation color token for e.
func (e Estado) Color() string {
	switch e {
	case EstadoPendiente, EstadoEnElaboracion:
		return "gray"
	case EstadoEnviadoATiempo:
		return "blue"
	case EstadoEnviadoTarde:
		return "orange"
	case EstadoEnRevision:
		return "purple"
	case EstadoRequiereCorreccion:
		return "yellow"
	case EstadoAprobado:
		return "green"
	case EstadoRechazado, EstadoVencido:
		return "red"
	}
	return "gray"
}
