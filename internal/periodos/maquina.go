package periodos

import (
	"fmt"
	"time"

	"github.com/reto-gober/regulatoria/internal/shared"
)

// Evento enumerates lifecycle events.
type Evento string

const (
	EventoEnviar               Evento = "enviar"
	EventoCorregirReenviar     Evento = "corregir_reenviar"
	EventoIniciarRevision      Evento = "iniciar_revision"
	EventoAprobar              Evento = "aprobar"
	EventoRechazar             Evento = "rechazar"
	EventoSolicitarCorreccion  Evento = "solicitar_correccion"
	EventoMarcarVencido        Evento = "marcar_vencido"
	EventoOverrideSubmit       Evento = "override_submit"
)

// InvalidTransitionError reports a (state, event) pair outside the table.
// The entity must be left untouched by the caller.
type InvalidTransitionError struct {
	Estado Estado
	Evento Evento
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida: evento %q no admitido en estado %q", e.Evento, e.Estado)
}

type regla struct {
	// desde nil means any non-terminal state.
	desde   []Estado
	roles   []shared.Rol
	destino func(ahora, vencimiento time.Time) Estado
}

func destinoEnvio(ahora, vencimiento time.Time) Estado {
	// A submission exactly at the due date counts as on-time.
	if DiasDesviacion(vencimiento, ahora) <= 0 {
		return EstadoEnviadoATiempo
	}
	return EstadoEnviadoTarde
}

func destinoFijo(e Estado) func(time.Time, time.Time) Estado {
	return func(time.Time, time.Time) Estado { return e }
}

// tabla is the single source of truth for legal transitions. The capability
// checks exposed to callers derive from it, so permissions and lifecycle
// cannot drift apart.
var tabla = map[Evento]regla{
	EventoEnviar: {
		desde:   []Estado{EstadoPendiente},
		roles:   []shared.Rol{shared.RolResponsable},
		destino: destinoEnvio,
	},
	EventoCorregirReenviar: {
		desde:   []Estado{EstadoRequiereCorreccion},
		roles:   []shared.Rol{shared.RolResponsable},
		destino: destinoEnvio,
	},
	EventoIniciarRevision: {
		desde:   []Estado{EstadoEnviadoATiempo, EstadoEnviadoTarde},
		roles:   []shared.Rol{shared.RolSupervisor, shared.RolAdmin},
		destino: destinoFijo(EstadoEnRevision),
	},
	EventoAprobar: {
		desde:   []Estado{EstadoEnRevision, EstadoEnviadoATiempo, EstadoEnviadoTarde},
		roles:   []shared.Rol{shared.RolSupervisor, shared.RolAdmin},
		destino: destinoFijo(EstadoAprobado),
	},
	EventoRechazar: {
		desde:   []Estado{EstadoEnRevision, EstadoEnviadoATiempo, EstadoEnviadoTarde},
		roles:   []shared.Rol{shared.RolSupervisor, shared.RolAdmin},
		destino: destinoFijo(EstadoRechazado),
	},
	EventoSolicitarCorreccion: {
		desde:   []Estado{EstadoEnRevision, EstadoEnviadoATiempo, EstadoEnviadoTarde},
		roles:   []shared.Rol{shared.RolSupervisor, shared.RolAdmin},
		destino: destinoFijo(EstadoRequiereCorreccion),
	},
	EventoMarcarVencido: {
		desde:   []Estado{EstadoPendiente, EstadoEnElaboracion, EstadoRequiereCorreccion},
		roles:   []shared.Rol{shared.RolSistema},
		destino: destinoFijo(EstadoVencido),
	},
	EventoOverrideSubmit: {
		desde:   nil, // any non-terminal state
		roles:   []shared.Rol{shared.RolAdmin},
		destino: destinoEnvio,
	},
}

func (r regla) admiteEstado(e Estado) bool {
	if r.desde == nil {
		return e.Valido() && !e.Terminal()
	}
	for _, s := range r.desde {
		if s == e {
			return true
		}
	}
	return false
}

func (r regla) admiteRol(rol shared.Rol) bool {
	for _, candidate := range r.roles {
		if candidate == rol {
			return true
		}
	}
	return false
}

// Transicionar applies event ev to estado acting as rol and returns the next
// state. It is pure: callers persist the result. For submit-type events the
// target is resolved against the due date.
func Transicionar(estado Estado, ev Evento, rol shared.Rol, ahora, vencimiento time.Time) (Estado, error) {
	r, ok := tabla[ev]
	if !ok {
		return estado, &InvalidTransitionError{Estado: estado, Evento: ev}
	}
	if !r.admiteEstado(estado) {
		return estado, &InvalidTransitionError{Estado: estado, Evento: ev}
	}
	if !r.admiteRol(rol) {
		return estado, fmt.Errorf("%w: rol %q no puede aplicar %q", shared.ErrRolNoAutorizado, rol, ev)
	}
	return r.destino(ahora, vencimiento), nil
}

// CanTransition reports whether rol may apply ev when the period sits in
// estado. Derived from the transition table, one check per request.
func CanTransition(rol shared.Rol, ev Evento, estado Estado) bool {
	r, ok := tabla[ev]
	if !ok {
		return false
	}
	return r.admiteEstado(estado) && r.admiteRol(rol)
}

// EventosDisponibles lists the events rol may apply from estado, in a stable
// order suitable for building action menus.
func EventosDisponibles(estado Estado, rol shared.Rol) []Evento {
	orden := []Evento{
		EventoEnviar,
		EventoCorregirReenviar,
		EventoIniciarRevision,
		EventoAprobar,
		EventoRechazar,
		EventoSolicitarCorreccion,
		EventoMarcarVencido,
		EventoOverrideSubmit,
	}
	var out []Evento
	for _, ev := range orden {
		if CanTransition(rol, ev, estado) {
			out = append(out, ev)
		}
	}
	return out
}
