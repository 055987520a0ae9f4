package periodos

import (
	"github.com/go-chi/chi/v5"

	"github.com/reto-gober/regulatoria/internal/shared"
)

// MountRoutes registers the period endpoints under /api/periodos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/periodos", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{periodoId}", h.Show)

		r.Group(func(r chi.Router) {
			r.Use(h.roles.RequireRol(shared.RolResponsable))
			r.Post("/{periodoId}/enviar", h.Enviar)
			r.Post("/{periodoId}/corregir-reenviar", h.CorregirReenviar)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.roles.RequireRol(shared.RolSupervisor, shared.RolAdmin))
			r.Post("/{periodoId}/iniciar-revision", h.IniciarRevision)
			r.Post("/{periodoId}/aprobar", h.Aprobar)
			r.Post("/{periodoId}/rechazar", h.Rechazar)
			r.Post("/{periodoId}/solicitar-correccion", h.SolicitarCorreccion)
		})
	})
}
