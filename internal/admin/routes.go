package admin

import (
	"github.com/go-chi/chi/v5"

	"github.com/reto-gober/regulatoria/internal/shared"
)

// MountRoutes registers the admin endpoints under /api/admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(h.roles.RequireRol(shared.RolAdmin))

		r.Post("/reports/{periodoId}/override-submit", h.OverrideSubmit)

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", h.ListActions)
			r.Get("/export", h.ExportActions)
			r.Get("/{actionId}", h.ShowAction)
		})
	})
}
