package evidencias

import (
	"github.com/go-chi/chi/v5"

	"github.com/reto-gober/regulatoria/internal/shared"
)

// MountRoutes registers the artifact endpoints under /api/evidencias, plus
// the direct attach endpoint under /api/periodos/{periodoId}/archivos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/evidencias", func(r chi.Router) {
		r.Get("/{archivoId}/descargar", h.Descargar)

		r.Group(func(r chi.Router) {
			r.Use(h.roles.RequireRol(shared.RolResponsable, shared.RolSupervisor, shared.RolAdmin))
			r.Post("/", h.Subir)
			r.Delete("/{archivoId}", h.Eliminar)
		})
	})

	r.With(h.roles.RequireRol(shared.RolResponsable, shared.RolSupervisor, shared.RolAdmin)).
		Post("/periodos/{periodoId}/archivos", h.SubirAPeriodo)
}
