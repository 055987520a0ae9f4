package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/reto-gober/regulatoria/internal/admin"
	"github.com/reto-gober/regulatoria/internal/auth"
	"github.com/reto-gober/regulatoria/internal/evidencias"
	"github.com/reto-gober/regulatoria/internal/observability"
	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/shared"
	"github.com/reto-gober/regulatoria/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	Roles             shared.RolMiddleware
	AuthHandler       *auth.Handler
	PeriodosHandler   *periodos.Handler
	EvidenciasHandler *evidencias.Handler
	AdminHandler      *admin.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		params.PeriodosHandler.MountRoutes(r)
		params.EvidenciasHandler.MountRoutes(r)
		params.AdminHandler.MountRoutes(r)
		if params.JobHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(params.Roles.RequireRol(shared.RolAdmin))
				r.Route("/jobs", params.JobHandler.MountRoutes)
			})
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
