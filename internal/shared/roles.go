package shared

import (
	"log/slog"
	"net/http"
	"strings"
)

// Rol identifies the actor category driving a lifecycle operation.
type Rol string

const (
	// RolResponsable elaborates and submits reports.
	RolResponsable Rol = "responsable"
	// RolSupervisor reviews, approves, rejects or requests corrections.
	RolSupervisor Rol = "supervisor"
	// RolAdmin may override the normal actor chain, always audited.
	RolAdmin Rol = "admin"
	// RolSistema is the clock-driven actor for time-based transitions.
	RolSistema Rol = "sistema"
)

// ParseRol normalizes a stored role string.
func ParseRol(raw string) (Rol, bool) {
	switch Rol(strings.ToLower(strings.TrimSpace(raw))) {
	case RolResponsable:
		return RolResponsable, true
	case RolSupervisor:
		return RolSupervisor, true
	case RolAdmin:
		return RolAdmin, true
	case RolSistema:
		return RolSistema, true
	}
	return "", false
}

// RolMiddleware wires role checks for HTTP handlers.
type RolMiddleware struct {
	Logger *slog.Logger
}

// RequireRol ensures the session carries one of the given roles.
func (m RolMiddleware) RequireRol(roles ...Rol) func(http.Handler) http.Handler {
	allowed := make(map[Rol]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			rol, ok := ParseRol(sess.Rol())
			if !ok {
				if m.Logger != nil {
					m.Logger.Warn("session without usable role", slog.String("user", sess.User()))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if _, ok := allowed[rol]; !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
