package auth

import (
	"time"

	"github.com/reto-gober/regulatoria/internal/shared"
)

// Usuario represents an authenticated platform account.
type Usuario struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Nombre       string     `json:"nombre"`
	Cargo        string     `json:"cargo"`
	Rol          shared.Rol `json:"rol"`
	PasswordHash string     `json:"-"`
	Activo       bool       `json:"activo"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
