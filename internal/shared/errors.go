package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRolNoAutorizado indicates the acting role may not perform the operation.
	ErrRolNoAutorizado = errors.New("rol no autorizado")
)
