package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reto-gober/regulatoria/internal/auth"
	"github.com/reto-gober/regulatoria/internal/shared"
)

type stubRepo struct {
	user     *auth.Usuario
	sesiones map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Usuario, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sesiones == nil {
		s.sesiones = make(map[string]int64)
	}
	s.sesiones[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sesiones, id)
	return nil
}

func usuarioDePrueba(t *testing.T, rol shared.Rol) *auth.Usuario {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("clave-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.Usuario{
		ID:           21,
		Email:        "laura@entidad.gov.co",
		Nombre:       "Laura Pinzón",
		Cargo:        "Analista",
		Rol:          rol,
		PasswordHash: string(hashed),
		Activo:       true,
	}
}

func newHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, validator.New())
	return handler, sessionManager
}

func doLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.Login(res, req)
	require.NoError(t, sessionManager.Commit(req.Context(), res, sess))
	return res, sess
}

func TestLoginOK(t *testing.T) {
	repo := &stubRepo{user: usuarioDePrueba(t, shared.RolResponsable)}
	handler, sessionManager := newHandler(t, repo)

	res, sess := doLogin(t, handler, sessionManager,
		`{"email":"laura@entidad.gov.co","password":"clave-segura"}`)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "21", sess.User())
	assert.Equal(t, string(shared.RolResponsable), sess.Rol())
	assert.Equal(t, "Laura Pinzón", sess.Get("nombre"))
	assert.Contains(t, repo.sesiones, sess.ID)
	assert.NotContains(t, res.Body.String(), "password_hash")
}

func TestLoginCredencialesInvalidas(t *testing.T) {
	repo := &stubRepo{user: usuarioDePrueba(t, shared.RolResponsable)}
	handler, sessionManager := newHandler(t, repo)

	res, sess := doLogin(t, handler, sessionManager,
		`{"email":"laura@entidad.gov.co","password":"clave-erronea"}`)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, sess.User())
}

func TestLoginUsuarioInactivo(t *testing.T) {
	user := usuarioDePrueba(t, shared.RolAdmin)
	user.Activo = false
	handler, sessionManager := newHandler(t, &stubRepo{user: user})

	res, _ := doLogin(t, handler, sessionManager,
		`{"email":"laura@entidad.gov.co","password":"clave-segura"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidacion(t *testing.T) {
	handler, sessionManager := newHandler(t, &stubRepo{})

	res, _ := doLogin(t, handler, sessionManager, `{"email":"no-es-correo","password":"corta"}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLogout(t *testing.T) {
	repo := &stubRepo{user: usuarioDePrueba(t, shared.RolSupervisor)}
	handler, sessionManager := newHandler(t, repo)

	_, sess := doLogin(t, handler, sessionManager,
		`{"email":"laura@entidad.gov.co","password":"clave-segura"}`)
	require.Contains(t, repo.sesiones, sess.ID)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	handler.Logout(res, req)

	require.Equal(t, http.StatusNoContent, res.Code)
	assert.NotContains(t, repo.sesiones, sess.ID)
}
