package periodos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reto-gober/regulatoria/internal/platform/httpx"
	"github.com/reto-gober/regulatoria/internal/shared"
)

// Handler exposes the period lifecycle over JSON endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	roles    shared.RolMiddleware
}

// NewHandler constructs the periods handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, roles shared.RolMiddleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validate, roles: roles}
}

// ActorFromSession resolves the acting user from the request session.
func ActorFromSession(sess *shared.Session) (Actor, error) {
	if sess == nil || sess.User() == "" {
		return Actor{}, httpx.ErrUnauthorized
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return Actor{}, httpx.ErrUnauthorized
	}
	rol, ok := shared.ParseRol(sess.Rol())
	if !ok {
		return Actor{}, httpx.ErrForbidden
	}
	return Actor{
		ID:     id,
		Nombre: sess.Get("nombre"),
		Cargo:  sess.Get("cargo"),
		Rol:    rol,
	}, nil
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "periodoId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodoId inválido")
		return
	}
	detalle, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get periodo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detalle)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListPeriodosRequest{}
	q := r.URL.Query()
	if v := q.Get("entidad_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.EntidadID = &id
		}
	}
	if v := q.Get("reporte_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ReporteID = &id
		}
	}
	if v := q.Get("estado"); v != "" {
		estado := Estado(v)
		if !estado.Valido() {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("estado %q desconocido", v))
			return
		}
		req.Estado = &estado
	}
	if v := q.Get("desde"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DesdeFin = &t
		}
	}
	if v := q.Get("hasta"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.HastaFin = &t
		}
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	periodos, paging, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list periodos", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"periodos":   periodos,
		"pagination": paging,
	})
}

func (h *Handler) Enviar(w http.ResponseWriter, r *http.Request) {
	h.handleEnvio(w, r, (*Service).Enviar)
}

func (h *Handler) CorregirReenviar(w http.ResponseWriter, r *http.Request) {
	h.handleEnvio(w, r, (*Service).CorregirReenviar)
}

func (h *Handler) handleEnvio(w http.ResponseWriter, r *http.Request, op func(*Service, context.Context, int64, Actor, EnviarRequest) (*ReportePeriodoDetalle, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "periodoId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodoId inválido")
		return
	}
	actor, err := ActorFromSession(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req EnviarRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "cuerpo JSON inválido")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	detalle, err := op(h.service, r.Context(), id, actor, req)
	if err != nil {
		h.respondError(w, "enviar periodo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detalle)
}

func (h *Handler) IniciarRevision(w http.ResponseWriter, r *http.Request) {
	h.handleRevision(w, r, (*Service).IniciarRevision)
}

func (h *Handler) Aprobar(w http.ResponseWriter, r *http.Request) {
	h.handleRevision(w, r, (*Service).Aprobar)
}

func (h *Handler) Rechazar(w http.ResponseWriter, r *http.Request) {
	h.handleRevision(w, r, (*Service).Rechazar)
}

func (h *Handler) SolicitarCorreccion(w http.ResponseWriter, r *http.Request) {
	h.handleRevision(w, r, (*Service).SolicitarCorreccion)
}

func (h *Handler) handleRevision(w http.ResponseWriter, r *http.Request, op func(*Service, context.Context, int64, Actor, RevisionRequest) (*ReportePeriodoDetalle, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "periodoId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodoId inválido")
		return
	}
	actor, err := ActorFromSession(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RevisionRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "cuerpo JSON inválido")
			return
		}
	}
	detalle, err := op(h.service, r.Context(), id, actor, req)
	if err != nil {
		h.respondError(w, "revision periodo", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detalle)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", invalid.Error())
	case errors.Is(err, ErrEstadoCambiado):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrRolNoAutorizado):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrTipoArchivoNoPermitido),
		errors.Is(err, ErrArchivoMuyGrande),
		errors.Is(err, ErrFaltaArtefacto),
		errors.Is(err, ErrDemasiadosArtefactos),
		errors.Is(err, ErrArchivoAjeno):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrEnvioFallido):
		httpx.Problem(w, http.StatusServiceUnavailable, "Submission Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
