package admin

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/platform/httpx"
	"github.com/reto-gober/regulatoria/internal/shared"
)

// Multipart ceiling: the JSON part plus up to three files at the per-file cap.
const maxOverrideForm = 4 * periodos.MaxTamanoArchivo

// Handler exposes the override and audit endpoints under /api/admin.
type Handler struct {
	logger   *slog.Logger
	override *Service
	query    *QueryService
	validate *validator.Validate
	roles    shared.RolMiddleware
}

func NewHandler(logger *slog.Logger, override *Service, query *QueryService, validate *validator.Validate, roles shared.RolMiddleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, override: override, query: query, validate: validate, roles: roles}
}

// OverrideSubmit handles the multipart override call: one part named
// "request" with the JSON payload plus zero or more file parts. A part named
// "documento" fills the document slot; parts named "files" count as evidence.
func (h *Handler) OverrideSubmit(w http.ResponseWriter, r *http.Request) {
	actor, err := periodos.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	periodoID, err := strconv.ParseInt(chi.URLParam(r, "periodoId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodoId inválido")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxOverrideForm)
	if err := r.ParseMultipartForm(maxOverrideForm); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "el formulario supera el tamaño máximo")
		return
	}

	var req OverrideSubmitRequest
	if err := json.Unmarshal([]byte(r.FormValue("request")), &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "parte request no es JSON válido")
		return
	}
	req.PeriodoID = periodoID
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	files, err := h.leerArchivos(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	accion, err := h.override.OverrideSubmit(r.Context(), actor, req, files)
	if err != nil {
		h.respondError(w, "override submit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, accion)
}

func (h *Handler) leerArchivos(r *http.Request) ([]ArchivoSubido, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []ArchivoSubido
	lee := func(field string, slot periodos.Slot) error {
		for _, header := range r.MultipartForm.File[field] {
			f, err := header.Open()
			if err != nil {
				return errors.New("no se pudo leer " + header.Filename)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return errors.New("no se pudo leer " + header.Filename)
			}
			out = append(out, ArchivoSubido{Nombre: header.Filename, Slot: slot, Data: data})
		}
		return nil
	}
	if err := lee("documento", periodos.SlotDocumento); err != nil {
		return nil, err
	}
	if err := lee("files", periodos.SlotEvidencia); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActions serves the paginated, filterable audit listing.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseFiltros(w, r)
	if !ok {
		return
	}
	result, err := h.query.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list actions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// ShowAction serves one action detail.
func (h *Handler) ShowAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "actionId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "actionId inválido")
		return
	}
	accion, err := h.query.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get action", err)
		return
	}
	httpx.JSON(w, http.StatusOK, accion)
}

// ExportActions streams the filtered audit trail as CSV.
func (h *Handler) ExportActions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseFiltros(w, r)
	if !ok {
		return
	}
	actions, err := h.query.Export(r.Context(), req)
	if err != nil {
		h.respondError(w, "export actions", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="acciones-administrativas.csv"`)
	if err := WriteCSV(w, actions); err != nil {
		h.logger.Error("export actions", slog.Any("error", err))
	}
}

func (h *Handler) parseFiltros(w http.ResponseWriter, r *http.Request) (ListActionsRequest, bool) {
	req := ListActionsRequest{}
	q := r.URL.Query()
	if v := q.Get("adminId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "adminId inválido")
			return req, false
		}
		req.AdminID = &id
	}
	if v := q.Get("actionType"); v != "" {
		tipo := ActionType(v)
		if !tipo.Valido() {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "actionType desconocido")
			return req, false
		}
		req.ActionType = &tipo
	}
	if v := q.Get("periodoId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "periodoId inválido")
			return req, false
		}
		req.PeriodoID = &id
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "startDate inválida")
			return req, false
		}
		req.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "endDate inválida")
			return req, false
		}
		// Inclusive end date: filter below the following midnight.
		end := t.AddDate(0, 0, 1)
		req.EndDate = &end
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PageSize, _ = strconv.Atoi(q.Get("size"))
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var invalid *periodos.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", invalid.Error())
	case errors.Is(err, periodos.ErrEstadoCambiado):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, periodos.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrRolNoAutorizado):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrMotivoObligatorio),
		errors.Is(err, periodos.ErrTipoArchivoNoPermitido),
		errors.Is(err, periodos.ErrArchivoMuyGrande),
		errors.Is(err, periodos.ErrDemasiadosArtefactos):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrOverrideFailed):
		httpx.Problem(w, http.StatusServiceUnavailable, "Override Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
