package evidencias

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/platform/httpx"
	"github.com/reto-gober/regulatoria/internal/shared"
)

// Slack above the file ceiling for the rest of the multipart envelope.
const maxFormMemoria = periodos.MaxTamanoArchivo + 1<<20

// Handler exposes artifact upload and download over JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   shared.RolMiddleware
}

func NewHandler(logger *slog.Logger, service *Service, roles shared.RolMiddleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, roles: roles}
}

// Subir receives one multipart file under the "archivo" field with its "slot"
// value and answers with the stored metadata.
func (h *Handler) Subir(w http.ResponseWriter, r *http.Request) {
	actor, err := periodos.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	slot, nombre, data, ok := h.leerMultipart(w, r)
	if !ok {
		return
	}

	archivo, err := h.service.Subir(r.Context(), actor, slot, nombre, data)
	if err != nil {
		h.respondError(w, "subir archivo", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, archivo)
}

// SubirAPeriodo receives one multipart file and binds it to the period in the
// URL. The slot defaults to evidencia when omitted.
func (h *Handler) SubirAPeriodo(w http.ResponseWriter, r *http.Request) {
	actor, err := periodos.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	periodoID, err := strconv.ParseInt(chi.URLParam(r, "periodoId"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	slot, nombre, data, ok := h.leerMultipart(w, r)
	if !ok {
		return
	}

	archivo, err := h.service.AdjuntarAPeriodo(r.Context(), actor, periodoID, slot, nombre, data)
	if err != nil {
		h.respondError(w, "adjuntar archivo a periodo", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, archivo)
}

// leerMultipart parses the upload form and reads the single file. It writes
// the error response itself when ok is false.
func (h *Handler) leerMultipart(w http.ResponseWriter, r *http.Request) (periodos.Slot, string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemoria)
	if err := r.ParseMultipartForm(maxFormMemoria); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large",
			fmt.Sprintf("el archivo supera el máximo de %d bytes", periodos.MaxTamanoArchivo))
		return "", "", nil, false
	}

	slot := periodos.Slot(r.FormValue("slot"))
	if slot == "" {
		slot = periodos.SlotEvidencia
	}
	if slot != periodos.SlotDocumento && slot != periodos.SlotEvidencia {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "slot debe ser documento o evidencia")
		return "", "", nil, false
	}

	file, header, err := r.FormFile("archivo")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "archivo requerido")
		return "", "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("leer archivo subido", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return "", "", nil, false
	}
	return slot, header.Filename, data, true
}

// Descargar streams the stored bytes with the original filename.
func (h *Handler) Descargar(w http.ResponseWriter, r *http.Request) {
	archivo, data, err := h.service.Descargar(r.Context(), chi.URLParam(r, "archivoId"))
	if err != nil {
		h.respondError(w, "descargar archivo", err)
		return
	}
	w.Header().Set("Content-Type", archivo.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archivo.NombreOriginal))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Eliminar removes an unlinked file.
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	actor, err := periodos.ActorFromSession(shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Eliminar(r.Context(), chi.URLParam(r, "archivoId"), actor); err != nil {
		h.respondError(w, "eliminar archivo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, periodos.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrPeriodoCerrado):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrRolNoAutorizado):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrArchivoVinculado):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, periodos.ErrTipoArchivoNoPermitido):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, periodos.ErrArchivoMuyGrande):
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
