package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reto-gober/regulatoria/internal/evidencias"
	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/platform/cache"
	"github.com/reto-gober/regulatoria/internal/shared"
)

var (
	// ErrMotivoObligatorio rejects an override without a justification. Checked
	// again after trimming, so whitespace never passes the JSON validator's
	// required rule.
	ErrMotivoObligatorio = errors.New("motivo es obligatorio")

	// ErrOverrideFailed flags an infrastructure failure during the override.
	// Completion state is unknown: the caller must check the audit trail before
	// retrying.
	ErrOverrideFailed = errors.New("override fallido, verifique el registro de auditoría antes de reintentar")
)

// ArchivoSubido is one raw multipart file accompanying an override.
type ArchivoSubido struct {
	Nombre string
	Slot   periodos.Slot
	Data   []byte
}

// OverrideNotificacion is handed to the notifier after a committed override.
type OverrideNotificacion struct {
	ActionID             int64  `json:"action_id"`
	PeriodoID            int64  `json:"periodo_id"`
	AdminNombre          string `json:"admin_nombre"`
	ResponsableID        int64  `json:"responsable_id"`
	Motivo               string `json:"motivo"`
	NotificarSupervisor  bool   `json:"notificar_supervisor"`
	NotificarResponsable bool   `json:"notificar_responsable"`
}

// Notifier delivers override notices out of band. Failures never undo the
// committed override.
type Notifier interface {
	NotificarOverride(ctx context.Context, n OverrideNotificacion) error
}

// MetricaOverrides counts committed overrides. Nil disables recording.
type MetricaOverrides interface {
	ObservarOverride()
}

// Service performs administrative overrides. The period transition and its
// AdminAction record commit in one transaction: readers either see both or
// neither.
type Service struct {
	repo     Repository
	periodos periodos.Repository
	archivos *evidencias.Service
	notifier Notifier
	cache    *cache.TTLCache
	logger   *slog.Logger
	metrics  MetricaOverrides
	now      func() time.Time
}

func NewService(repo Repository, periodosRepo periodos.Repository, archivos *evidencias.Service, notifier Notifier, ttl *cache.TTLCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		periodos: periodosRepo,
		archivos: archivos,
		notifier: notifier,
		cache:    ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// ConMetricas attaches the override counter.
func (s *Service) ConMetricas(m MetricaOverrides) *Service {
	s.metrics = m
	return s
}

// OverrideSubmit submits a period on behalf of its responsable. Unlike a
// normal submission an override may carry zero files. Exactly one AdminAction
// is recorded per successful override; a rejected precondition records none.
func (s *Service) OverrideSubmit(ctx context.Context, actor periodos.Actor, req OverrideSubmitRequest, files []ArchivoSubido) (*AdminAction, error) {
	if actor.Rol != shared.RolAdmin {
		return nil, shared.ErrRolNoAutorizado
	}
	motivo := strings.TrimSpace(req.Motivo)
	if motivo == "" {
		return nil, ErrMotivoObligatorio
	}

	periodo, err := s.periodos.Get(ctx, req.PeriodoID)
	if err != nil {
		return nil, err
	}

	candidatos := make([]periodos.ArchivoCandidato, 0, len(files))
	for _, f := range files {
		candidatos = append(candidatos, periodos.ArchivoCandidato{Nombre: f.Nombre, Tamano: int64(len(f.Data)), Slot: f.Slot})
	}
	if _, err := periodos.ValidarOverride(candidatos); err != nil {
		return nil, err
	}

	ahora := s.now()
	siguiente, err := periodos.Transicionar(periodo.Estado, periodos.EventoOverrideSubmit, actor.Rol, ahora, periodo.FechaVencimientoCalculada)
	if err != nil {
		return nil, err
	}
	desviacion := periodos.DiasDesviacion(periodo.FechaVencimientoCalculada, ahora)

	// Files are stored before the transaction. On failure they stay unlinked
	// and the period never references a missing artifact.
	ids := make([]string, 0, len(files))
	for _, f := range files {
		archivo, err := s.archivos.Subir(ctx, actor, f.Slot, f.Nombre, f.Data)
		if err != nil {
			return nil, err
		}
		ids = append(ids, archivo.ID)
	}

	reporteNombre, responsableNombre, err := s.repo.ContextoPeriodo(ctx, req.PeriodoID, periodo.ResponsableElaboracionID)
	if err != nil {
		return nil, err
	}

	accion := AdminAction{
		ActionType:          ActionOverrideSubmit,
		PeriodoID:           req.PeriodoID,
		AdminID:             actor.ID,
		AdminNombre:         actor.Nombre,
		ResponsableID:       periodo.ResponsableElaboracionID,
		ResponsableAfectado: responsableNombre,
		ReporteNombre:       reporteNombre,
		Motivo:              motivo,
		Comentarios:         req.Comentarios,
		EstadoAnterior:      string(periodo.Estado),
		EstadoResultante:    string(siguiente),
		FilesCount:          len(files),
		CreatedAt:           ahora,
	}

	var actionID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.ActualizarPeriodo(ctx, req.PeriodoID, periodo.Estado, siguiente, ahora, desviacion); err != nil {
			return err
		}
		if err := repo.VincularArchivos(ctx, req.PeriodoID, ids); err != nil {
			return err
		}
		if err := repo.InsertComentario(ctx, periodos.Comentario{
			PeriodoID: req.PeriodoID,
			Autor:     actor.Nombre,
			Cargo:     actor.Cargo,
			Accion:    string(periodos.EventoOverrideSubmit),
			Texto:     motivo,
			Fecha:     ahora,
		}); err != nil {
			return err
		}
		id, err := repo.InsertAction(ctx, accion)
		if err != nil {
			return err
		}
		actionID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, periodos.ErrEstadoCambiado) {
			return nil, err
		}
		s.logger.Error("override submit", slog.Int64("periodo_id", req.PeriodoID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrOverrideFailed, err)
	}

	if s.metrics != nil {
		s.metrics.ObservarOverride()
	}
	if s.cache != nil {
		s.cache.Invalidate(periodos.CacheKeyDetalle(req.PeriodoID))
	}
	s.notificar(ctx, OverrideNotificacion{
		ActionID:             actionID,
		PeriodoID:            req.PeriodoID,
		AdminNombre:          actor.Nombre,
		ResponsableID:        periodo.ResponsableElaboracionID,
		Motivo:               motivo,
		NotificarSupervisor:  req.NotificarSupervisor,
		NotificarResponsable: req.NotificarResponsable,
	})

	return s.repo.GetAction(ctx, actionID)
}

func (s *Service) notificar(ctx context.Context, n OverrideNotificacion) {
	if s.notifier == nil || (!n.NotificarSupervisor && !n.NotificarResponsable) {
		return
	}
	if err := s.notifier.NotificarOverride(ctx, n); err != nil {
		s.logger.Warn("encolar notificación de override",
			slog.Int64("action_id", n.ActionID), slog.Any("error", err))
	}
}
