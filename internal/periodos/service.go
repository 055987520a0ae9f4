package periodos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reto-gober/regulatoria/internal/platform/cache"
	"github.com/reto-gober/regulatoria/internal/shared"
)

// ErrEnvioFallido flags an infrastructure failure during a multi-step
// submission. The completion state is unknown: callers must check whether the
// transition was recorded before retrying.
var ErrEnvioFallido = errors.New("envío fallido, verifique el estado antes de reintentar")

// Actor identifies who drives a transition.
type Actor struct {
	ID     int64
	Nombre string
	Cargo  string
	Rol    shared.Rol
}

// MetricaTransiciones counts applied transitions. Satisfied by the
// observability package; nil disables recording.
type MetricaTransiciones interface {
	ObservarTransicion(evento, resultado string)
}

// Service orchestrates period lifecycle operations: validate, transition,
// persist, comment. One transition is processed to completion inside a single
// transaction before another on the same period can be observed.
type Service struct {
	repo    Repository
	cache   *cache.TTLCache
	logger  *slog.Logger
	metrics MetricaTransiciones
	now     func() time.Time
}

// NewService constructs the period service.
func NewService(repo Repository, ttl *cache.TTLCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: ttl, logger: logger, now: time.Now}
}

// ConMetricas attaches the transition counter.
func (s *Service) ConMetricas(m MetricaTransiciones) *Service {
	s.metrics = m
	return s
}

func (s *Service) observar(ev Evento, resultado Estado) {
	if s.metrics != nil {
		s.metrics.ObservarTransicion(string(ev), string(resultado))
	}
}

// CacheKeyDetalle names the cache entry every write on the period invalidates.
func CacheKeyDetalle(periodoID int64) string {
	return fmt.Sprintf("periodos:detalle:%d", periodoID)
}

// Get returns the period detail, read-through cached.
func (s *Service) Get(ctx context.Context, id int64) (*ReportePeriodoDetalle, error) {
	if s.cache == nil {
		return s.repo.GetDetalle(ctx, id)
	}
	v, err := s.cache.Through(ctx, CacheKeyDetalle(id), func(ctx context.Context) (any, error) {
		return s.repo.GetDetalle(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ReportePeriodoDetalle), nil
}

// List returns periods matching the filters plus pagination metadata.
func (s *Service) List(ctx context.Context, req ListPeriodosRequest) ([]ReportePeriodo, shared.Pagination, error) {
	periodos, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return periodos, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Enviar submits a period: the responsable hands in the report document plus
// evidence. The validator runs before the event reaches the state machine;
// nothing is persisted on rejection.
func (s *Service) Enviar(ctx context.Context, periodoID int64, actor Actor, req EnviarRequest) (*ReportePeriodoDetalle, error) {
	return s.envio(ctx, periodoID, actor, req, EventoEnviar)
}

// CorregirReenviar resubmits after a correction request, under the same
// due-date rule as a first submission.
func (s *Service) CorregirReenviar(ctx context.Context, periodoID int64, actor Actor, req EnviarRequest) (*ReportePeriodoDetalle, error) {
	return s.envio(ctx, periodoID, actor, req, EventoCorregirReenviar)
}

func (s *Service) envio(ctx context.Context, periodoID int64, actor Actor, req EnviarRequest, ev Evento) (*ReportePeriodoDetalle, error) {
	periodo, err := s.repo.Get(ctx, periodoID)
	if err != nil {
		return nil, err
	}

	ids := append([]string{req.DocumentoID}, req.EvidenciasIDs...)
	adjuntos, err := s.repo.ArchivosPorIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cargar archivos: %w", err)
	}
	if len(adjuntos) != len(ids) {
		return nil, fmt.Errorf("%w: algún archivo referido no existe", ErrFaltaArtefacto)
	}
	candidatos := make([]ArchivoCandidato, 0, len(adjuntos))
	for _, a := range adjuntos {
		if a.PeriodoID != nil && *a.PeriodoID != periodoID {
			return nil, fmt.Errorf("%w: %s", ErrArchivoAjeno, a.ArchivoID)
		}
		candidatos = append(candidatos, ArchivoCandidato{Nombre: a.NombreOriginal, Tamano: a.TamanoBytes, Slot: a.Slot})
	}
	if _, err := ValidarEnvio(candidatos); err != nil {
		return nil, err
	}

	ahora := s.now()
	siguiente, err := Transicionar(periodo.Estado, ev, actor.Rol, ahora, periodo.FechaVencimientoCalculada)
	if err != nil {
		return nil, err
	}
	desviacion := DiasDesviacion(periodo.FechaVencimientoCalculada, ahora)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.ActualizarTransicion(ctx, periodoID, periodo.Estado, siguiente, &ahora, &desviacion); err != nil {
			return err
		}
		if err := repo.VincularArchivos(ctx, periodoID, ids); err != nil {
			return err
		}
		texto := ""
		if req.Comentarios != nil {
			texto = *req.Comentarios
		}
		return repo.InsertComentario(ctx, Comentario{
			PeriodoID: periodoID,
			Autor:     actor.Nombre,
			Cargo:     actor.Cargo,
			Accion:    string(ev),
			Texto:     texto,
			Fecha:     ahora,
		})
	})
	if err != nil {
		if errors.Is(err, ErrEstadoCambiado) {
			return nil, err
		}
		s.logger.Error("envio de periodo", slog.Int64("periodo_id", periodoID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrEnvioFallido, err)
	}

	s.observar(ev, siguiente)
	s.invalidar(periodoID)
	return s.repo.GetDetalle(ctx, periodoID)
}

// IniciarRevision moves a submitted period under supervisor review. Review is
// advisory: aprobar/rechazar remain legal straight from the submitted states.
func (s *Service) IniciarRevision(ctx context.Context, periodoID int64, actor Actor, req RevisionRequest) (*ReportePeriodoDetalle, error) {
	return s.revision(ctx, periodoID, actor, EventoIniciarRevision, req)
}

// Aprobar closes the period successfully.
func (s *Service) Aprobar(ctx context.Context, periodoID int64, actor Actor, req RevisionRequest) (*ReportePeriodoDetalle, error) {
	return s.revision(ctx, periodoID, actor, EventoAprobar, req)
}

// Rechazar rejects the submission.
func (s *Service) Rechazar(ctx context.Context, periodoID int64, actor Actor, req RevisionRequest) (*ReportePeriodoDetalle, error) {
	return s.revision(ctx, periodoID, actor, EventoRechazar, req)
}

// SolicitarCorreccion sends the period back to the responsable.
func (s *Service) SolicitarCorreccion(ctx context.Context, periodoID int64, actor Actor, req RevisionRequest) (*ReportePeriodoDetalle, error) {
	return s.revision(ctx, periodoID, actor, EventoSolicitarCorreccion, req)
}

func (s *Service) revision(ctx context.Context, periodoID int64, actor Actor, ev Evento, req RevisionRequest) (*ReportePeriodoDetalle, error) {
	periodo, err := s.repo.Get(ctx, periodoID)
	if err != nil {
		return nil, err
	}
	ahora := s.now()
	siguiente, err := Transicionar(periodo.Estado, ev, actor.Rol, ahora, periodo.FechaVencimientoCalculada)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.ActualizarTransicion(ctx, periodoID, periodo.Estado, siguiente, nil, nil); err != nil {
			return err
		}
		texto := ""
		if req.Comentarios != nil {
			texto = *req.Comentarios
		}
		return repo.InsertComentario(ctx, Comentario{
			PeriodoID: periodoID,
			Autor:     actor.Nombre,
			Cargo:     actor.Cargo,
			Accion:    string(ev),
			Texto:     texto,
			Fecha:     ahora,
		})
	})
	if err != nil {
		s.logger.Error("revision de periodo", slog.Int64("periodo_id", periodoID), slog.String("evento", string(ev)), slog.Any("error", err))
		return nil, err
	}

	s.observar(ev, siguiente)
	s.invalidar(periodoID)
	return s.repo.GetDetalle(ctx, periodoID)
}

// MarcarVencido applies the clock-driven transition to vencido.
func (s *Service) MarcarVencido(ctx context.Context, periodoID int64) error {
	periodo, err := s.repo.Get(ctx, periodoID)
	if err != nil {
		return err
	}
	ahora := s.now()
	siguiente, err := Transicionar(periodo.Estado, EventoMarcarVencido, shared.RolSistema, ahora, periodo.FechaVencimientoCalculada)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.ActualizarTransicion(ctx, periodoID, periodo.Estado, siguiente, nil, nil); err != nil {
			return err
		}
		return repo.InsertComentario(ctx, Comentario{
			PeriodoID: periodoID,
			Autor:     "sistema",
			Cargo:     "reloj",
			Accion:    string(EventoMarcarVencido),
			Texto:     "plazo vencido sin envío",
			Fecha:     ahora,
		})
	})
	if err != nil {
		return err
	}
	s.observar(EventoMarcarVencido, siguiente)
	s.invalidar(periodoID)
	return nil
}

// MarcarVencidosHasta expires every overdue period still waiting for a
// submission. Returns how many periods transitioned.
func (s *Service) MarcarVencidosHasta(ctx context.Context, corte time.Time) (int, error) {
	vencibles, err := s.repo.ListVencibles(ctx, Medianoche(corte))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range vencibles {
		if err := s.MarcarVencido(ctx, p.PeriodoID); err != nil {
			var invalid *InvalidTransitionError
			if errors.As(err, &invalid) || errors.Is(err, ErrEstadoCambiado) {
				// Raced with a submission; the period is no longer expirable.
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Service) invalidar(periodoID int64) {
	if s.cache != nil {
		s.cache.Invalidate(CacheKeyDetalle(periodoID))
	}
}
