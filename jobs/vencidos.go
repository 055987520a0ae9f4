package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/reto-gober/regulatoria/internal/observability"
	"github.com/reto-gober/regulatoria/internal/periodos"
)

// VencidosJob expires every period whose deadline passed without a submission.
// Scheduled daily just after midnight; safe to run more often, periods already
// expired or already submitted are skipped.
type VencidosJob struct {
	Service *periodos.Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewVencidosJob initialises the overdue sweep handler.
func NewVencidosJob(service *periodos.Service, logger *slog.Logger, metrics *observability.Metrics) *VencidosJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &VencidosJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now()
		},
	}
}

// Handle executes the sweep.
func (j *VencidosJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("periodos vencidos: handler not configured")
	}
	corte := j.clock()
	count, err := j.Service.MarcarVencidosHasta(ctx, corte)
	if err != nil {
		j.Logger.Error("marcar vencidos", slog.Any("error", err))
		return err
	}
	j.Metrics.ObservarVencidos(count)
	j.Logger.Info("periodos vencidos",
		slog.Time("corte", corte),
		slog.Int("marcados", count))
	return nil
}
