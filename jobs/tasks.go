package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/reto-gober/regulatoria/internal/admin"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotificarOverride delivers override notices to the affected users.
	TaskNotificarOverride = "notificaciones:override"
	// TaskPeriodosVencidos sweeps overdue periods into estado vencido.
	TaskPeriodosVencidos = "periodos:vencidos"
)

// NewNotificarOverrideTask constructs the notification task for one override.
func NewNotificarOverrideTask(payload admin.OverrideNotificacion) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificarOverride, data), nil
}

// NewPeriodosVencidosTask constructs the overdue sweep task.
func NewPeriodosVencidosTask() *asynq.Task {
	return asynq.NewTask(TaskPeriodosVencidos, nil)
}

// HandleNotificarOverrideTask processes TaskNotificarOverride tasks.
func HandleNotificarOverrideTask(ctx context.Context, t *asynq.Task) error {
	var payload admin.OverrideNotificacion
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Delivery channel pending SMTP integration; the enqueue/consume path and
	// the audit trail are already in place.
	slog.Default().Info("override notificado",
		slog.Int64("action_id", payload.ActionID),
		slog.Int64("periodo_id", payload.PeriodoID),
		slog.Bool("supervisor", payload.NotificarSupervisor),
		slog.Bool("responsable", payload.NotificarResponsable))
	return nil
}
