package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/reto-gober/regulatoria/internal/app"
	"github.com/reto-gober/regulatoria/internal/observability"
	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/platform/db"
	"github.com/reto-gober/regulatoria/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	periodosRepo := periodos.NewRepository(pool)
	// No cache here: the detail cache is in-process in the API server, so an
	// instance built in the worker would invalidate entries nobody reads.
	// API readers see a swept period after at most CACHE_TTL.
	periodosService := periodos.NewService(periodosRepo, nil, logger).ConMetricas(metrics)
	vencidosJob := jobs.NewVencidosJob(periodosService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPeriodosVencidos, Handler: vencidosJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.VencidosCron, Task: jobs.NewPeriodosVencidosTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
