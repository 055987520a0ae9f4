package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/reto-gober/regulatoria/internal/admin"
	"github.com/reto-gober/regulatoria/internal/app"
	"github.com/reto-gober/regulatoria/internal/auth"
	"github.com/reto-gober/regulatoria/internal/evidencias"
	"github.com/reto-gober/regulatoria/internal/observability"
	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/platform/cache"
	"github.com/reto-gober/regulatoria/internal/platform/db"
	"github.com/reto-gober/regulatoria/internal/shared"
	"github.com/reto-gober/regulatoria/jobs"
)

func newBlobStore(ctx context.Context, cfg *app.Config, logger *slog.Logger) (evidencias.BlobStore, error) {
	if cfg.StorageBackend == "s3" {
		logger.Info("using s3 blob store", slog.String("bucket", cfg.S3Bucket))
		return evidencias.NewS3Store(ctx, evidencias.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	}
	return evidencias.NewDiskStore(cfg.EvidenciasDir)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "regulatoria_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	roles := shared.RolMiddleware{Logger: logger}
	validate := validator.New()
	metrics := observability.NewMetrics()

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("init blob store", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, validate)

	periodosRepo := periodos.NewRepository(dbpool)
	periodosCache := cache.NewTTL(cfg.CacheTTL)
	periodosService := periodos.NewService(periodosRepo, periodosCache, logger).ConMetricas(metrics)
	periodosHandler := periodos.NewHandler(logger, periodosService, validate, roles)

	archivosRepo := evidencias.NewRepository(dbpool)
	archivosService := evidencias.NewService(archivosRepo, blobs, logger).ConVinculador(periodosRepo)
	archivosHandler := evidencias.NewHandler(logger, archivosService, roles)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	adminRepo := admin.NewRepository(dbpool)
	adminService := admin.NewService(adminRepo, periodosRepo, archivosService, jobsClient, periodosCache, logger).ConMetricas(metrics)
	adminQuery := admin.NewQueryService(adminRepo)
	adminHandler := admin.NewHandler(logger, adminService, adminQuery, validate, roles)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		Roles:             roles,
		AuthHandler:       authHandler,
		PeriodosHandler:   periodosHandler,
		EvidenciasHandler: archivosHandler,
		AdminHandler:      adminHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
