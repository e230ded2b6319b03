package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/app"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/cache"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/db"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/reports"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/valuation"
	"github.com/omersalem/SuperMarketUnleashed-sub000/jobs"
)

func main() {
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	valuationRepo := valuation.NewRepository(pool)
	valuationService := valuation.NewService(valuationRepo)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsHandler := reports.NewHandler(logger, valuationService, reportCache)

	scanJob := jobs.NewReconcileScanJob(valuationRepo, logger)
	warmupJob := jobs.NewReportWarmupJob(reportsHandler, logger)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger)

	warmupTask, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcileScan, Handler: scanJob.Handle},
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewReconcileScanTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
			{Spec: "0 6 * * *", Task: warmupTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
			{Spec: "30 3 * * 0", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
