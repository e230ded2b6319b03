package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/app"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/checkflow"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/ledger"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/masterdata"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/cache"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/platform/db"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/reports"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/shared"
	"github.com/omersalem/SuperMarketUnleashed-sub000/internal/valuation"
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
		logger.Warn("redis unavailable, reports served uncached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	mdRepo := masterdata.NewRepository(pool)
	mdService := masterdata.NewService(mdRepo)

	ledgerRepo := ledger.NewRepository(pool)
	idemStore := shared.NewIdempotencyStore(pool)
	ledgerService := ledger.NewService(ledgerRepo, mdService, mdService, idemStore)

	valuationRepo := valuation.NewRepository(pool)
	valuationService := valuation.NewService(valuationRepo)

	flowRegistry := checkflow.NewRegistry(ledger.PaymentMethod(cfg.DefaultPaymentMethod), referencePort{mdService})
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		LedgerHandler:     ledger.NewHandler(logger, ledgerService, flowRegistry),
		MasterDataHandler: masterdata.NewHandler(logger, mdService),
		CheckFlowHandler:  checkflow.NewHandler(logger, flowRegistry),
		ReportsHandler:    reports.NewHandler(logger, valuationService, reportCache),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// referencePort adapts the masterdata service to the checkflow port,
// which only needs existence, not the created records.
type referencePort struct {
	md *masterdata.Service
}

func (p referencePort) EnsureBank(ctx context.Context, name string) error {
	_, err := p.md.EnsureBank(ctx, name)
	return err
}

func (p referencePort) EnsureCurrency(ctx context.Context, code string) error {
	_, err := p.md.EnsureCurrency(ctx, code)
	return err
}
