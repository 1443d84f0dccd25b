package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/projection"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	bucketer := report.Bucketer{CutoffDay: cfg.BillingCutoffDay}
	opts := projection.DefaultOptions()
	opts.HorizonMonths = cfg.ProjectionHorizonMonths

	svc := apphttp.Services{
		Flows: services.NewFlowService(result.Store, bucketer, logger),
		Debts: services.NewDebtService(result.Store, result.Publisher, services.DebtServiceConfig{
			Projection: opts,
			CacheSize:  cfg.ProjectionCacheSize,
			CacheTTL:   cfg.ProjectionCacheTTL,
		}, logger),
		Reports: services.NewReportService(result.Store, bucketer, nil, logger),
		Store:   result.Store,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitRPM: cfg.RateLimitRPM,
		Logger:       logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"billing_cutoff_day", cfg.BillingCutoffDay)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
