package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/auth"
	"spendlens/internal/cli"
	apphttp "spendlens/internal/http"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.EnsureJWTSecret(cfg, logger)

	be := cli.InitBackend(context.Background(), cfg, logger)
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	}()

	// Queued reports need a broker; synchronous downloads work without one.
	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, queued reports disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, queued reports unavailable")
	}

	svc := cli.NewServices(cfg, be.Backend, publisher, logger)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               auth.NewService(be.Backend, cfg.JWTSecret, cfg.TokenExpiry, logger),
		Records:            svc.Records,
		Analysis:           svc.Analysis,
		Reports:            svc.Reports,
		Ready:              be.Ready,
		CacheStats:         svc.CacheStats,
		Logger:             logger,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting spendlens server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
