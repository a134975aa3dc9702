// Package cli provides common initialization utilities shared by
// cmd/spendlens, cmd/spendlens-worker and cmd/spendlens-cli.
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendlens/internal/analytics"
	"spendlens/internal/backend"
	"spendlens/internal/cache"
	"spendlens/internal/config"
	"spendlens/internal/log"
	"spendlens/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    log.Format(cfg.LogFormat),
		Component: component,
		Output:    os.Stdout,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// EnsureJWTSecret fills in a random secret when none is configured. Tokens
// signed with it do not survive a restart, which only suits the memory backend.
func EnsureJWTSecret(cfg *config.Config, logger *log.Logger) {
	if cfg.JWTSecret != "" {
		return
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logger.Error("Failed to generate JWT secret", log.FieldError, err)
		os.Exit(1)
	}
	cfg.JWTSecret = hex.EncodeToString(buf)
	logger.Warn("JWT_SECRET not set, using an ephemeral secret; tokens are invalidated on restart")
}

// InitBackend creates the configured record store.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// Services bundles the application services built on one backend.
type Services struct {
	Analysis *services.AnalysisService
	Records  *services.RecordService
	Reports  *services.ReportService

	results *cache.LRUCache[*analytics.Result]
	caches  *cache.Manager
}

// NewServices wires the services over be. publisher may be nil when no broker
// is configured. The result cache is swept every minute until Close.
func NewServices(cfg *config.Config, be backend.Backend, publisher services.Publisher, logger *log.Logger) *Services {
	results := cache.NewLRUCache[*analytics.Result](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register("analysis", results)
	caches.StartCleanup(time.Minute)

	analysis := services.NewAnalysisService(be, cache.NewLoader[*analytics.Result](results), cfg.Analytics(), logger)
	return &Services{
		Analysis: analysis,
		Records:  services.NewRecordService(be, analysis, logger),
		Reports:  services.NewReportService(analysis, be, publisher, logger),
		results:  results,
		caches:   caches,
	}
}

// CacheStats reports the analysis cache counters.
func (s *Services) CacheStats() cache.Stats {
	return s.results.Stats()
}

// Close stops the cache sweeper.
func (s *Services) Close() {
	s.caches.Stop()
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs with a timeout-bound context once the signal arrives, and done is
// closed after it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
