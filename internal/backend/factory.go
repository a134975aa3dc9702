package backend

import (
	"context"
	"fmt"

	"spendlens/internal/log"
	"spendlens/internal/records/memory"
	"spendlens/internal/storage"
)

// DefaultFactory builds the memory and sqlite record stores.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory returns a Factory that logs under the backend component.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend validates cfg and opens the matching store.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Type == SQLiteBackend {
		return f.openSQLite(ctx, cfg.SQLiteDBPath)
	}
	f.logger.Info("Using in-memory record store; records and accounts vanish on restart")
	return &BackendResult{Backend: memory.New()}, nil
}

func (f *DefaultFactory) openSQLite(ctx context.Context, path string) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite record store: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("sqlite record store unreachable: %w", err)
	}

	version, _, err := storage.SchemaVersion(path)
	if err != nil {
		f.logger.Warn("Could not read schema version", log.FieldError, err)
	}
	f.logger.Info("Using sqlite record store", "db_path", path, "schema_version", version)

	return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil
}
