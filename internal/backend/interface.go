// Package backend opens the record store selected by DATA_BACKEND.
package backend

import (
	"context"

	"spendlens/internal/records"
)

// Backend is everything the services need from a store: records, accounts
// and persisted reports, all scoped by owner.
type Backend interface {
	records.RecordWriter
	records.RecordReader
	records.UserStore
	records.ReportStore
}

// Factory opens a Backend for a validated Config.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error)
}

// Config selects a store. SQLiteDBPath is only read for the sqlite type.
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// BackendType names a store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string { return string(bt) }

// IsValid reports whether bt names a store this package can open.
func (bt BackendType) IsValid() bool {
	return bt == MemoryBackend || bt == SQLiteBackend
}

// BackendResult is an opened store plus whatever releases it.
type BackendResult struct {
	Backend Backend
	// Cleanup is nil for stores holding no external resources.
	Cleanup func() error
}

// Ready pings stores that support it; the rest are always ready.
func (r *BackendResult) Ready(ctx context.Context) error {
	p, ok := r.Backend.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// Close releases the store. Safe on a nil result.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}
