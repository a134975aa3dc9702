package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/ingest"
	"spendlens/internal/log"
	"spendlens/internal/records"
)

// RecordStore is the subset of the backend the record service needs.
type RecordStore interface {
	records.RecordWriter
	records.RecordReader
}

// ValidationError wraps a rejected manual entry.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid record: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RecordService manages the raw rows an owner analyses.
type RecordService struct {
	store       RecordStore
	invalidator ResultInvalidator
	logger      *log.Logger
}

// NewRecordService creates the service. invalidator may be nil.
func NewRecordService(store RecordStore, invalidator ResultInvalidator, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		store:       store,
		invalidator: invalidator,
		logger:      logger.WithComponent(log.ComponentRecords),
	}
}

// List returns the owner's rows in insertion order.
func (s *RecordService) List(ctx context.Context, owner string) ([]core.Record, error) {
	rs, err := s.store.ListRecords(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return rs, nil
}

// Add stores one manually entered expense. Unlike uploads, manual entries
// are validated strictly.
func (s *RecordService) Add(ctx context.Context, owner string, r core.Record) (core.Record, error) {
	r.Owner = owner
	r.Date = strings.TrimSpace(r.Date)
	r.Category = strings.TrimSpace(r.Category)
	r.Amount = strings.TrimSpace(r.Amount)
	r.Description = strings.TrimSpace(r.Description)
	if err := r.Validate(); err != nil {
		return core.Record{}, &ValidationError{Err: err}
	}

	stored, err := s.store.AppendRecords(ctx, owner, []core.Record{r})
	if err != nil {
		return core.Record{}, fmt.Errorf("append record: %w", err)
	}
	if len(stored) != 1 {
		return core.Record{}, fmt.Errorf("append record: store returned %d rows", len(stored))
	}
	s.invalidate(owner)

	s.logger.InfoContext(ctx, "Record added",
		log.FieldOwner, owner,
		log.FieldOperation, log.OpCreate,
		"category", r.Category)
	return stored[0], nil
}

// Import appends every row of a raw table verbatim. Malformed rows are kept
// and surface later as dropped rows of the analysis; only the schema is checked.
func (s *RecordService) Import(ctx context.Context, owner string, raw core.RawTable) (int, error) {
	if len(raw.Columns) == 0 {
		return 0, &analytics.SchemaError{Empty: true}
	}
	if missing := raw.MissingColumns(); len(missing) > 0 {
		return 0, &analytics.SchemaError{Missing: missing}
	}

	rs, err := core.TableRecords(owner, raw)
	if err != nil {
		return 0, err
	}
	if len(rs) == 0 {
		return 0, nil
	}

	stored, err := s.store.AppendRecords(ctx, owner, rs)
	if err != nil {
		return 0, fmt.Errorf("append records: %w", err)
	}
	n := len(stored)
	s.invalidate(owner)

	s.logger.InfoContext(ctx, "Records imported",
		log.FieldOwner, owner,
		log.FieldOperation, log.OpImport,
		log.FieldRows, n)
	return n, nil
}

// ImportCSV reads a CSV upload and imports it.
func (s *RecordService) ImportCSV(ctx context.Context, owner string, r io.Reader) (int, error) {
	raw, err := ingest.ReadCSV(r)
	if err != nil {
		return 0, err
	}
	return s.Import(ctx, owner, raw)
}

// Clear removes every row of the owner.
func (s *RecordService) Clear(ctx context.Context, owner string) (int64, error) {
	n, err := s.store.ClearRecords(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	s.invalidate(owner)

	s.logger.InfoContext(ctx, "Records cleared",
		log.FieldOwner, owner,
		log.FieldOperation, log.OpDelete,
		log.FieldRows, n)
	return n, nil
}

func (s *RecordService) invalidate(owner string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}
}
