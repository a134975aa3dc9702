package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"spendlens/internal/core"
	"spendlens/internal/records"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers, used by readiness checks
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AppendRecords implements records.RecordWriter. All rows are written in a
// single transaction.
func (r *SQLiteRepository) AppendRecords(ctx context.Context, owner string, rs []core.Record) ([]core.Record, error) {
	if owner == "" {
		return nil, fmt.Errorf("append records: empty owner")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	now := r.now().UTC()
	stored := make([]core.Record, 0, len(rs))
	for _, rec := range rs {
		created := rec.CreatedAt
		if created.IsZero() {
			created = now
		}
		id, err := q.CreateRecord(ctx, CreateRecordParams{
			Owner:       owner,
			Date:        rec.Date,
			Category:    rec.Category,
			Amount:      rec.Amount,
			Description: rec.Description,
			CreatedAt:   created,
		})
		if err != nil {
			return nil, fmt.Errorf("create record: %w", err)
		}
		rec.ID, rec.Owner, rec.CreatedAt = id, owner, created
		stored = append(stored, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit records: %w", err)
	}

	slog.InfoContext(ctx, "Records saved to SQLite", "owner", owner, "rows", len(stored))
	return stored, nil
}

// ClearRecords implements records.RecordWriter
func (r *SQLiteRepository) ClearRecords(ctx context.Context, owner string) (int64, error) {
	n, err := r.queries.DeleteRecordsByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	slog.InfoContext(ctx, "Records cleared", "owner", owner, "rows", n)
	return n, nil
}

// ListRecords implements records.RecordReader
func (r *SQLiteRepository) ListRecords(ctx context.Context, owner string) ([]core.Record, error) {
	dbRecords, err := r.queries.ListRecordsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]core.Record, len(dbRecords))
	for i, rec := range dbRecords {
		out[i] = core.Record{
			ID:          rec.ID,
			Owner:       rec.Owner,
			Date:        rec.Date,
			Category:    rec.Category,
			Amount:      rec.Amount,
			Description: rec.Description,
			CreatedAt:   rec.CreatedAt,
		}
	}
	return out, nil
}

// CreateUser implements records.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u records.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = r.now().UTC()
	}
	err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    created,
	})
	if isConstraintViolation(err) {
		return fmt.Errorf("create user %s: %w", u.Username, records.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser implements records.UserStore
func (r *SQLiteRepository) GetUser(ctx context.Context, username string) (records.User, error) {
	u, err := r.queries.GetUser(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return records.User{}, fmt.Errorf("get user %s: %w", username, records.ErrNotFound)
	}
	if err != nil {
		return records.User{}, fmt.Errorf("get user: %w", err)
	}
	return records.User{Username: u.Username, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}, nil
}

// ListUsernames implements records.UserStore
func (r *SQLiteRepository) ListUsernames(ctx context.Context) ([]string, error) {
	names, err := r.queries.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return names, nil
}

// SaveReport implements records.ReportStore
func (r *SQLiteRepository) SaveReport(ctx context.Context, rep records.Report) (int64, error) {
	created := rep.CreatedAt
	if created.IsZero() {
		created = r.now().UTC()
	}
	id, err := r.queries.CreateReport(ctx, CreateReportParams{
		Owner:     rep.Owner,
		Format:    rep.Format,
		Filename:  rep.Filename,
		Size:      rep.Size,
		Data:      rep.Data,
		CreatedAt: created,
	})
	if err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}

	slog.InfoContext(ctx, "Report saved to SQLite", "id", id, "owner", rep.Owner, "format", rep.Format, "bytes", len(rep.Data))
	return id, nil
}

// ListReports implements records.ReportStore
func (r *SQLiteRepository) ListReports(ctx context.Context, owner string) ([]records.Report, error) {
	metas, err := r.queries.ListReportsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]records.Report, len(metas))
	for i, m := range metas {
		out[i] = reportFromMeta(m)
	}
	return out, nil
}

// GetReport implements records.ReportStore
func (r *SQLiteRepository) GetReport(ctx context.Context, owner string, id int64) (records.Report, error) {
	rep, err := r.queries.GetReport(ctx, GetReportParams{Owner: owner, ID: id})
	if errors.Is(err, sql.ErrNoRows) {
		return records.Report{}, fmt.Errorf("get report %d: %w", id, records.ErrNotFound)
	}
	if err != nil {
		return records.Report{}, fmt.Errorf("get report: %w", err)
	}
	out := reportFromMeta(rep.ReportMeta)
	out.Data = rep.Data
	return out, nil
}

func reportFromMeta(m ReportMeta) records.Report {
	return records.Report{
		ID:        m.ID,
		Owner:     m.Owner,
		Format:    m.Format,
		Filename:  m.Filename,
		Size:      m.Size,
		CreatedAt: m.CreatedAt,
	}
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
