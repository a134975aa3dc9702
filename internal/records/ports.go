package records

import (
	"context"
	"errors"
	"time"

	"spendlens/internal/core"
)

var (
	// ErrNotFound is returned when a user or report does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

type (
	// User is an account able to own records.
	User struct {
		Username     string
		PasswordHash []byte
		CreatedAt    time.Time
	}

	// Report is a rendered, compressed export kept for later download.
	Report struct {
		ID        int64     `json:"id"`
		Owner     string    `json:"owner"`
		Format    string    `json:"format"`
		Filename  string    `json:"filename"`
		Size      int64     `json:"size"`
		CreatedAt time.Time `json:"created_at"`
		Data      []byte    `json:"-"`
	}
)

// Ports for outbound adapters.
type (
	RecordWriter interface {
		// AppendRecords stores raw rows for an owner and returns them as stored,
		// with ID, Owner and CreatedAt filled in.
		AppendRecords(ctx context.Context, owner string, rs []core.Record) ([]core.Record, error)
		// ClearRecords removes every row of an owner.
		ClearRecords(ctx context.Context, owner string) (int64, error)
	}

	RecordReader interface {
		// ListRecords returns an owner's rows in insertion order.
		ListRecords(ctx context.Context, owner string) ([]core.Record, error)
	}

	UserStore interface {
		// CreateUser fails with ErrConflict when the username is taken.
		CreateUser(ctx context.Context, u User) error
		// GetUser fails with ErrNotFound for unknown usernames.
		GetUser(ctx context.Context, username string) (User, error)
		// ListUsernames returns every registered username, sorted.
		ListUsernames(ctx context.Context) ([]string, error)
	}

	ReportStore interface {
		SaveReport(ctx context.Context, r Report) (int64, error)
		// ListReports returns metadata only; Data is left empty.
		ListReports(ctx context.Context, owner string) ([]Report, error)
		GetReport(ctx context.Context, owner string, id int64) (Report, error)
	}
)
