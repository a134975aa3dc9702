package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type User struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

type Record struct {
	ID          int64
	Owner       string
	Date        string
	Category    string
	Amount      string
	Description string
	CreatedAt   time.Time
}

type ReportMeta struct {
	ID        int64
	Owner     string
	Format    string
	Filename  string
	Size      int64
	CreatedAt time.Time
}

type Report struct {
	ReportMeta
	Data []byte
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)
`

type CreateUserParams struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.Username, arg.PasswordHash, arg.CreatedAt)
	return err
}

const getUser = `-- name: GetUser :one
SELECT username, password_hash, created_at FROM users WHERE username = ?
`

func (q *Queries) GetUser(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, username)
	var i User
	err := row.Scan(&i.Username, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const listUsernames = `-- name: ListUsernames :many
SELECT username FROM users ORDER BY username
`

func (q *Queries) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		items = append(items, username)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createRecord = `-- name: CreateRecord :one
INSERT INTO records (owner, date, category, amount, description, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateRecordParams struct {
	Owner       string
	Date        string
	Category    string
	Amount      string
	Description string
	CreatedAt   time.Time
}

func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRecord,
		arg.Owner,
		arg.Date,
		arg.Category,
		arg.Amount,
		arg.Description,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listRecordsByOwner = `-- name: ListRecordsByOwner :many
SELECT id, owner, date, category, amount, description, created_at
FROM records
WHERE owner = ?
ORDER BY id
`

func (q *Queries) ListRecordsByOwner(ctx context.Context, owner string) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, listRecordsByOwner, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Record
	for rows.Next() {
		var i Record
		if err := rows.Scan(
			&i.ID,
			&i.Owner,
			&i.Date,
			&i.Category,
			&i.Amount,
			&i.Description,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRecordsByOwner = `-- name: DeleteRecordsByOwner :execrows
DELETE FROM records WHERE owner = ?
`

func (q *Queries) DeleteRecordsByOwner(ctx context.Context, owner string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecordsByOwner, owner)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createReport = `-- name: CreateReport :one
INSERT INTO reports (owner, format, filename, size, data, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateReportParams struct {
	Owner     string
	Format    string
	Filename  string
	Size      int64
	Data      []byte
	CreatedAt time.Time
}

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createReport,
		arg.Owner,
		arg.Format,
		arg.Filename,
		arg.Size,
		arg.Data,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listReportsByOwner = `-- name: ListReportsByOwner :many
SELECT id, owner, format, filename, size, created_at
FROM reports
WHERE owner = ?
ORDER BY id DESC
`

func (q *Queries) ListReportsByOwner(ctx context.Context, owner string) ([]ReportMeta, error) {
	rows, err := q.db.QueryContext(ctx, listReportsByOwner, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportMeta
	for rows.Next() {
		var i ReportMeta
		if err := rows.Scan(
			&i.ID,
			&i.Owner,
			&i.Format,
			&i.Filename,
			&i.Size,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getReport = `-- name: GetReport :one
SELECT id, owner, format, filename, size, created_at, data
FROM reports
WHERE owner = ? AND id = ?
`

type GetReportParams struct {
	Owner string
	ID    int64
}

func (q *Queries) GetReport(ctx context.Context, arg GetReportParams) (Report, error) {
	row := q.db.QueryRowContext(ctx, getReport, arg.Owner, arg.ID)
	var i Report
	err := row.Scan(
		&i.ID,
		&i.Owner,
		&i.Format,
		&i.Filename,
		&i.Size,
		&i.CreatedAt,
		&i.Data,
	)
	return i, err
}
