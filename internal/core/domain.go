package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names of a raw expense table.
const (
	ColumnDate        = "date"
	ColumnCategory    = "category"
	ColumnAmount      = "amount"
	ColumnDescription = "description"
)

// RequiredColumns lists the columns every raw table must carry.
var RequiredColumns = []string{ColumnDate, ColumnCategory, ColumnAmount}

type (
	// RawTable is an untyped record sequence as it arrives from an upload,
	// a manual form or a persisted store. Values are kept verbatim.
	RawTable struct {
		Columns []string
		Rows    [][]string
	}

	// Transaction is one cleaned expense.
	Transaction struct {
		Date        time.Time       `json:"date"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description,omitempty"`
	}

	// TransactionSet is an ordered sequence of transactions. Order carries no
	// meaning downstream.
	TransactionSet []Transaction

	// Record is a raw row persisted for an owner.
	Record struct {
		ID          int64     `json:"id"`
		Owner       string    `json:"owner"`
		Date        string    `json:"date"`
		Category    string    `json:"category"`
		Amount      string    `json:"amount"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrDescriptionLimit = errors.New("description too long (max 200 characters)")
)

// Period returns the month the transaction belongs to.
func (t Transaction) Period() Period {
	return PeriodOf(t.Date)
}

// Total sums every amount of the set.
func (ts TransactionSet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range ts {
		total = total.Add(t.Amount)
	}
	return total
}

// Index returns the position of a column, matching case-insensitively.
// It returns -1 when the column is absent.
func (rt RawTable) Index(column string) int {
	for i, c := range rt.Columns {
		if strings.EqualFold(strings.TrimSpace(c), column) {
			return i
		}
	}
	return -1
}

// MissingColumns reports which required columns the table lacks.
func (rt RawTable) MissingColumns() []string {
	var missing []string
	for _, c := range RequiredColumns {
		if rt.Index(c) == -1 {
			missing = append(missing, c)
		}
	}
	return missing
}

// Validate checks a record the way the manual entry form does: the
// date and amount must parse, the amount must be positive and the
// category must be present.
func (r Record) Validate() error {
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	if _, err := ParsePositiveAmount(r.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if len(r.Description) > 200 {
		return ErrDescriptionLimit
	}
	return nil
}

// RecordsTable turns persisted records into a raw table with the canonical
// column set.
func RecordsTable(records []Record) RawTable {
	rt := RawTable{
		Columns: []string{ColumnDate, ColumnCategory, ColumnAmount, ColumnDescription},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, r := range records {
		rt.Rows = append(rt.Rows, []string{r.Date, r.Category, r.Amount, r.Description})
	}
	return rt
}

// TableRecords extracts records from a raw table for an owner. The table
// must contain the required columns; rows are copied verbatim.
func TableRecords(owner string, rt RawTable) ([]Record, error) {
	if missing := rt.MissingColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	di, ci, ai := rt.Index(ColumnDate), rt.Index(ColumnCategory), rt.Index(ColumnAmount)
	desc := rt.Index(ColumnDescription)

	out := make([]Record, 0, len(rt.Rows))
	for _, row := range rt.Rows {
		out = append(out, Record{
			Owner:       owner,
			Date:        cell(row, di),
			Category:    cell(row, ci),
			Amount:      cell(row, ai),
			Description: cell(row, desc),
		})
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
