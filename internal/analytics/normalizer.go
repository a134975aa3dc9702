package analytics

import (
	"strings"

	"spendlens/internal/core"
)

// NormalizeResult is the cleaned transaction table plus the rows left behind.
type NormalizeResult struct {
	Transactions core.TransactionSet
	Dropped      []DroppedRow
}

// Normalize validates the raw table schema and coerces every row into a
// transaction. Rows that fail coercion are excluded and reported in Dropped;
// only a missing or column-less table, or one missing a required column,
// fails the call.
func Normalize(raw core.RawTable) (NormalizeResult, error) {
	if len(raw.Columns) == 0 {
		return NormalizeResult{}, &SchemaError{Empty: true}
	}
	if missing := raw.MissingColumns(); len(missing) > 0 {
		return NormalizeResult{}, &SchemaError{Missing: missing}
	}

	di := raw.Index(core.ColumnDate)
	ci := raw.Index(core.ColumnCategory)
	ai := raw.Index(core.ColumnAmount)
	desc := raw.Index(core.ColumnDescription)
	need := max(di, ci, ai)

	out := NormalizeResult{Transactions: make(core.TransactionSet, 0, len(raw.Rows))}
	for i, row := range raw.Rows {
		if len(row) <= need {
			out.Dropped = append(out.Dropped, DroppedRow{Row: i, Reason: DropShortRow})
			continue
		}
		date, err := core.ParseDate(row[di])
		if err != nil {
			out.Dropped = append(out.Dropped, DroppedRow{Row: i, Reason: DropInvalidDate})
			continue
		}
		amount, err := core.ParseAmount(row[ai])
		if err != nil {
			out.Dropped = append(out.Dropped, DroppedRow{Row: i, Reason: DropInvalidAmount})
			continue
		}
		if !amount.IsPositive() {
			out.Dropped = append(out.Dropped, DroppedRow{Row: i, Reason: DropNonPositiveAmount})
			continue
		}
		category := strings.TrimSpace(row[ci])
		if category == "" {
			out.Dropped = append(out.Dropped, DroppedRow{Row: i, Reason: DropEmptyCategory})
			continue
		}
		var description string
		if desc >= 0 && desc < len(row) {
			description = strings.TrimSpace(row[desc])
		}
		out.Transactions = append(out.Transactions, core.Transaction{
			Date:        date,
			Category:    category,
			Amount:      amount,
			Description: description,
		})
	}
	return out, nil
}
