package analytics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClusteringSkipped is recorded when fewer than two periods exist.
	ErrClusteringSkipped = errors.New("clustering skipped: fewer than 2 periods")
	// ErrInsufficientData is recorded when the forecast has fewer than two periods to fit.
	ErrInsufficientData = errors.New("insufficient data: fewer than 2 periods to forecast")
)

// SchemaError rejects a raw table before any row is processed.
type SchemaError struct {
	Empty   bool
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Empty {
		return "schema error: input has no columns"
	}
	return fmt.Sprintf("schema error: missing required columns: %s", strings.Join(e.Missing, ", "))
}

// DropReason explains why a raw row did not become a transaction.
type DropReason string

const (
	DropInvalidDate       DropReason = "invalid_date"
	DropInvalidAmount     DropReason = "invalid_amount"
	DropNonPositiveAmount DropReason = "non_positive_amount"
	DropEmptyCategory     DropReason = "empty_category"
	DropShortRow          DropReason = "short_row"
)

// DroppedRow identifies a data row (0-based, header excluded) excluded from analysis.
type DroppedRow struct {
	Row    int        `json:"row"`
	Reason DropReason `json:"reason"`
}
