package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func TestNormalize_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     core.RawTable
		empty   bool
		missing []string
	}{
		{"no columns", core.RawTable{}, true, nil},
		{"missing amount", core.RawTable{Columns: []string{"Date", "Category"}, Rows: [][]string{{"2026-01-01", "Food"}}}, false, []string{"amount"}},
		{"missing all", core.RawTable{Columns: []string{"Notes"}}, false, []string{"date", "category", "amount"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			var se *SchemaError
			require.True(t, errors.As(err, &se), "expected SchemaError, got %v", err)
			assert.Equal(t, tt.empty, se.Empty)
			assert.Equal(t, tt.missing, se.Missing)
		})
	}
}

func TestNormalize_DropsMalformedRows(t *testing.T) {
	raw := table(
		[]string{"2026-01-01", "Food", "20", "lunch"},
		[]string{"2026-01-02", "Food", "abc", ""},
		[]string{"2026-01-03", "Food", "-5", ""},
		[]string{"not a date", "Food", "10", ""},
		[]string{"2026-01-04", "  ", "10", ""},
		[]string{"2026-01-05", "Food"},
		[]string{"2026-01-06", " Transport ", "0", ""},
		[]string{"01/15/2026", " Rent ", "1,200.50", " flat "},
	)

	res, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "Food", res.Transactions[0].Category)
	assert.Equal(t, "lunch", res.Transactions[0].Description)
	assert.Equal(t, "Rent", res.Transactions[1].Category)
	assert.Equal(t, "flat", res.Transactions[1].Description)
	assert.True(t, res.Transactions[1].Amount.Equal(dec(t, "1200.50")))
	assert.Equal(t, period(t, "2026-01"), res.Transactions[1].Period())

	assert.Equal(t, []DroppedRow{
		{Row: 1, Reason: DropInvalidAmount},
		{Row: 2, Reason: DropNonPositiveAmount},
		{Row: 3, Reason: DropInvalidDate},
		{Row: 4, Reason: DropEmptyCategory},
		{Row: 5, Reason: DropShortRow},
		{Row: 6, Reason: DropNonPositiveAmount},
	}, res.Dropped)

	for _, tx := range res.Transactions {
		assert.True(t, tx.Amount.IsPositive())
		assert.NotEmpty(t, tx.Category)
	}
}

func TestNormalize_ColumnsWithoutRows(t *testing.T) {
	res, err := Normalize(table())
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Empty(t, res.Dropped)
}

func TestNormalize_DescriptionOptional(t *testing.T) {
	raw := core.RawTable{
		Columns: []string{"amount", "DATE", "category"},
		Rows:    [][]string{{"12,5", "2026-03-01", "Food"}},
	}
	res, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.True(t, res.Transactions[0].Amount.Equal(dec(t, "12.5")))
	assert.Empty(t, res.Transactions[0].Description)
}

func TestNormalize_AmbiguousCommaAmountDropped(t *testing.T) {
	res, err := Normalize(table(
		[]string{"2026-01-01", "Food", "1,234", ""},
		[]string{"2026-01-02", "Food", "1,234,567", ""},
		[]string{"2026-01-03", "Food", "1,234.00", ""},
		[]string{"2026-01-04", "Food", "12,50", ""},
	))
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	assert.True(t, res.Transactions[0].Amount.Equal(dec(t, "1234")))
	assert.True(t, res.Transactions[1].Amount.Equal(dec(t, "12.5")))
	assert.Equal(t, []DroppedRow{
		{Row: 0, Reason: DropInvalidAmount},
		{Row: 1, Reason: DropInvalidAmount},
	}, res.Dropped)
}
