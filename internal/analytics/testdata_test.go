package analytics

import (
	"testing"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

func table(rows ...[]string) core.RawTable {
	return core.RawTable{
		Columns: []string{"Date", "Category", "Amount", "Description"},
		Rows:    rows,
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func period(t *testing.T, s string) core.Period {
	t.Helper()
	p, err := core.ParsePeriod(s)
	if err != nil {
		t.Fatalf("period %q: %v", s, err)
	}
	return p
}

// scenarioTable is the three-row example used across the package tests.
func scenarioTable() core.RawTable {
	return table(
		[]string{"2026-01-01", "Food", "20", ""},
		[]string{"2026-01-02", "Transport", "15", ""},
		[]string{"2026-02-01", "Food", "30", ""},
	)
}
