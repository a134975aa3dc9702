package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

const topExpenses = 5

// Summary holds the headline figures of the dashboard.
type Summary struct {
	Total       decimal.Decimal    `json:"total"`
	Count       int                `json:"count"`
	MeanExpense decimal.Decimal    `json:"mean_expense"`
	MeanMonthly decimal.Decimal    `json:"mean_monthly"`
	Largest     decimal.Decimal    `json:"largest"`
	Categories  int                `json:"categories"`
	Top         []core.Transaction `json:"top"`
}

// Summarize computes the headline figures. Top lists the five largest
// transactions, earlier dates first on equal amounts.
func Summarize(ts core.TransactionSet, pt PeriodTotals) Summary {
	s := Summary{
		Total:       ts.Total(),
		Count:       len(ts),
		MeanExpense: decimal.Zero,
		MeanMonthly: pt.Mean(),
		Largest:     decimal.Zero,
	}
	if len(ts) == 0 {
		return s
	}
	s.MeanExpense = s.Total.Div(decimal.NewFromInt(int64(len(ts))))

	categories := map[string]struct{}{}
	for _, t := range ts {
		categories[t.Category] = struct{}{}
		if t.Amount.GreaterThan(s.Largest) {
			s.Largest = t.Amount
		}
	}
	s.Categories = len(categories)

	sorted := append(core.TransactionSet(nil), ts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Amount.Cmp(sorted[j].Amount); c != 0 {
			return c > 0
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	s.Top = sorted[:min(topExpenses, len(sorted))]
	return s
}
