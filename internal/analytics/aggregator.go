package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

// CategoryTotals maps a category to its summed amount.
type CategoryTotals map[string]decimal.Decimal

// PeriodTotals holds monthly sums in chronological order.
type PeriodTotals []core.PeriodAmount

// PeriodCategoryMatrix is the dense month x category spend table. Rows follow
// Periods (chronological), columns follow Categories (sorted); missing pairs are zero.
type PeriodCategoryMatrix struct {
	Periods    []core.Period
	Categories []string
	Cells      [][]decimal.Decimal
}

// Aggregates bundles the three groupings of a transaction set.
type Aggregates struct {
	Categories CategoryTotals
	Periods    PeriodTotals
	Matrix     PeriodCategoryMatrix
}

// Aggregate groups transactions by category, by month and by both.
// Sums are exact; no rounding happens here.
func Aggregate(ts core.TransactionSet) Aggregates {
	byCategory := CategoryTotals{}
	byPeriod := map[core.Period]decimal.Decimal{}
	cells := map[core.Period]map[string]decimal.Decimal{}

	for _, t := range ts {
		p := t.Period()
		byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
		byPeriod[p] = byPeriod[p].Add(t.Amount)
		if cells[p] == nil {
			cells[p] = map[string]decimal.Decimal{}
		}
		cells[p][t.Category] = cells[p][t.Category].Add(t.Amount)
	}

	periods := make([]core.Period, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	totals := make(PeriodTotals, len(periods))
	matrix := PeriodCategoryMatrix{
		Periods:    periods,
		Categories: categories,
		Cells:      make([][]decimal.Decimal, len(periods)),
	}
	for i, p := range periods {
		totals[i] = core.PeriodAmount{Period: p, Amount: byPeriod[p]}
		row := make([]decimal.Decimal, len(categories))
		for j, c := range categories {
			row[j] = cells[p][c]
		}
		matrix.Cells[i] = row
	}

	return Aggregates{Categories: byCategory, Periods: totals, Matrix: matrix}
}

// Sorted lists categories by descending amount, ties broken by name.
func (ct CategoryTotals) Sorted() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(ct))
	for name, amount := range ct {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Total sums every category.
func (ct CategoryTotals) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range ct {
		total = total.Add(v)
	}
	return total
}

// Get returns the total of a month, zero when the month is absent.
func (pt PeriodTotals) Get(p core.Period) decimal.Decimal {
	for _, pa := range pt {
		if pa.Period == p {
			return pa.Amount
		}
	}
	return decimal.Zero
}

// Total sums every month.
func (pt PeriodTotals) Total() decimal.Decimal {
	total := decimal.Zero
	for _, pa := range pt {
		total = total.Add(pa.Amount)
	}
	return total
}

// Mean is the average monthly total, zero for an empty series.
func (pt PeriodTotals) Mean() decimal.Decimal {
	if len(pt) == 0 {
		return decimal.Zero
	}
	return pt.Total().Div(decimal.NewFromInt(int64(len(pt))))
}

// At returns the cell for a month and category, zero when either is absent.
func (m PeriodCategoryMatrix) At(p core.Period, category string) decimal.Decimal {
	row := -1
	for i, mp := range m.Periods {
		if mp == p {
			row = i
			break
		}
	}
	col := sort.SearchStrings(m.Categories, category)
	if row < 0 || col >= len(m.Categories) || m.Categories[col] != category {
		return decimal.Zero
	}
	return m.Cells[row][col]
}

// Total sums every cell.
func (m PeriodCategoryMatrix) Total() decimal.Decimal {
	total := decimal.Zero
	for _, row := range m.Cells {
		for _, v := range row {
			total = total.Add(v)
		}
	}
	return total
}

// Float64 converts the matrix into row-major float64 features.
func (m PeriodCategoryMatrix) Float64() [][]float64 {
	out := make([][]float64, len(m.Cells))
	for i, row := range m.Cells {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v.InexactFloat64()
		}
	}
	return out
}

// Row returns the cells of the i-th month.
func (m PeriodCategoryMatrix) Row(i int) []decimal.Decimal {
	return m.Cells[i]
}
