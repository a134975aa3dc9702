package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
)

// InsightKind classifies a generated recommendation.
type InsightKind string

const (
	InsightTopCategory    InsightKind = "top_category"
	InsightFastestGrowing InsightKind = "fastest_growing"
	InsightHighSpending   InsightKind = "high_spending"
)

// Insight is a single human-readable finding about the spending data.
type Insight struct {
	Kind     InsightKind     `json:"kind"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  float64         `json:"percent"`
	Message  string          `json:"message"`
}

var hundred = decimal.NewFromInt(100)

// Insights derives the top category, the fastest growing category between
// the last two months and every category above the high share threshold.
// An empty or zero-total aggregate yields no insights.
func Insights(agg Aggregates, total decimal.Decimal, threshold float64) []Insight {
	var out []Insight
	if len(agg.Categories) == 0 || !total.IsPositive() {
		return out
	}

	sorted := agg.Categories.Sorted()
	top := sorted[0]
	share := top.Amount.Div(total).Mul(hundred).InexactFloat64()
	out = append(out, Insight{
		Kind:     InsightTopCategory,
		Category: top.Name,
		Amount:   top.Amount,
		Percent:  share,
		Message: fmt.Sprintf("Top spending category: %s ($%s, %.1f%% of total)",
			top.Name, core.FormatAmount(top.Amount), share),
	})

	if g, ok := fastestGrowing(agg.Matrix); ok {
		out = append(out, g)
	}

	limit := total.Mul(decimal.NewFromFloat(threshold))
	for _, ca := range sorted {
		if ca.Amount.GreaterThan(limit) {
			out = append(out, Insight{
				Kind:     InsightHighSpending,
				Category: ca.Name,
				Amount:   ca.Amount,
				Percent:  ca.Amount.Div(total).Mul(hundred).InexactFloat64(),
				Message:  fmt.Sprintf("High spending alert: %s - $%s", ca.Name, core.FormatAmount(ca.Amount)),
			})
		}
	}
	return out
}

// fastestGrowing compares the last two matrix rows. A previous amount of zero
// is treated as one so a category that just appeared still ranks.
func fastestGrowing(m PeriodCategoryMatrix) (Insight, bool) {
	n := len(m.Periods)
	if n < 2 || len(m.Categories) == 0 {
		return Insight{}, false
	}
	last, prev := m.Cells[n-1], m.Cells[n-2]

	best := -1
	var bestPct decimal.Decimal
	for j := range m.Categories {
		base := prev[j]
		if base.IsZero() {
			base = decimal.NewFromInt(1)
		}
		pct := last[j].Sub(prev[j]).Div(base).Mul(hundred)
		if best < 0 || pct.GreaterThan(bestPct) {
			best, bestPct = j, pct
		}
	}

	pct := bestPct.InexactFloat64()
	return Insight{
		Kind:     InsightFastestGrowing,
		Category: m.Categories[best],
		Amount:   last[best],
		Percent:  pct,
		Message:  fmt.Sprintf("Fastest growing category this month: %s (%.1f%% increase)", m.Categories[best], pct),
	}, true
}
