package analytics

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"spendlens/internal/core"
)

// Forecast is a one-step-ahead linear projection of monthly spend. Predicted
// is unrounded; display code rounds it.
type Forecast struct {
	NextIndex  int             `json:"next_index"`
	Predicted  decimal.Decimal `json:"predicted"`
	Intercept  float64         `json:"intercept"`
	Slope      float64         `json:"slope"`
	NextPeriod core.Period     `json:"next_period"`
	Indexing   Indexing        `json:"indexing"`
}

// ForecastNext fits an ordinary least squares line through the monthly
// totals and evaluates it one index past the last month.
//
// With IndexSequential the months are numbered 1..n in order, so a gap of
// several calendar months counts as one step. IndexCalendar numbers them by
// months elapsed since the first one.
func ForecastNext(pt PeriodTotals, indexing Indexing) (Forecast, error) {
	if len(pt) < 2 {
		return Forecast{}, ErrInsufficientData
	}
	if indexing == "" {
		indexing = IndexSequential
	}

	xs := make([]float64, len(pt))
	ys := make([]float64, len(pt))
	first := pt[0].Period
	for i, pa := range pt {
		switch indexing {
		case IndexCalendar:
			xs[i] = float64(first.MonthsUntil(pa.Period) + 1)
		default:
			xs[i] = float64(i + 1)
		}
		ys[i] = pa.Amount.InexactFloat64()
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	next := int(xs[len(xs)-1]) + 1

	return Forecast{
		NextIndex:  next,
		Predicted:  decimal.NewFromFloat(alpha + beta*float64(next)),
		Intercept:  alpha,
		Slope:      beta,
		NextPeriod: pt[len(pt)-1].Period.Next(),
		Indexing:   indexing,
	}, nil
}
