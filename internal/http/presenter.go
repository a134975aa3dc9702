package http

import (
	"github.com/shopspring/decimal"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

type (
	analysisResponse struct {
		Status               analytics.Status         `json:"status"`
		Config               configView               `json:"config"`
		Transactions         int                      `json:"transactions"`
		Dropped              []analytics.DroppedRow   `json:"dropped"`
		Totals               totalsView               `json:"totals"`
		Matrix               matrixView               `json:"matrix"`
		SpendingTypes        *analytics.SpendingTypes `json:"spending_types,omitempty"`
		SpendingTypesSkipped string                   `json:"spending_types_skipped,omitempty"`
		Forecast             *analytics.Forecast      `json:"forecast,omitempty"`
		ForecastSkipped      string                   `json:"forecast_skipped,omitempty"`
		Insights             []analytics.Insight      `json:"insights"`
		Summary              analytics.Summary        `json:"summary"`
		Notices              []analytics.Notice       `json:"notices"`
	}

	configView struct {
		Clusters int                `json:"clusters"`
		Seed     int64              `json:"seed"`
		Indexing analytics.Indexing `json:"indexing"`
	}

	totalsView struct {
		Total      decimal.Decimal  `json:"total"`
		ByCategory []categoryAmount `json:"by_category"`
		ByPeriod   []periodAmount   `json:"by_period"`
	}

	categoryAmount struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	periodAmount struct {
		Period core.Period     `json:"period"`
		Amount decimal.Decimal `json:"amount"`
	}

	matrixView struct {
		Periods    []core.Period       `json:"periods"`
		Categories []string            `json:"categories"`
		Cells      [][]decimal.Decimal `json:"cells"`
	}

	insightsResponse struct {
		Status   analytics.Status    `json:"status"`
		Insights []analytics.Insight `json:"insights"`
	}
)

func presentAnalysis(res *analytics.Result) analysisResponse {
	agg := res.Aggregates
	out := analysisResponse{
		Status: res.Status(),
		Config: configView{
			Clusters: res.Config.Clusters.Count,
			Seed:     res.Config.Clusters.Seed,
			Indexing: res.Config.Indexing,
		},
		Transactions: len(res.Transactions),
		Dropped:      nonNil(res.Dropped),
		Totals: totalsView{
			Total:      agg.Categories.Total(),
			ByCategory: []categoryAmount{},
			ByPeriod:   []periodAmount{},
		},
		Matrix: matrixView{
			Periods:    nonNil(agg.Matrix.Periods),
			Categories: nonNil(agg.Matrix.Categories),
			Cells:      nonNil(agg.Matrix.Cells),
		},
		SpendingTypes: res.SpendingTypes,
		Forecast:      presentForecast(res.Forecast),
		Insights:      nonNil(res.Insights),
		Summary:       res.Summary,
		Notices:       nonNil(res.Notices),
	}
	if out.Summary.Top == nil {
		out.Summary.Top = []core.Transaction{}
	}
	for _, ca := range agg.Categories.Sorted() {
		out.Totals.ByCategory = append(out.Totals.ByCategory, categoryAmount{Category: ca.Name, Amount: ca.Amount})
	}
	for _, pa := range agg.Periods {
		out.Totals.ByPeriod = append(out.Totals.ByPeriod, periodAmount{Period: pa.Period, Amount: pa.Amount})
	}
	if res.ClusteringErr != nil {
		out.SpendingTypesSkipped = res.ClusteringErr.Error()
	}
	if res.ForecastErr != nil {
		out.ForecastSkipped = res.ForecastErr.Error()
	}
	return out
}

// presentForecast returns a copy with the prediction rounded to cents.
func presentForecast(f *analytics.Forecast) *analytics.Forecast {
	if f == nil {
		return nil
	}
	out := *f
	out.Predicted = core.RoundAmount(f.Predicted)
	return &out
}

func presentInsights(res *analytics.Result) insightsResponse {
	return insightsResponse{Status: res.Status(), Insights: nonNil(res.Insights)}
}

// nonNil keeps empty collections rendering as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
