package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsights_Scenario(t *testing.T) {
	res, err := Normalize(scenarioTable())
	require.NoError(t, err)
	agg := Aggregate(res.Transactions)

	got := Insights(agg, res.Transactions.Total(), 0.30)
	require.Len(t, got, 3)

	assert.Equal(t, InsightTopCategory, got[0].Kind)
	assert.Equal(t, "Food", got[0].Category)
	assert.InDelta(t, 76.92, got[0].Percent, 0.01)
	assert.Equal(t, "Top spending category: Food ($50.00, 76.9% of total)", got[0].Message)

	assert.Equal(t, InsightFastestGrowing, got[1].Kind)
	assert.Equal(t, "Food", got[1].Category)
	assert.InDelta(t, 50, got[1].Percent, 1e-9)

	assert.Equal(t, InsightHighSpending, got[2].Kind)
	assert.Equal(t, "Food", got[2].Category)
	assert.Equal(t, "High spending alert: Food - $50.00", got[2].Message)
}

func TestInsights_NewCategoryGrowsFromOne(t *testing.T) {
	res, err := Normalize(table(
		[]string{"2026-01-01", "Food", "40", ""},
		[]string{"2026-02-01", "Food", "40", ""},
		[]string{"2026-02-02", "Gifts", "3", ""},
	))
	require.NoError(t, err)
	agg := Aggregate(res.Transactions)

	got := Insights(agg, res.Transactions.Total(), 0.30)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, InsightFastestGrowing, got[1].Kind)
	assert.Equal(t, "Gifts", got[1].Category)
	assert.InDelta(t, 300, got[1].Percent, 1e-9)
}

func TestInsights_SinglePeriodHasNoGrowth(t *testing.T) {
	res, err := Normalize(table(
		[]string{"2026-01-01", "Food", "10", ""},
		[]string{"2026-01-02", "Rent", "10", ""},
		[]string{"2026-01-03", "Fun", "10", ""},
		[]string{"2026-01-04", "Travel", "10", ""},
	))
	require.NoError(t, err)
	agg := Aggregate(res.Transactions)

	got := Insights(agg, res.Transactions.Total(), 0.30)
	require.Len(t, got, 1)
	assert.Equal(t, InsightTopCategory, got[0].Kind)
	assert.Equal(t, "Food", got[0].Category)
}

func TestInsights_Empty(t *testing.T) {
	assert.Empty(t, Insights(Aggregate(nil), decimal.Zero, 0.30))
}
