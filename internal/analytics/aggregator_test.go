package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Scenario(t *testing.T) {
	res, err := Normalize(scenarioTable())
	require.NoError(t, err)

	agg := Aggregate(res.Transactions)

	require.Len(t, agg.Categories, 2)
	assert.True(t, agg.Categories["Food"].Equal(dec(t, "50")))
	assert.True(t, agg.Categories["Transport"].Equal(dec(t, "15")))

	require.Len(t, agg.Periods, 2)
	assert.Equal(t, period(t, "2026-01"), agg.Periods[0].Period)
	assert.True(t, agg.Periods[0].Amount.Equal(dec(t, "35")))
	assert.Equal(t, period(t, "2026-02"), agg.Periods[1].Period)
	assert.True(t, agg.Periods[1].Amount.Equal(dec(t, "30")))

	assert.Equal(t, []string{"Food", "Transport"}, agg.Matrix.Categories)
	assert.True(t, agg.Matrix.At(period(t, "2026-02"), "Transport").IsZero())
	assert.True(t, agg.Matrix.At(period(t, "2026-01"), "Transport").Equal(dec(t, "15")))
	assert.True(t, agg.Matrix.At(period(t, "2026-03"), "Food").IsZero())
	assert.True(t, agg.Matrix.At(period(t, "2026-01"), "Rent").IsZero())
}

func TestAggregate_TotalsAgree(t *testing.T) {
	res, err := Normalize(table(
		[]string{"2025-11-03", "Food", "10.10", ""},
		[]string{"2026-01-09", "Rent", "800", ""},
		[]string{"2025-11-20", "Fun", "0.20", ""},
		[]string{"2026-01-10", "Food", "3.33", ""},
		[]string{"2025-12-01", "Food", "0.01", ""},
	))
	require.NoError(t, err)
	agg := Aggregate(res.Transactions)
	total := res.Transactions.Total()

	assert.True(t, agg.Categories.Total().Equal(total))
	assert.True(t, agg.Periods.Total().Equal(total))
	assert.True(t, agg.Matrix.Total().Equal(total))

	for i := 1; i < len(agg.Periods); i++ {
		assert.True(t, agg.Periods[i-1].Period.Before(agg.Periods[i].Period))
	}
	for i, p := range agg.Matrix.Periods {
		rowSum := decimal.Zero
		for _, v := range agg.Matrix.Row(i) {
			rowSum = rowSum.Add(v)
		}
		assert.True(t, rowSum.Equal(agg.Periods.Get(p)), "row %s", p)
	}
	assert.True(t, agg.Periods.Mean().Equal(total.Div(decimal.NewFromInt(3))))
}

func TestCategoryTotals_Sorted(t *testing.T) {
	ct := CategoryTotals{
		"b": decimal.NewFromInt(5),
		"a": decimal.NewFromInt(5),
		"c": decimal.NewFromInt(9),
	}
	sorted := ct.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "c", sorted[0].Name)
	assert.Equal(t, "a", sorted[1].Name)
	assert.Equal(t, "b", sorted[2].Name)
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	assert.Empty(t, agg.Categories)
	assert.Empty(t, agg.Periods)
	assert.Empty(t, agg.Matrix.Cells)
	assert.True(t, agg.Periods.Mean().IsZero())
}
