package analytics

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func matrix(t *testing.T, periods []string, categories []string, cells [][]int64) PeriodCategoryMatrix {
	t.Helper()
	m := PeriodCategoryMatrix{Categories: categories}
	for i, p := range periods {
		m.Periods = append(m.Periods, period(t, p))
		row := make([]decimal.Decimal, len(categories))
		for j := range categories {
			row[j] = decimal.NewFromInt(cells[i][j])
		}
		m.Cells = append(m.Cells, row)
	}
	return m
}

func twoGroups(t *testing.T) PeriodCategoryMatrix {
	return matrix(t,
		[]string{"2026-01", "2026-02", "2026-03", "2026-04", "2026-05", "2026-06"},
		[]string{"Food", "Transport"},
		[][]int64{
			{100, 10},
			{110, 12},
			{10, 100},
			{12, 105},
			{105, 11},
			{11, 98},
		})
}

func TestStandardize(t *testing.T) {
	x := [][]float64{
		{1, 5, 0.1},
		{2, 5, 0.1},
		{3, 5, 0.1},
		{10, 5, 0.1},
	}
	z := Standardize(x)
	require.Len(t, z, 4)

	col := make([]float64, len(z))
	for i := range z {
		col[i] = z[i][0]
	}
	mean, std := stat.PopMeanStdDev(col, nil)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-9)

	for i := range z {
		assert.Zero(t, z[i][1], "constant column must be zero")
		assert.Zero(t, z[i][2], "constant column must be zero")
	}
	for _, row := range z {
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestClassify_SkipsSinglePeriod(t *testing.T) {
	m := matrix(t, []string{"2026-01"}, []string{"Food"}, [][]int64{{20}})
	_, err := Classify(m, DefaultConfig().Clusters)
	assert.True(t, errors.Is(err, ErrClusteringSkipped))

	_, err = Classify(PeriodCategoryMatrix{}, DefaultConfig().Clusters)
	assert.True(t, errors.Is(err, ErrClusteringSkipped))
}

func TestClassify_SeparatesGroups(t *testing.T) {
	cfg := DefaultConfig().Clusters
	cfg.Count = 2

	st, err := Classify(twoGroups(t), cfg)
	require.NoError(t, err)

	require.Len(t, st.Labels, 6)
	assert.Equal(t, 2, st.EffectiveK)
	assert.False(t, st.Reduced)
	assert.Equal(t, st.Labels[0], st.Labels[1])
	assert.Equal(t, st.Labels[0], st.Labels[4])
	assert.Equal(t, st.Labels[2], st.Labels[3])
	assert.Equal(t, st.Labels[2], st.Labels[5])
	assert.NotEqual(t, st.Labels[0], st.Labels[2])
	assert.Len(t, st.Centroids, 2)

	assignments := st.Assignments()
	assert.Len(t, assignments, 6)
	l, ok := st.Label(period(t, "2026-03"))
	assert.True(t, ok)
	assert.Equal(t, st.Labels[2], l)
	_, ok = st.Label(period(t, "2027-01"))
	assert.False(t, ok)
}

func TestClassify_Deterministic(t *testing.T) {
	cfg := DefaultConfig().Clusters
	m := twoGroups(t)

	first, err := Classify(m, cfg)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Classify(m, cfg)
		require.NoError(t, err)
		assert.Equal(t, first.Labels, again.Labels)
		assert.Equal(t, first.Inertia, again.Inertia)
	}
}

func TestClassify_LabelsInRange(t *testing.T) {
	for k := 2; k <= 6; k++ {
		cfg := DefaultConfig().Clusters
		cfg.Count = k
		st, err := Classify(twoGroups(t), cfg)
		require.NoError(t, err)
		for _, l := range st.Labels {
			assert.GreaterOrEqual(t, l, 0)
			assert.Less(t, l, st.EffectiveK)
		}
	}
}

func TestClassify_CapsClusterCount(t *testing.T) {
	m := matrix(t, []string{"2026-01", "2026-02"}, []string{"Food", "Transport"}, [][]int64{{20, 15}, {30, 0}})

	st, err := Classify(m, DefaultConfig().Clusters)
	require.NoError(t, err)
	assert.Equal(t, 3, st.RequestedK)
	assert.Equal(t, 2, st.EffectiveK)
	assert.True(t, st.Reduced)
	assert.NotEqual(t, st.Labels[0], st.Labels[1])
	assert.InDelta(t, 0, st.Inertia, 1e-12)
}

func TestClassify_ZeroVariance(t *testing.T) {
	m := matrix(t, []string{"2026-01", "2026-02", "2026-03"}, []string{"Food"}, [][]int64{{10}, {10}, {10}})

	st, err := Classify(m, DefaultConfig().Clusters)
	require.NoError(t, err)
	assert.Len(t, st.Labels, 3)
	assert.Zero(t, st.Inertia)
}

func TestClassify_RejectsCountBelowTwo(t *testing.T) {
	cfg := DefaultConfig().Clusters
	cfg.Count = 1
	_, err := Classify(twoGroups(t), cfg)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrClusteringSkipped))
}

func TestSpendingTypeName(t *testing.T) {
	assert.Equal(t, "Cluster 1", SpendingTypeName(0))
	assert.Equal(t, "Cluster 3", SpendingTypeName(2))
}
