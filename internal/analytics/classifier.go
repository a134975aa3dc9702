package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spendlens/internal/core"
)

// zeroScale is the relative standard deviation under which a column is
// treated as constant.
const zeroScale = 1e-12

// SpendingTypes is the cluster assignment of every month. Labels are opaque:
// label 0 does not mean "lowest spend".
type SpendingTypes struct {
	Periods    []core.Period `json:"periods"`
	Labels     []int         `json:"labels"`
	RequestedK int           `json:"requested_k"`
	EffectiveK int           `json:"effective_k"`
	Reduced    bool          `json:"reduced"`
	Inertia    float64       `json:"inertia"`
	Centroids  [][]float64   `json:"centroids"`
}

// Assignments maps each month to its cluster label.
func (s SpendingTypes) Assignments() map[core.Period]int {
	out := make(map[core.Period]int, len(s.Periods))
	for i, p := range s.Periods {
		out[p] = s.Labels[i]
	}
	return out
}

// Label returns the cluster of a month.
func (s SpendingTypes) Label(p core.Period) (int, bool) {
	for i, sp := range s.Periods {
		if sp == p {
			return s.Labels[i], true
		}
	}
	return 0, false
}

// SpendingTypeName is the display name of a cluster label.
func SpendingTypeName(label int) string {
	return fmt.Sprintf("Cluster %d", label+1)
}

// Standardize rescales each column to zero mean and unit population variance.
// A constant column becomes all zeros.
func Standardize(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = make([]float64, len(x[i]))
	}
	if len(x) == 0 {
		return out
	}
	col := make([]float64, len(x))
	for j := range x[0] {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std <= zeroScale*math.Max(1, math.Abs(mean)) {
			continue
		}
		for i := range x {
			out[i][j] = (x[i][j] - mean) / std
		}
	}
	return out
}

// Classify partitions months into spending types with seeded k-means over the
// standardized matrix. It returns ErrClusteringSkipped below two months. The
// cluster count is capped at the number of months; Reduced reports the cap.
func Classify(m PeriodCategoryMatrix, cfg ClusterConfig) (SpendingTypes, error) {
	if len(m.Periods) < 2 {
		return SpendingTypes{}, ErrClusteringSkipped
	}
	if cfg.Count < 2 {
		return SpendingTypes{}, fmt.Errorf("classify: cluster count %d below 2", cfg.Count)
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = DefaultConfig().Clusters.MaxIterations
	}
	if cfg.Restarts < 1 {
		cfg.Restarts = DefaultConfig().Clusters.Restarts
	}

	k := min(cfg.Count, len(m.Periods))
	points := Standardize(m.Float64())
	seed := uint64(cfg.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var best kmeansRun
	for r := 0; r < cfg.Restarts; r++ {
		run := kmeans(points, k, rng, cfg.MaxIterations)
		if r == 0 || run.inertia < best.inertia {
			best = run
		}
	}

	return SpendingTypes{
		Periods:    append([]core.Period(nil), m.Periods...),
		Labels:     best.labels,
		RequestedK: cfg.Count,
		EffectiveK: k,
		Reduced:    k < cfg.Count,
		Inertia:    best.inertia,
		Centroids:  best.centroids,
	}, nil
}

type kmeansRun struct {
	labels    []int
	centroids [][]float64
	inertia   float64
}

// kmeans runs one k-means++ initialization followed by Lloyd iterations until
// assignments are stable or maxIter is reached.
func kmeans(points [][]float64, k int, rng *rand.Rand, maxIter int) kmeansRun {
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			l := nearest(p, centroids)
			if l != labels[i] {
				labels[i] = l
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCentroids(points, labels, centroids)
	}

	var inertia float64
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}
	return kmeansRun{labels: labels, centroids: centroids, inertia: inertia}
}

// seedCentroids picks k starting centroids with k-means++ weighting.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.IntN(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	weights := make([]float64, len(points))
	for len(centroids) < k {
		var sum float64
		for i, p := range points {
			d := floats.Distance(p, centroids[nearest(p, centroids)], 2)
			weights[i] = d * d
			sum += weights[i]
		}
		idx := rng.IntN(len(points))
		if sum > 0 {
			target := rng.Float64() * sum
			for i, w := range weights {
				target -= w
				if target < 0 {
					idx = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), points[idx]...))
	}
	return centroids
}

// nearest returns the index of the closest centroid, the lowest index on ties.
func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// updateCentroids moves each centroid to the mean of its points. An empty
// cluster keeps its previous position.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dim := len(centroids[0])
	sums := make([][]float64, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		centroids[c] = sums[c]
	}
}
