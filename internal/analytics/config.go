package analytics

import (
	"fmt"
	"strings"
)

// Indexing selects how periods are numbered for the trend fit.
type Indexing string

const (
	// IndexSequential numbers periods 1..n by occurrence, ignoring calendar gaps.
	IndexSequential Indexing = "sequential"
	// IndexCalendar numbers periods by months elapsed since the first period.
	IndexCalendar Indexing = "calendar"
)

// IsValid reports whether the indexing mode is known.
func (i Indexing) IsValid() bool {
	return i == IndexSequential || i == IndexCalendar
}

// ClusterConfig drives the spending-type classifier.
type ClusterConfig struct {
	Count         int
	Seed          int64
	MaxIterations int
	Restarts      int
}

// Config holds every tunable of a pipeline run.
type Config struct {
	Clusters           ClusterConfig
	Indexing           Indexing
	HighShareThreshold float64
}

// DefaultConfig mirrors the dashboard defaults: three clusters, seed 42.
func DefaultConfig() Config {
	return Config{
		Clusters: ClusterConfig{
			Count:         3,
			Seed:          42,
			MaxIterations: 300,
			Restarts:      10,
		},
		Indexing:           IndexSequential,
		HighShareThreshold: 0.30,
	}
}

// Validate returns every configuration problem at once.
func (c Config) Validate() error {
	var problems []string
	if c.Clusters.Count < 2 {
		problems = append(problems, fmt.Sprintf("cluster count %d: must be at least 2", c.Clusters.Count))
	}
	if c.Clusters.MaxIterations < 1 {
		problems = append(problems, fmt.Sprintf("max iterations %d: must be at least 1", c.Clusters.MaxIterations))
	}
	if c.Clusters.Restarts < 1 {
		problems = append(problems, fmt.Sprintf("restarts %d: must be at least 1", c.Clusters.Restarts))
	}
	if !c.Indexing.IsValid() {
		problems = append(problems, fmt.Sprintf("indexing %q: must be %q or %q", c.Indexing, IndexSequential, IndexCalendar))
	}
	if c.HighShareThreshold <= 0 || c.HighShareThreshold > 1 {
		problems = append(problems, fmt.Sprintf("high share threshold %v: must be in (0, 1]", c.HighShareThreshold))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid analytics config:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
