package analytics

import (
	"errors"
	"fmt"

	"spendlens/internal/core"
)

// Status distinguishes a full run from one that skipped clustering or the
// forecast. A refused run has no Result at all.
type Status string

const (
	StatusComplete Status = "complete"
	StatusReduced  Status = "reduced"
)

// NoticeClustersReduced is raised when fewer months than requested clusters exist.
const NoticeClustersReduced = "clusters_reduced"

// Notice is a non-fatal remark about a run.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is everything a pipeline run produces. SpendingTypes is nil when
// ClusteringErr is set and Forecast is nil when ForecastErr is set.
type Result struct {
	Transactions  core.TransactionSet
	Dropped       []DroppedRow
	Aggregates    Aggregates
	SpendingTypes *SpendingTypes
	ClusteringErr error
	Forecast      *Forecast
	ForecastErr   error
	Insights      []Insight
	Summary       Summary
	Notices       []Notice
	Config        Config
}

// Status reports whether every stage produced output.
func (r *Result) Status() Status {
	if r.ClusteringErr != nil || r.ForecastErr != nil {
		return StatusReduced
	}
	return StatusComplete
}

// Step is a single stage of the analytics pipeline.
type Step interface {
	Execute(state *State) error
}

// State carries one invocation's data between steps.
type State struct {
	Raw    core.RawTable
	Config Config
	Result *Result
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first error.
func (p *Pipeline) Execute(state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalyticsPipeline creates the standard normalize, aggregate, classify,
// forecast and insights pipeline.
func NewAnalyticsPipeline() *Pipeline {
	return NewPipeline(
		&NormalizeStep{},
		&AggregateStep{},
		&ClassifyStep{},
		&ForecastStep{},
		&InsightsStep{},
	)
}

// Run validates cfg and executes the analytics pipeline over raw. A schema
// problem returns a *SchemaError and no result; skipped stages are recorded
// on the Result instead.
func Run(raw core.RawTable, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	state := &State{Raw: raw, Config: cfg, Result: &Result{Config: cfg}}
	if err := NewAnalyticsPipeline().Execute(state); err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, err
	}
	return state.Result, nil
}

// NormalizeStep coerces the raw table into transactions.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(state *State) error {
	nr, err := Normalize(state.Raw)
	if err != nil {
		return err
	}
	state.Result.Transactions = nr.Transactions
	state.Result.Dropped = nr.Dropped
	return nil
}

// AggregateStep groups transactions by category and month.
type AggregateStep struct{}

func (s *AggregateStep) Execute(state *State) error {
	state.Result.Aggregates = Aggregate(state.Result.Transactions)
	return nil
}

// ClassifyStep assigns a spending type to every month.
type ClassifyStep struct{}

func (s *ClassifyStep) Execute(state *State) error {
	st, err := Classify(state.Result.Aggregates.Matrix, state.Config.Clusters)
	if errors.Is(err, ErrClusteringSkipped) {
		state.Result.ClusteringErr = err
		return nil
	}
	if err != nil {
		return err
	}
	state.Result.SpendingTypes = &st
	if st.Reduced {
		state.Result.Notices = append(state.Result.Notices, Notice{
			Code:    NoticeClustersReduced,
			Message: fmt.Sprintf("only %d months available: using %d clusters instead of %d", st.EffectiveK, st.EffectiveK, st.RequestedK),
		})
	}
	return nil
}

// ForecastStep projects next month's total.
type ForecastStep struct{}

func (s *ForecastStep) Execute(state *State) error {
	f, err := ForecastNext(state.Result.Aggregates.Periods, state.Config.Indexing)
	if errors.Is(err, ErrInsufficientData) {
		state.Result.ForecastErr = err
		return nil
	}
	if err != nil {
		return err
	}
	state.Result.Forecast = &f
	return nil
}

// InsightsStep computes the headline figures and recommendations.
type InsightsStep struct{}

func (s *InsightsStep) Execute(state *State) error {
	r := state.Result
	r.Summary = Summarize(r.Transactions, r.Aggregates.Periods)
	r.Insights = Insights(r.Aggregates, r.Summary.Total, state.Config.HighShareThreshold)
	return nil
}
