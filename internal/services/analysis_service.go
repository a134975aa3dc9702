package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"spendlens/internal/analytics"
	"spendlens/internal/cache"
	"spendlens/internal/config"
	"spendlens/internal/core"
	"spendlens/internal/log"
	"spendlens/internal/records"
)

// AnalysisOptions are the per-request overrides of the analytics defaults.
// Zero values keep the default.
type AnalysisOptions struct {
	Clusters int
	Seed     *int64
	Indexing analytics.Indexing
}

// OptionsError rejects an out-of-range override.
type OptionsError struct {
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ResultInvalidator drops cached results of an owner.
type ResultInvalidator interface {
	Invalidate(owner string)
}

// AnalysisService runs the analytics pipeline over an owner's stored records.
// Results are shared between callers and must be treated as read-only.
type AnalysisService struct {
	records  records.RecordReader
	results  *cache.Loader[*analytics.Result]
	defaults analytics.Config
	logger   *log.Logger
	audit    *log.StructuredLogger
}

// NewAnalysisService creates the service. results may be nil to disable caching.
func NewAnalysisService(rr records.RecordReader, results *cache.Loader[*analytics.Result], defaults analytics.Config, logger *log.Logger) *AnalysisService {
	if logger == nil {
		logger = log.Discard()
	}
	return &AnalysisService{
		records:  rr,
		results:  results,
		defaults: defaults,
		logger:   logger.WithComponent(log.ComponentAnalytics),
		audit:    log.NewStructuredLogger(logger),
	}
}

// Defaults returns the configuration used when no override is given.
func (s *AnalysisService) Defaults() analytics.Config {
	return s.defaults
}

// Config merges opts into the defaults and checks the result.
func (s *AnalysisService) Config(opts AnalysisOptions) (analytics.Config, error) {
	cfg := s.defaults
	if opts.Clusters != 0 {
		if opts.Clusters < config.MinClusters || opts.Clusters > config.MaxClusters {
			return cfg, &OptionsError{
				Field:  "clusters",
				Reason: fmt.Sprintf("must be between %d and %d", config.MinClusters, config.MaxClusters),
			}
		}
		cfg.Clusters.Count = opts.Clusters
	}
	if opts.Seed != nil {
		cfg.Clusters.Seed = *opts.Seed
	}
	if opts.Indexing != "" {
		if !opts.Indexing.IsValid() {
			return cfg, &OptionsError{
				Field:  "indexing",
				Reason: fmt.Sprintf("must be %q or %q", analytics.IndexSequential, analytics.IndexCalendar),
			}
		}
		cfg.Indexing = opts.Indexing
	}
	return cfg, nil
}

// Analyze loads the owner's records and runs the pipeline. A *analytics.SchemaError
// is returned unwrapped so callers can map it with errors.As.
func (s *AnalysisService) Analyze(ctx context.Context, owner string, opts AnalysisOptions) (*analytics.Result, error) {
	cfg, err := s.Config(opts)
	if err != nil {
		return nil, err
	}

	rs, err := s.records.ListRecords(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	compute := func() (*analytics.Result, error) {
		res, err := analytics.Run(core.RecordsTable(rs), cfg)
		if err != nil {
			return nil, err
		}
		s.audit.LogAnalysis(ctx, owner, len(rs), len(res.Dropped),
			len(res.Aggregates.Periods), len(res.Aggregates.Categories), string(res.Status()))
		return res, nil
	}

	if s.results == nil {
		return compute()
	}

	res, hit, err := s.results.Get(resultKey(owner, cfg, rs), compute)
	if err != nil {
		return nil, err
	}
	if hit {
		s.logger.DebugContext(ctx, "Analysis served from cache", log.FieldOwner, owner)
	}
	return res, nil
}

// Invalidate implements ResultInvalidator.
func (s *AnalysisService) Invalidate(owner string) {
	if s.results == nil {
		return
	}
	if n := s.results.Invalidate(ownerPrefix(owner)); n > 0 {
		s.logger.Debug("Cached analyses dropped", log.FieldOwner, owner, "count", n)
	}
}

func ownerPrefix(owner string) string {
	return owner + "|"
}

// resultKey identifies a run by owner, configuration and the exact record set.
// Every field is length-prefixed so cell contents cannot shift field boundaries.
func resultKey(owner string, cfg analytics.Config, rs []core.Record) string {
	h := sha256.New()
	var buf []byte
	for _, r := range rs {
		buf = binary.AppendVarint(buf[:0], r.ID)
		for _, field := range []string{r.Date, r.Category, r.Amount, r.Description} {
			buf = binary.AppendUvarint(buf, uint64(len(field)))
			buf = append(buf, field...)
		}
		h.Write(buf)
	}
	return fmt.Sprintf("%sk%d:s%d:i%d:r%d:%s:%g|%s",
		ownerPrefix(owner),
		cfg.Clusters.Count, cfg.Clusters.Seed, cfg.Clusters.MaxIterations, cfg.Clusters.Restarts,
		cfg.Indexing, cfg.HighShareThreshold,
		hex.EncodeToString(h.Sum(nil)))
}
