package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
	"spendlens/internal/records"
	"spendlens/internal/report"
)

// ErrQueueUnavailable is returned when asynchronous reports are requested
// without a message broker.
var ErrQueueUnavailable = errors.New("report queue unavailable")

// Publisher sends report requests to the worker.
type Publisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
}

// RenderedReport is a report ready to be served.
type RenderedReport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders exports on demand, queues them for the worker and
// serves stored ones.
type ReportService struct {
	analysis  *AnalysisService
	store     records.ReportStore
	publisher Publisher
	now       func() time.Time
	logger    *log.Logger
	audit     *log.StructuredLogger
}

// NewReportService creates the service. publisher may be nil when no broker is configured.
func NewReportService(analysis *AnalysisService, store records.ReportStore, publisher Publisher, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportService{
		analysis:  analysis,
		store:     store,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentReports),
		audit:     log.NewStructuredLogger(logger),
	}
}

// QueueEnabled reports whether Queue can succeed.
func (s *ReportService) QueueEnabled() bool {
	return s.publisher != nil
}

// Render analyses the owner's records and renders them in format.
func (s *ReportService) Render(ctx context.Context, owner string, format report.Format, opts AnalysisOptions) (RenderedReport, error) {
	res, err := s.analysis.Analyze(ctx, owner, opts)
	if err != nil {
		return RenderedReport{}, err
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, res); err != nil {
		return RenderedReport{}, err
	}

	s.logger.InfoContext(ctx, "Report rendered",
		log.FieldOwner, owner,
		log.FieldFormat, string(format),
		log.FieldBytes, buf.Len())
	return RenderedReport{
		Filename:    format.Filename(s.now()),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Queue asks the worker to generate and store a report.
func (s *ReportService) Queue(ctx context.Context, owner string, format report.Format, opts AnalysisOptions) error {
	if s.publisher == nil {
		return ErrQueueUnavailable
	}
	// Reject bad overrides here rather than in the worker.
	cfg, err := s.analysis.Config(opts)
	if err != nil {
		return err
	}

	msg := amqp.NewReportRequestMessage(owner, string(format), cfg.Clusters.Count, cfg.Clusters.Seed)
	if err := s.publisher.PublishReportRequest(ctx, msg); err != nil {
		return fmt.Errorf("queue report: %w", err)
	}
	return nil
}

// Generate renders a report and stores it compressed. Used by the worker.
func (s *ReportService) Generate(ctx context.Context, owner string, format report.Format, opts AnalysisOptions) (records.Report, error) {
	rendered, err := s.Render(ctx, owner, format, opts)
	if err != nil {
		return records.Report{}, err
	}

	rep := records.Report{
		Owner:     owner,
		Format:    string(format),
		Filename:  rendered.Filename,
		Size:      int64(len(rendered.Data)),
		CreatedAt: s.now().UTC(),
		Data:      report.Pack(rendered.Data),
	}
	id, err := s.store.SaveReport(ctx, rep)
	if err != nil {
		return records.Report{}, fmt.Errorf("save report: %w", err)
	}
	rep.ID = id

	s.audit.LogReport(ctx, owner, rep.Format, id, len(rep.Data))
	return rep, nil
}

// List returns the metadata of the owner's stored reports, newest first.
func (s *ReportService) List(ctx context.Context, owner string) ([]records.Report, error) {
	reps, err := s.store.ListReports(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reps, nil
}

// Download returns a stored report decompressed.
func (s *ReportService) Download(ctx context.Context, owner string, id int64) (RenderedReport, error) {
	rep, err := s.store.GetReport(ctx, owner, id)
	if err != nil {
		return RenderedReport{}, fmt.Errorf("get report: %w", err)
	}
	data, err := report.Unpack(rep.Data)
	if err != nil {
		return RenderedReport{}, fmt.Errorf("unpack report %d: %w", id, err)
	}
	format, err := report.ParseFormat(rep.Format)
	if err != nil {
		return RenderedReport{}, err
	}
	return RenderedReport{
		Filename:    rep.Filename,
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}
