// Package worker processes queued report requests and schedules periodic ones.
package worker

import (
	"context"
	"errors"
	"fmt"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
	"spendlens/internal/report"
	"spendlens/internal/services"
)

// ReportWorker turns report request messages into stored reports.
type ReportWorker struct {
	reports *services.ReportService
	logger  *log.Logger
}

func NewReportWorker(reports *services.ReportService, logger *log.Logger) *ReportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportWorker{
		reports: reports,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReportRequest processes a single report request from AMQP.
// Requests with an unknown format or invalid options are logged and acknowledged.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	format, err := report.ParseFormat(msg.Format)
	if err != nil {
		w.logger.WarnContext(ctx, "Discarding report request with unknown format",
			log.FieldOwner, msg.Owner,
			log.FieldFormat, msg.Format)
		return nil
	}

	opts := services.AnalysisOptions{Clusters: msg.Clusters}
	if msg.Seed != 0 {
		seed := msg.Seed
		opts.Seed = &seed
	}

	rep, err := w.reports.Generate(ctx, msg.Owner, format, opts)
	var oe *services.OptionsError
	if errors.As(err, &oe) {
		w.logger.WarnContext(ctx, "Discarding report request with invalid options",
			log.FieldOwner, msg.Owner,
			log.FieldError, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate %s report for %s: %w", format, msg.Owner, err)
	}

	w.logger.InfoContext(ctx, "Report request completed",
		log.FieldOwner, msg.Owner,
		log.FieldReportID, rep.ID,
		"queued_for", rep.CreatedAt.Sub(msg.RequestedAt))
	return nil
}
