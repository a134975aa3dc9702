package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
	"spendlens/internal/report"
)

// UserLister enumerates the owners a scheduled report is produced for.
type UserLister interface {
	ListUsernames(ctx context.Context) ([]string, error)
}

// RequestPublisher enqueues report requests.
type RequestPublisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
}

// Scheduler publishes a report request for every user on a cron schedule.
type Scheduler struct {
	users     UserLister
	publisher RequestPublisher
	format    report.Format
	schedule  string
	logger    *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler creates a scheduler for a standard five-field cron spec.
func NewScheduler(users UserLister, publisher RequestPublisher, schedule string, format report.Format, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Discard()
	}
	return &Scheduler{
		users:     users,
		publisher: publisher,
		format:    format,
		schedule:  schedule,
		logger:    logger.WithComponent(log.ComponentScheduler),
	}
}

// Start registers the job and starts the cron loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("parse report schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	s.logger.InfoContext(ctx, "Report scheduler started",
		"schedule", s.schedule,
		log.FieldFormat, string(s.format),
		"next_run", c.Entries()[0].Next)
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		s.logger.InfoContext(ctx, "Report scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Report scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce publishes one request per user and returns how many were queued.
// A failing user does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	users, err := s.users.ListUsernames(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list users for scheduled reports", log.FieldError, err)
		return 0
	}

	queued := 0
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		msg := amqp.NewReportRequestMessage(u, string(s.format), 0, 0)
		if err := s.publisher.PublishReportRequest(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to queue scheduled report",
				log.FieldOwner, u,
				log.FieldError, err)
			continue
		}
		queued++
	}

	s.logger.InfoContext(ctx, "Scheduled reports queued", "users", len(users), "queued", queued)
	return queued
}
