package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/records/memory"
	"spendlens/internal/report"
	"spendlens/internal/services"
)

func newReportService(t *testing.T) (*services.ReportService, *memory.Store) {
	t.Helper()
	store := memory.NewWithRecords(map[string][]core.Record{
		"alice": {
			{Date: "2026-01-05", Category: "Food", Amount: "100"},
			{Date: "2026-02-05", Category: "Food", Amount: "120"},
		},
	})
	analysis := services.NewAnalysisService(store, nil, analytics.DefaultConfig(), nil)
	return services.NewReportService(analysis, store, nil, nil), store
}

func TestHandleReportRequest(t *testing.T) {
	ctx := context.Background()
	reports, store := newReportService(t)
	w := NewReportWorker(reports, nil)

	if err := w.HandleReportRequest(ctx, amqp.NewReportRequestMessage("alice", "pdf", 2, 7)); err != nil {
		t.Fatalf("HandleReportRequest() error = %v", err)
	}

	stored, err := store.ListReports(ctx, "alice")
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(stored) != 1 || stored[0].Format != "pdf" {
		t.Fatalf("unexpected stored reports: %+v", stored)
	}

	got, err := reports.Download(ctx, "alice", stored[0].ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(got.Data) < 4 || string(got.Data[:4]) != "%PDF" {
		t.Errorf("downloaded data is not a PDF")
	}
}

func TestHandleReportRequestDiscardsUnprocessable(t *testing.T) {
	ctx := context.Background()
	reports, store := newReportService(t)
	w := NewReportWorker(reports, nil)

	tests := []struct {
		name string
		msg  *amqp.ReportRequestMessage
	}{
		{"unknown format", amqp.NewReportRequestMessage("alice", "docx", 0, 0)},
		{"cluster count out of range", amqp.NewReportRequestMessage("alice", "csv", 12, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.HandleReportRequest(ctx, tt.msg); err != nil {
				t.Errorf("HandleReportRequest() error = %v, want nil", err)
			}
		})
	}

	stored, _ := store.ListReports(ctx, "alice")
	if len(stored) != 0 {
		t.Errorf("expected no stored reports, got %d", len(stored))
	}
}

type stubUsers struct {
	users []string
	err   error
}

func (s stubUsers) ListUsernames(context.Context) ([]string, error) { return s.users, s.err }

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ReportRequestMessage
	fail map[string]bool
}

func (p *recordingPublisher) PublishReportRequest(_ context.Context, msg *amqp.ReportRequestMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[msg.Owner] {
		return errors.New("broker down")
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestSchedulerRunOnce(t *testing.T) {
	pub := &recordingPublisher{fail: map[string]bool{"bob": true}}
	s := NewScheduler(stubUsers{users: []string{"alice", "bob", "carol"}}, pub, "0 6 1 * *", report.FormatPDF, nil)

	if n := s.RunOnce(context.Background()); n != 2 {
		t.Fatalf("RunOnce() = %d, want 2", n)
	}
	for _, m := range pub.msgs {
		if m.Format != "pdf" || m.Clusters != 0 {
			t.Errorf("unexpected message %+v", m)
		}
	}

	s = NewScheduler(stubUsers{err: errors.New("db locked")}, pub, "0 6 1 * *", report.FormatPDF, nil)
	if n := s.RunOnce(context.Background()); n != 0 {
		t.Errorf("RunOnce() with failing lister = %d, want 0", n)
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewScheduler(stubUsers{}, &recordingPublisher{}, "0 6 1 * *", report.FormatPDF, nil)

	if s.IsRunning() {
		t.Fatal("scheduler should not be running initially")
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(stubUsers{}, &recordingPublisher{}, "every tuesday", report.FormatPDF, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() should fail on an invalid schedule")
	}
}
