package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err=%v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Output: &buf, Component: ComponentWorker})
	logger.Info("hello", FieldOwner, "alice")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentWorker {
		t.Fatalf("component=%v", rec[FieldComponent])
	}
	if rec[FieldOwner] != "alice" {
		t.Fatalf("owner=%v", rec[FieldOwner])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf}).WithComponent(ComponentAnalytics)
	if logger.Component() != ComponentAnalytics {
		t.Fatalf("component=%s", logger.Component())
	}
	logger.Warn("careful")
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("expected a single component attribute: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "component=analytics") {
		t.Fatalf("missing component: %s", buf.String())
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	logger := Discard()
	var got *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != logger {
		t.Fatal("logger not found in context")
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to the default logger")
	}
}

func TestStructuredLoggerError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)
	out := buf.String()
	for _, want := range []string{"boom", "disk full", "component=storage", "operation=create"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestStructuredLoggerReport(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	sl.LogReport(context.Background(), "alice", "pdf", 7, 1024)
	out := buf.String()
	for _, want := range []string{"Report stored", "owner=alice", "report_id=7", "format=pdf", "bytes=1024", "component=reports"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(Config{Output: &bytes.Buffer{}}).WithComponent(ComponentAuth)
	if got := FromContext(NewContext(context.Background(), logger)); got != logger {
		t.Errorf("FromContext returned %p, want %p", got, logger)
	}
}
