package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the fixed-shape events that dashboards key on:
// request lifecycle, analysis outcomes, stored reports and failures.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger wraps logger.
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = Discard()
	}
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart is logged at debug so normal traffic stays quiet.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd picks the level from the status class: 4xx warn, 5xx error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.logger.Logger.Log(ctx, statusLevel(statusCode), "HTTP request completed", fields.ToSlice()...)
}

// LogAnalysis records the shape and status of one pipeline run.
func (sl *StructuredLogger) LogAnalysis(ctx context.Context, owner string, rows, dropped, periods, categories int, status string) {
	fields := NewFields().
		WithOwner(owner).
		WithAnalysis(rows, dropped, periods, categories, status).
		WithOperation(OpAnalyze)
	sl.logger.WithComponent(ComponentAnalytics).InfoContext(ctx, "Analysis completed", fields.ToSlice()...)
}

// LogReport records a report persisted for later download.
func (sl *StructuredLogger) LogReport(ctx context.Context, owner, format string, id int64, size int) {
	fields := NewFields().
		WithOwner(owner).
		WithReport(id, format, size).
		WithOperation(OpCreate)
	sl.logger.WithComponent(ComponentReports).InfoContext(ctx, "Report stored", fields.ToSlice()...)
}

// LogError logs err under component and operation. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields = fields.WithError(err).WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}

func statusLevel(code int) slog.Level {
	switch {
	case code >= 500:
		return slog.LevelError
	case code >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
