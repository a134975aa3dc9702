package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"spendlens/internal/analytics"
	"spendlens/internal/cache"
)

// appMetrics counts served analyses by outcome.
type appMetrics struct {
	uptime   time.Time
	complete int64
	reduced  int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

func (m *appMetrics) analysisServed(status analytics.Status) {
	if status == analytics.StatusComplete {
		atomic.AddInt64(&m.complete, 1)
		return
	}
	atomic.AddInt64(&m.reduced, 1)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.deps.Ready != nil {
		if err := s.deps.Ready(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	} else {
		checks["backend"] = "ok"
	}

	if s.deps.Reports != nil && s.deps.Reports.QueueEnabled() {
		checks["report_queue"] = "ok"
	} else {
		checks["report_queue"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.loginLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.loginLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	complete := atomic.LoadInt64(&s.appMetrics.complete)
	reduced := atomic.LoadInt64(&s.appMetrics.reduced)
	uptime := time.Since(s.appMetrics.uptime)

	var cacheStats cache.Stats
	if s.deps.CacheStats != nil {
		cacheStats = s.deps.CacheStats()
	}

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_errors_total HTTP responses with an error status by class\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP analyses_total Analyses served by status\n")
	fmt.Fprintf(w, "# TYPE analyses_total counter\n")
	fmt.Fprintf(w, "analyses_total{status=%q} %d\n", analytics.StatusComplete, complete)
	fmt.Fprintf(w, "analyses_total{status=%q} %d\n\n", analytics.StatusReduced, reduced)

	fmt.Fprintf(w, "# HELP cache_entries Current cached analyses\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries %d\n\n", cacheStats.Entries)

	fmt.Fprintf(w, "# HELP cache_lookups_total Analysis cache lookups by result\n")
	fmt.Fprintf(w, "# TYPE cache_lookups_total counter\n")
	fmt.Fprintf(w, "cache_lookups_total{result=\"hit\"} %d\n", cacheStats.Hits)
	fmt.Fprintf(w, "cache_lookups_total{result=\"miss\"} %d\n\n", cacheStats.Misses)

	fmt.Fprintf(w, "# HELP cache_evictions_total Analyses dropped for capacity or age\n")
	fmt.Fprintf(w, "# TYPE cache_evictions_total counter\n")
	fmt.Fprintf(w, "cache_evictions_total{reason=\"capacity\"} %d\n", cacheStats.Evictions)
	fmt.Fprintf(w, "cache_evictions_total{reason=\"expired\"} %d\n\n", cacheStats.Expired)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}
