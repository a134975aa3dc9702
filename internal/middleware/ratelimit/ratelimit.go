// Package ratelimit throttles requests per client with token buckets.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"spendlens/internal/log"
)

// idleAfter is how long a client may stay quiet before its bucket is dropped.
// A bucket idle this long is full again, so dropping it loses nothing.
const idleAfter = 10 * time.Minute

// Config sizes the per-client buckets.
type Config struct {
	// RequestsPerMinute is both the burst and the refill rate.
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns a minute-long burst of 60 refilled at one per second.
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

// Metrics is a snapshot of the limiter state.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*client
	hits    atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// NewLimiter starts a limiter and its background sweep. Call Stop when done.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / time.Minute.Seconds()),
		burst:   cfg.RequestsPerMinute,
		now:     time.Now,
		clients: make(map[string]*client),
		stop:    make(chan struct{}),
	}
	go l.sweep(cfg.CleanupInterval)
	return l
}

// Allow takes a token for key. When none is left it returns false and how
// long until the next token.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	if c.bucket.AllowN(now, 1) {
		return true, 0
	}
	l.hits.Add(1)

	r := c.bucket.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.dropIdle()
		case <-l.stop:
			return
		}
	}
}

// dropIdle forgets clients unseen for idleAfter and returns how many it dropped.
func (l *Limiter) dropIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleAfter)
	dropped := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			dropped++
		}
	}
	return dropped
}

// Stop ends the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// GetMetrics returns the rejected request count and the tracked client count.
func (l *Limiter) GetMetrics() Metrics {
	l.mu.Lock()
	n := len(l.clients)
	l.mu.Unlock()
	return Metrics{TotalHits: l.hits.Load(), ClientCount: int64(n)}
}

// Middleware rejects over-limit requests with 429 and a Retry-After header
// rounded to whole seconds. onLimit writes the body; nil sends a plain-text one.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)
			ok, wait := l.Allow(ip)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
				"Rate limit exceeded", log.FieldClientIP, ip, log.FieldPath, r.URL.Path)

			seconds := max(1, int(wait.Round(time.Second)/time.Second))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
