// Package cache memoizes analysis results per owner and dataset revision.
package cache

import (
	"sync"
	"time"

	"spendlens/internal/log"
)

// Store is the storage a Loader reads through.
type Store[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	DeletePrefix(prefix string) int
}

// Sweeper drops stale entries and reports how many it dropped.
type Sweeper interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches so expired analyses do not
// hold memory until the next lookup.
type Manager struct {
	mu       sync.Mutex
	sweepers map[string]Sweeper
	logger   *log.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager returns a manager with no caches registered.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		sweepers: make(map[string]Sweeper),
		logger:   logger.WithComponent(log.ComponentCache),
	}
}

// Register adds a cache under name. A second registration replaces the first.
func (m *Manager) Register(name string, s Sweeper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepers[name] = s
}

// CleanNow sweeps every registered cache once and returns the entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, s := range m.sweepers {
		if n := s.CleanExpired(); n > 0 {
			m.logger.Debug("Expired cache entries removed", "cache", name, "count", n)
			total += n
		}
	}
	return total
}

// StartCleanup sweeps every interval until Stop. Calling it twice is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanNow()
			case <-stop:
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it. Safe without StartCleanup and
// safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		stop, done := m.stop, m.done
		m.mu.Unlock()
		if stop == nil {
			return
		}
		close(stop)
		<-done
	})
}
