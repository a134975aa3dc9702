package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/records"
)

// Store keeps users, records and reports in process memory.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	users   map[string]records.User
	items   map[string][]core.Record
	reports []records.Report
	now     func() time.Time
}

func New() *Store {
	return &Store{
		users: map[string]records.User{},
		items: map[string][]core.Record{},
		now:   time.Now,
	}
}

// NewWithRecords seeds a store, keyed by owner.
func NewWithRecords(seed map[string][]core.Record) *Store {
	s := New()
	for owner, rs := range seed {
		_, _ = s.AppendRecords(context.Background(), owner, rs)
	}
	return s
}

// AppendRecords stores the rows verbatim and assigns ids.
func (s *Store) AppendRecords(_ context.Context, owner string, rs []core.Record) ([]core.Record, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("append records: empty owner")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]core.Record, 0, len(rs))
	for _, r := range rs {
		s.nextID++
		r.ID = s.nextID
		r.Owner = owner
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now().UTC()
		}
		s.items[owner] = append(s.items[owner], r)
		stored = append(stored, r)
	}
	return stored, nil
}

// ClearRecords drops every row of the owner.
func (s *Store) ClearRecords(_ context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.items[owner]))
	delete(s.items, owner)
	return n, nil
}

// ListRecords returns a copy of the owner's rows.
func (s *Store) ListRecords(_ context.Context, owner string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items[owner]...), nil
}

func (s *Store) CreateUser(_ context.Context, u records.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("create user %s: %w", u.Username, records.ErrConflict)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users[u.Username] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (records.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return records.User{}, fmt.Errorf("get user %s: %w", username, records.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListUsernames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.users))
	for name := range s.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) SaveReport(_ context.Context, r records.Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	r.Data = append([]byte(nil), r.Data...)
	s.reports = append(s.reports, r)
	return r.ID, nil
}

// ListReports returns the owner's reports, newest first.
func (s *Store) ListReports(_ context.Context, owner string) ([]records.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []records.Report
	for i := len(s.reports) - 1; i >= 0; i-- {
		r := s.reports[i]
		if r.Owner != owner {
			continue
		}
		r.Data = nil
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetReport(_ context.Context, owner string, id int64) (records.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id && r.Owner == owner {
			r.Data = append([]byte(nil), r.Data...)
			return r, nil
		}
	}
	return records.Report{}, fmt.Errorf("get report %d: %w", id, records.ErrNotFound)
}
