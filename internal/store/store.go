package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pwstrength/pwstrength/pkg/bench"
)

// Entry is a report together with the time it was stored.
type Entry struct {
	Report    *bench.Report `json:"report"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// History is a TTL-bounded collection of benchmark reports.
type History interface {
	// Put stores or replaces the report for rep.ID.
	Put(ctx context.Context, rep *bench.Report) error

	// Get returns the live entry for id. Expired entries are not found.
	Get(ctx context.Context, id string) (*Entry, bool, error)

	// List returns all live entries, newest first.
	List(ctx context.Context) ([]*Entry, error)

	// TTL is how long an entry stays live after Put.
	TTL() time.Duration

	// Run evicts expired entries in the background until ctx is cancelled.
	Run(ctx context.Context)
}

// Store is a thread-safe in-memory History.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

var _ History = (*Store)(nil)

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the report for rep.ID.
// Callers must not modify rep after calling Put.
func (s *Store) Put(_ context.Context, rep *bench.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rep.ID] = &Entry{
		Report:    rep,
		UpdatedAt: s.now(),
	}
	return nil
}

// Get returns the entry for id if it is within the TTL.
func (s *Store) Get(_ context.Context, id string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return nil, false, nil
	}
	return e, true, nil
}

// List returns all entries whose UpdatedAt is within the TTL, newest first.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Count returns the total number of entries held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	t := time.NewTicker(evictInterval(s.ttl))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale reports", "count", n)
			}
		}
	}
}

func evictInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
