package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// historyEntry is one owner's list with its expiration
type historyEntry struct {
	queries   []string
	expiresAt time.Time // zero = never
}

func (e historyEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryHistoryStore keeps history in process memory.
// This is suitable for single-instance deployments and testing.
type InMemoryHistoryStore struct {
	mu        sync.RWMutex
	entries   map[string]historyEntry
	opts      HistoryOptions
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryHistoryStore creates a store. When opts.TTL is set a background
// goroutine removes expired lists; call Close to stop it.
func NewInMemoryHistoryStore(opts HistoryOptions) *InMemoryHistoryStore {
	s := &InMemoryHistoryStore{
		entries:  make(map[string]historyEntry),
		opts:     opts.withDefaults(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if s.opts.TTL > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}
	return s
}

// Add moves query to the front of owner's history
func (s *InMemoryHistoryStore) Add(_ context.Context, owner, query string) error {
	q, err := pendency.ValidateHistoryEntry(owner, query)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := s.entries[owner]
	if e.expired(now) {
		e = historyEntry{}
	}
	e.queries = pendency.PushHistory(e.queries, q, s.opts.MaxEntries)
	if s.opts.TTL > 0 {
		e.expiresAt = now.Add(s.opts.TTL)
	}
	s.entries[owner] = e
	return nil
}

// List returns a copy of owner's history, newest first
func (s *InMemoryHistoryStore) List(_ context.Context, owner string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[owner]
	if !ok || e.expired(s.now()) {
		return []string{}, nil
	}
	out := make([]string, len(e.queries))
	copy(out, e.queries)
	return out, nil
}

// Clear deletes owner's history
func (s *InMemoryHistoryStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, owner)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryHistoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryHistoryStore) cleanupLoop() {
	defer s.wg.Done()

	interval := s.opts.TTL
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryHistoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for owner, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, owner)
		}
	}
}

// Size returns the number of owners with a history (for testing/monitoring)
func (s *InMemoryHistoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ pendency.HistoryStore = (*InMemoryHistoryStore)(nil)
