// Package cache keeps computed schedules keyed by their canonical
// version hash. The engine itself never caches; invalidation falls out
// of the key, since any change to the loan terms or the event set
// produces a different hash.
package cache

import (
	"sync"
	"time"

	"github.com/akarpov/loan-schedule/pkg/schedule"
)

// Store is a bounded TTL cache. Concurrent requests for the same key
// collapse onto a single computation; late arrivals wait for the first
// caller's result instead of recomputing.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type entry struct {
	ready    chan struct{}
	result   *schedule.Result
	err      error
	storedAt time.Time
}

// New creates a store holding results for ttl, evicting oldest-first
// beyond maxEntries.
func New(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// GetOrCompute returns the cached result for key, or runs compute and
// caches its outcome. Errors are not cached; a failed computation clears
// the slot so the next caller retries.
func (s *Store) GetOrCompute(key string, compute func() (*schedule.Result, error)) (*schedule.Result, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && !s.expired(e) {
		s.mu.Unlock()
		<-e.ready
		return e.result, e.err
	}

	e := &entry{ready: make(chan struct{}), storedAt: s.now()}
	s.entries[key] = e
	s.evictLocked()
	s.mu.Unlock()

	e.result, e.err = compute()
	close(e.ready)

	if e.err != nil {
		s.mu.Lock()
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}
	return e.result, e.err
}

// Invalidate drops one key, e.g. when a caller knows the underlying
// event store changed before the new hash is available.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of cached slots, counting in-flight ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl
}

// evictLocked removes expired slots, then the oldest settled ones until
// the store fits. In-flight computations are never evicted.
func (s *Store) evictLocked() {
	for key, e := range s.entries {
		if s.expired(e) && isSettled(e) {
			delete(s.entries, key)
		}
	}
	for s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for key, e := range s.entries {
			if !isSettled(e) {
				continue
			}
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey = key
				oldest = e.storedAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(s.entries, oldestKey)
	}
}

func isSettled(e *entry) bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}
