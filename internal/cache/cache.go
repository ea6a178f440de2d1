// Package cache provides the transpile result cache: entries are valid
// only while their validity token (mtime in development, content hash in
// production) matches the token freshly computed for the key, and a soft
// entry-count cap trims the oldest entries by insertion order.
package cache

import (
	"sync"
	"sync/atomic"
)

// Token is a validity token: an mtime fingerprint or a content hash. An
// entry is served only when its stored token equals the current token for
// the same key; any mismatch is a miss, never a stale hit.
type Token string

// Store is a token-validated cache. The zero value is not usable; use New.
type Store[V any] struct {
	mutex   sync.RWMutex
	entries map[string]*entry[V]
	order   []string // insertion order, oldest first
	seq     uint64
	maxSize int

	hits        int64
	misses      int64
	evictions   int64
	invalidated int64
}

type entry[V any] struct {
	value V
	token Token
	seq   uint64
}

// DefaultMaxEntries is the soft entry-count cap for development servers.
const DefaultMaxEntries = 500

// evictFraction of the oldest entries (by insertion order, intentionally
// not LRU) is dropped when the cap is exceeded.
const evictFraction = 0.2

// New creates a store holding at most maxSize entries. maxSize <= 0 means
// unbounded, used by one-shot production builds.
func New[V any](maxSize int) *Store[V] {
	return &Store[V]{
		entries: make(map[string]*entry[V]),
		maxSize: maxSize,
	}
}

// Get returns the cached value for key iff its stored token matches
// current. A token mismatch deletes the entry and reports a miss.
func (s *Store[V]) Get(key string, current Token) (V, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		atomic.AddInt64(&s.misses, 1)
		return zero, false
	}
	if e.token != current {
		delete(s.entries, key)
		atomic.AddInt64(&s.misses, 1)
		return zero, false
	}

	atomic.AddInt64(&s.hits, 1)
	return e.value, true
}

// Put stores value under key with the token it was computed from. An
// existing entry keeps its insertion position.
func (s *Store[V]) Put(key string, value V, token Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		e.token = token
		return
	}

	s.seq++
	s.entries[key] = &entry[V]{value: value, token: token, seq: s.seq}
	s.order = append(s.order, key)

	if s.maxSize > 0 && len(s.entries) > s.maxSize {
		s.evictOldest()
	}
}

// evictOldest drops the oldest ~20% of entries by insertion order. Caller
// holds the write lock.
func (s *Store[V]) evictOldest() {
	drop := int(float64(s.maxSize) * evictFraction)
	if drop < 1 {
		drop = 1
	}

	kept := make([]string, 0, len(s.order))
	for _, key := range s.order {
		if _, ok := s.entries[key]; !ok {
			continue // already invalidated
		}
		if drop > 0 {
			delete(s.entries, key)
			atomic.AddInt64(&s.evictions, 1)
			drop--
			continue
		}
		kept = append(kept, key)
	}
	s.order = kept
}

// Invalidate removes key synchronously. A request dispatched after
// Invalidate returns can never observe the removed entry.
func (s *Store[V]) Invalidate(key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	atomic.AddInt64(&s.invalidated, 1)
	return true
}

// Clear removes every entry and resets counters.
func (s *Store[V]) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries = make(map[string]*entry[V])
	s.order = s.order[:0]
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.invalidated, 0)
}

// Len returns the number of live entries.
func (s *Store[V]) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// Stats reports hit/miss/eviction/invalidation counters.
func (s *Store[V]) Stats() (hits, misses, evictions, invalidated int64) {
	return atomic.LoadInt64(&s.hits),
		atomic.LoadInt64(&s.misses),
		atomic.LoadInt64(&s.evictions),
		atomic.LoadInt64(&s.invalidated)
}
