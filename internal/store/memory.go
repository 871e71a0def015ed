package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no fresh body is cached for a key.
	ErrNotFound = errors.New("no cached response for key")
)

// entry is one cached upstream body and the moment it stops being fresh.
type entry struct {
	body    []byte
	savedAt time.Time
	expires time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of upstream response
// bodies, keyed by request URL. Each entry carries its own revalidation window.
type MemoryStore struct {
	mu sync.RWMutex

	// key: request URL, value: cached body
	data map[string]entry

	// retention configuration
	maxEntries int // max number of cached bodies (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Save stores body under key for ttl. A non-positive ttl disables caching for
// the call. When the store is full the oldest entry is evicted.
func (s *MemoryStore) Save(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cp := make([]byte, len(body))
	copy(cp, body)
	s.data[key] = entry{body: cp, savedAt: now, expires: now.Add(ttl)}

	// Enforce retention by count.
	if s.maxEntries > 0 && len(s.data) > s.maxEntries {
		s.pruneLocked(now)
		for len(s.data) > s.maxEntries {
			s.evictOldestLocked()
		}
	}
}

// Get returns the cached body for key while it is still fresh.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || !s.now().Before(e.expires) {
		return nil, ErrNotFound
	}
	return e.body, nil
}

// Prune drops expired entries and returns how many were removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.now())
}

// Len returns the number of cached entries, fresh or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) pruneLocked(now time.Time) int {
	removed := 0
	for k, e := range s.data {
		if !now.Before(e.expires) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range s.data {
		if !found || e.savedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.savedAt, true
		}
	}
	if found {
		delete(s.data, oldestKey)
	}
}
