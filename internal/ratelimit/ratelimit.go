package ratelimit

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store counts hits per key within a fixed window. The interface exists so
// the in-process store can be swapped for a distributed one without
// touching the request path.
type Store interface {
	// Incr increments the counter for key inside the current window and
	// returns the new count.
	Incr(key string, window time.Duration) (int64, error)
}

// Limiter is a fixed-window rate limiter keyed by an arbitrary string
// (typically the client IP).
type Limiter struct {
	store    Store
	requests int64
	window   time.Duration
	now      func() time.Time
}

// New creates a limiter allowing requests hits per window
func New(store Store, requests int, window time.Duration) *Limiter {
	if requests <= 0 {
		requests = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		store:    store,
		requests: int64(requests),
		window:   window,
		now:      time.Now,
	}
}

// Allow reports whether another request for key fits in the current
// window. Store failures fail open.
func (l *Limiter) Allow(key string) bool {
	windowStart := l.now().Truncate(l.window)
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	count, err := l.store.Incr(windowKey, l.window)
	if err != nil {
		return true
	}
	return count <= l.requests
}

// Window returns the limiter's window size, for Retry-After headers.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// MemoryStore is the default in-process Store
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory-backed counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		// per-key TTLs are set on first increment; cleanup sweeps stale
		// windows
		cache: gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

// Incr increments the window counter, creating it with the window TTL on
// first hit
func (s *MemoryStore) Incr(key string, window time.Duration) (int64, error) {
	// Add is a no-op error when the key already exists
	_ = s.cache.Add(key, int64(0), 2*window)
	return s.cache.IncrementInt64(key, 1)
}
