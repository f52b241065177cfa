// Package window implements sliding-window request stores for the rate
// limiter: an in-memory store (the default) and a Redis-backed variant for
// multi-instance deployments.
package window

import (
	"context"
	"math"
	"sync"
	"time"

	"vocalmind/internal/ratelimit/models"
)

// MemoryStore tracks request timestamps per key in process memory.
//
// A single mutex serializes the read-prune-append sequence so concurrent
// checks on the same key can never over-admit. Keys are never evicted; only
// their timestamp lists are trimmed to the active window. Counters reset on
// process restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	now     func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
}

// NewMemoryStore creates an empty in-memory window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

// Allow prunes the key's window to the trailing duration and admits the
// request iff fewer than limit timestamps remain. Admission appends the
// current timestamp; rejection leaves the sequence pruned but unchanged.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sw := s.windows[key]
	if sw == nil {
		sw = &slidingWindow{}
		s.windows[key] = sw
	}
	sw.prune(now.Add(-window))

	if len(sw.timestamps) >= limit {
		oldest := sw.timestamps[0]
		resetAt := oldest.Add(window)
		retryAfter := int(math.Ceil(resetAt.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// Count returns the number of timestamps currently held for a key within the
// given window.
func (s *MemoryStore) Count(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.windows[key]
	if sw == nil {
		return 0, nil
	}
	sw.prune(s.now().Add(-window))
	return len(sw.timestamps), nil
}

// Reset clears the timestamp list for a key. The key itself is retained.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sw := s.windows[key]; sw != nil {
		sw.timestamps = sw.timestamps[:0]
	}
	return nil
}

// Keys reports how many distinct keys the store has seen since start.
func (s *MemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// prune drops timestamps at or before the cutoff. Must be called holding mu.
func (sw *slidingWindow) prune(cutoff time.Time) {
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
