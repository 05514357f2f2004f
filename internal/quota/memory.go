package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a single-process Store. A mutex serializes the
// check-then-increment so concurrent callers cannot over-admit. Suitable
// for development and tests; multi-instance deployments use RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
	}
}

func (s *MemoryStore) IncrWithCeiling(ctx context.Context, key string, ceiling int, window time.Duration, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !now.Before(ent.resetAt) {
		ent = &windowEntry{resetAt: windowResetAt(now, window)}
		s.entries[key] = ent
	}

	if ent.count >= ceiling {
		return Result{Allowed: false, Count: ent.count, ResetAt: ent.resetAt}, nil
	}

	ent.count++
	return Result{Allowed: true, Count: ent.count, ResetAt: ent.resetAt}, nil
}

func (s *MemoryStore) Peek(ctx context.Context, key string, window time.Duration, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !now.Before(ent.resetAt) {
		return 0, nil
	}
	return ent.count, nil
}

// Cleanup drops windows that have already rolled over.
func (s *MemoryStore) Cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !now.Before(ent.resetAt) {
			delete(s.entries, k)
		}
	}
}
