package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConservation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 4, 13, 0, 0, 0, time.UTC)

	const ceiling = 5
	for i := 1; i <= ceiling; i++ {
		res, err := store.IncrWithCeiling(ctx, "user-1", ceiling, time.Hour, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d should be admitted", i)
		assert.Equal(t, i, res.Count)
	}

	res, err := store.IncrWithCeiling(ctx, "user-1", ceiling, time.Hour, now)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ceiling, res.Count, "rejected call must not be counted")
}

func TestMemoryStoreWindowReset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 4, 13, 30, 0, 0, time.UTC)

	res, err := store.IncrWithCeiling(ctx, "user-1", 2, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	// Past resetAt the counter starts over and the resetting call counts.
	later := res.ResetAt.Add(time.Second)
	res, err = store.IncrWithCeiling(ctx, "user-1", 2, time.Hour, later)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.ResetAt.After(later))
}

func TestMemoryStoreKeysIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	res, err := store.IncrWithCeiling(ctx, "user-1", 1, time.Hour, now)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.IncrWithCeiling(ctx, "user-2", 1, time.Hour, now)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "user-2 has a separate window")
}

// No over-admission when concurrent requests race for the last quota slots.
func TestMemoryStoreConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	const ceiling = 10
	const callers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.IncrWithCeiling(ctx, "user-1", ceiling, time.Hour, now)
			if err != nil {
				return
			}
			if res.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, ceiling, admitted)
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	_, err := store.IncrWithCeiling(ctx, "user-1", 5, time.Hour, now)
	require.NoError(t, err)

	store.Cleanup(now.Add(2 * time.Hour))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.entries)
}

func TestMemoryStorePeek(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 4, 13, 15, 0, 0, time.UTC)

	count, err := store.Peek(ctx, "user-1", time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 3; i++ {
		_, err := store.IncrWithCeiling(ctx, "user-1", 10, time.Hour, now)
		require.NoError(t, err)
	}

	count, err = store.Peek(ctx, "user-1", time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Peek never counts.
	count, err = store.Peek(ctx, "user-1", time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// A rolled-over window reads as empty.
	count, err = store.Peek(ctx, "user-1", time.Hour, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
