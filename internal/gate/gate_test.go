package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftgate/draftgate/internal/quota"
	"github.com/draftgate/draftgate/internal/tiers"
)

// countingStore records calls so tests can assert the quota was or was not
// touched.
type countingStore struct {
	inner quota.Store
	calls int
}

func (s *countingStore) IncrWithCeiling(ctx context.Context, key string, ceiling int, window time.Duration, now time.Time) (quota.Result, error) {
	s.calls++
	return s.inner.IncrWithCeiling(ctx, key, ceiling, window, now)
}

func (s *countingStore) Peek(ctx context.Context, key string, window time.Duration, now time.Time) (int, error) {
	return s.inner.Peek(ctx, key, window, now)
}

type failingStore struct{}

func (failingStore) IncrWithCeiling(ctx context.Context, key string, ceiling int, window time.Duration, now time.Time) (quota.Result, error) {
	return quota.Result{}, errors.New("store down")
}

func (failingStore) Peek(ctx context.Context, key string, window time.Duration, now time.Time) (int, error) {
	return 0, errors.New("store down")
}

func testCaps() map[string]Capability {
	return map[string]Capability{
		"LINEUP_SAVE":      {RequiredTier: tiers.Free, Metered: true},
		"LINEUP_OPTIMIZER": {RequiredTier: tiers.Pro, Metered: true},
		"LEAGUE_EXPORT":    {RequiredTier: tiers.Elite, Metered: false},
	}
}

func testQuotas() map[tiers.Tier]int {
	return map[tiers.Tier]int{
		tiers.Free: 3,
		tiers.Pro:  10,
		// Elite intentionally absent: unlimited.
	}
}

func TestAuthorizeUngatedRouteAlwaysAllowed(t *testing.T) {
	store := &countingStore{inner: quota.NewMemoryStore()}
	g := New(testCaps(), testQuotas(), store)

	d, err := g.Authorize(context.Background(), "u1", tiers.Free, "PUBLIC_SCORES", time.Now())
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, store.calls, "ungated routes are never metered")
}

func TestAuthorizeInsufficientTier(t *testing.T) {
	store := &countingStore{inner: quota.NewMemoryStore()}
	g := New(testCaps(), testQuotas(), store)

	d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_OPTIMIZER", time.Now())
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInsufficientTier, d.Reason)
	assert.Equal(t, tiers.Pro, d.RequiredTier, "denial must name the tier to upgrade to")
	assert.Equal(t, 0, store.calls, "tier denial must not touch the quota counter")
}

func TestAuthorizeEqualTierAllowed(t *testing.T) {
	g := New(testCaps(), testQuotas(), quota.NewMemoryStore())

	d, err := g.Authorize(context.Background(), "u1", tiers.Pro, "LINEUP_OPTIMIZER", time.Now())
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

// Higher tier never loses access a lower tier has, for every capability.
func TestAuthorizeTierMonotonic(t *testing.T) {
	for routeKey := range testCaps() {
		for i, lower := range tiers.All() {
			for _, higher := range tiers.All()[i:] {
				// Fresh stores so quota state does not leak between checks.
				gLow := New(testCaps(), testQuotas(), quota.NewMemoryStore())
				gHigh := New(testCaps(), testQuotas(), quota.NewMemoryStore())

				now := time.Now()
				dLow, err := gLow.Authorize(context.Background(), "u1", lower, routeKey, now)
				require.NoError(t, err)
				dHigh, err := gHigh.Authorize(context.Background(), "u1", higher, routeKey, now)
				require.NoError(t, err)

				if dLow.Allowed {
					assert.True(t, dHigh.Allowed,
						"%s allowed for %s but denied for %s", routeKey, lower, higher)
				}
			}
		}
	}
}

func TestAuthorizeQuotaConservation(t *testing.T) {
	g := New(testCaps(), testQuotas(), quota.NewMemoryStore())
	now := time.Date(2026, 1, 4, 13, 0, 0, 0, time.UTC)

	// FREE ceiling is 3: exactly 3 admitted, the 4th denied with retry-after.
	for i := 0; i < 3; i++ {
		d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", now)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "call %d", i+1)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 3-(i+1), d.Remaining)
	}

	d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonQuotaExceeded, d.Reason)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.Equal(t, d.ResetAt.Sub(now), d.RetryAfter)
}

func TestAuthorizeWindowReset(t *testing.T) {
	g := New(testCaps(), testQuotas(), quota.NewMemoryStore())
	now := time.Date(2026, 1, 4, 13, 40, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", now)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", now)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// First call of the new window counts as 1, not 0.
	next := d.ResetAt.Add(time.Second)
	d, err = g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", next)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining, "resetting call itself consumed one slot")
}

func TestAuthorizeUnlimitedTierSkipsCounting(t *testing.T) {
	store := &countingStore{inner: quota.NewMemoryStore()}
	g := New(testCaps(), testQuotas(), store)

	for i := 0; i < 100; i++ {
		d, err := g.Authorize(context.Background(), "u1", tiers.Elite, "LINEUP_OPTIMIZER", time.Now())
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	assert.Equal(t, 0, store.calls, "unlimited tier must not be counted")
}

func TestAuthorizeStoreErrorPropagates(t *testing.T) {
	g := New(testCaps(), testQuotas(), failingStore{})

	_, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", time.Now())
	assert.Error(t, err)
}

func TestAuthorizeConcurrentNoOverAdmission(t *testing.T) {
	g := New(testCaps(), map[tiers.Tier]int{tiers.Free: 10}, quota.NewMemoryStore())
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", now)
			if err != nil {
				return
			}
			if d.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
}

func TestAuthorizeQuotaIsPerUser(t *testing.T) {
	g := New(testCaps(), map[tiers.Tier]int{tiers.Free: 1}, quota.NewMemoryStore())
	now := time.Now()

	d, err := g.Authorize(context.Background(), "u1", tiers.Free, "LINEUP_SAVE", now)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = g.Authorize(context.Background(), "u2", tiers.Free, "LINEUP_SAVE", now)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "a different user has a separate window")
}

func TestUsageReportsConsumedQuota(t *testing.T) {
	g := New(testCaps(), testQuotas(), quota.NewMemoryStore())
	now := time.Date(2026, 1, 4, 14, 5, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.Authorize(ctx, "user-1", tiers.Free, "LINEUP_SAVE", now)
		require.NoError(t, err)
	}

	used, limit, err := g.Usage(ctx, "user-1", tiers.Free, now)
	require.NoError(t, err)
	assert.Equal(t, 2, used)
	assert.Equal(t, 3, limit)

	// Unlimited tiers never accumulate usage.
	used, limit, err = g.Usage(ctx, "user-1", tiers.Elite, now)
	require.NoError(t, err)
	assert.Equal(t, 0, used)
	assert.Equal(t, 0, limit)
}
