package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/storage"
	"github.com/draftgate/draftgate/internal/tiers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserTiers struct {
	users   map[string]*models.User
	findErr error
	lookups int
}

func (f *fakeUserTiers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.lookups++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.users[id], nil
}

func (f *fakeUserTiers) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserTiers) UpdateTier(ctx context.Context, id string, tier string) error {
	u, ok := f.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.Tier = tier
	return nil
}

func newTestSubscriptionService(t *testing.T, repo *fakeUserTiers) *SubscriptionService {
	t.Helper()

	mr := miniredis.RunT(t)
	redis, err := storage.NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { redis.Close() })

	return NewSubscriptionService(repo, redis, zap.NewNop())
}

func TestResolveTierFromDatabase(t *testing.T) {
	repo := &fakeUserTiers{users: map[string]*models.User{
		"u1": {Tier: "PRO"},
	}}
	svc := newTestSubscriptionService(t, repo)

	assert.Equal(t, tiers.Pro, svc.ResolveTier(context.Background(), "u1"))
}

func TestResolveTierCachesLookups(t *testing.T) {
	repo := &fakeUserTiers{users: map[string]*models.User{
		"u1": {Tier: "ELITE"},
	}}
	svc := newTestSubscriptionService(t, repo)

	for i := 0; i < 5; i++ {
		assert.Equal(t, tiers.Elite, svc.ResolveTier(context.Background(), "u1"))
	}

	assert.Equal(t, 1, repo.lookups, "repeated resolves should hit the cache")
}

func TestResolveTierUnknownUserIsFree(t *testing.T) {
	svc := newTestSubscriptionService(t, &fakeUserTiers{users: map[string]*models.User{}})

	assert.Equal(t, tiers.Free, svc.ResolveTier(context.Background(), "nobody"))
}

func TestResolveTierLookupErrorFailsClosed(t *testing.T) {
	repo := &fakeUserTiers{findErr: errors.New("db down")}
	svc := newTestSubscriptionService(t, repo)

	assert.Equal(t, tiers.Free, svc.ResolveTier(context.Background(), "u1"))
}

func TestResolveTierGarbageValueFailsClosed(t *testing.T) {
	repo := &fakeUserTiers{users: map[string]*models.User{
		"u1": {Tier: "PLATINUM"},
	}}
	svc := newTestSubscriptionService(t, repo)

	assert.Equal(t, tiers.Free, svc.ResolveTier(context.Background(), "u1"))
}

func TestSetTierInvalidatesCache(t *testing.T) {
	repo := &fakeUserTiers{users: map[string]*models.User{
		"u1": {Tier: "FREE"},
	}}
	svc := newTestSubscriptionService(t, repo)

	// Prime the cache with FREE.
	require.Equal(t, tiers.Free, svc.ResolveTier(context.Background(), "u1"))

	require.NoError(t, svc.SetTier(context.Background(), "u1", tiers.Pro))

	assert.Equal(t, tiers.Pro, svc.ResolveTier(context.Background(), "u1"),
		"upgrade must be visible immediately, not after cache expiry")
}
