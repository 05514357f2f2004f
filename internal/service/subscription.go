package service

import (
	"context"
	"fmt"
	"time"

	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/storage"
	"github.com/draftgate/draftgate/internal/tiers"
	"go.uber.org/zap"
)

const tierCacheTTL = 5 * time.Minute

// userTiers is the slice of the user repository tier resolution needs.
type userTiers interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateTier(ctx context.Context, id string, tier string) error
	List(ctx context.Context) ([]models.User, error)
}

// SubscriptionService resolves a caller's current subscription tier. Tier
// reads sit on every gated request, so resolved tiers are cached in redis
// for a few minutes; tier changes invalidate the cache entry.
type SubscriptionService struct {
	repo  userTiers
	redis *storage.RedisClient
	log   *zap.Logger
}

func NewSubscriptionService(repo userTiers, redis *storage.RedisClient, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		redis: redis,
		log:   log,
	}
}

func tierCacheKey(userID string) string {
	return fmt.Sprintf("tier:cache:%s", userID)
}

// ResolveTier returns the user's current tier. Anything unresolvable (user
// missing, cache and database unreadable) comes back as FREE: gating fails
// closed, never open.
func (s *SubscriptionService) ResolveTier(ctx context.Context, userID string) tiers.Tier {
	if cached, err := s.redis.Get(ctx, tierCacheKey(userID)); err == nil && cached != "" {
		return tiers.Parse(cached)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn("tier lookup failed, defaulting to FREE",
			zap.String("user_id", userID), zap.Error(err))
		return tiers.Free
	}
	if user == nil {
		return tiers.Free
	}

	tier := tiers.Parse(user.Tier)
	if err := s.redis.Set(ctx, tierCacheKey(userID), tier.String(), tierCacheTTL); err != nil {
		s.log.Debug("tier cache write failed", zap.Error(err))
	}

	return tier
}

// ListUsers returns every account, for the admin console.
func (s *SubscriptionService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// SetTier records a tier change from the billing side and drops the cached
// value so the next request sees the new tier.
func (s *SubscriptionService) SetTier(ctx context.Context, userID string, tier tiers.Tier) error {
	if err := s.repo.UpdateTier(ctx, userID, tier.String()); err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}

	if err := s.redis.Del(ctx, tierCacheKey(userID)); err != nil {
		s.log.Warn("tier cache invalidation failed",
			zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}
