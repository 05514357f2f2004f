package gate

import (
	"context"
	"time"

	"github.com/draftgate/draftgate/internal/quota"
	"github.com/draftgate/draftgate/internal/tiers"
)

type DenyReason string

const (
	ReasonInsufficientTier DenyReason = "insufficient_tier"
	ReasonQuotaExceeded    DenyReason = "quota_exceeded"
)

// Capability gates one logical route/action behind a minimum tier. Metered
// capabilities additionally count against the caller's hourly quota.
type Capability struct {
	RequiredTier tiers.Tier
	Metered      bool
}

// Decision is the structured allow/deny result for one request. Denials
// carry enough to build an upgrade prompt (RequiredTier) or a retry hint
// (RetryAfter).
type Decision struct {
	Allowed      bool
	Reason       DenyReason
	RequiredTier tiers.Tier
	RetryAfter   time.Duration
	Limit        int // quota ceiling, 0 when the call was not counted
	Remaining    int
	ResetAt      time.Time
}

// Gate decides, before a route's business logic runs, whether a request is
// permitted for the caller's subscription tier and within its metered quota.
type Gate struct {
	caps   map[string]Capability
	quotas map[tiers.Tier]int // requests per window; 0 = unlimited
	store  quota.Store
	window time.Duration
}

func New(caps map[string]Capability, quotas map[tiers.Tier]int, store quota.Store) *Gate {
	return &Gate{
		caps:   caps,
		quotas: quotas,
		store:  store,
		window: time.Hour,
	}
}

// Authorize resolves the capability for routeKey and applies the tier check
// and, for metered capabilities, the quota check. A tier denial never
// touches the quota counter.
func (g *Gate) Authorize(ctx context.Context, userID string, userTier tiers.Tier, routeKey string, now time.Time) (Decision, error) {
	capability, gated := g.caps[routeKey]
	if !gated {
		return Decision{Allowed: true}, nil
	}

	if !userTier.Meets(capability.RequiredTier) {
		return Decision{
			Allowed:      false,
			Reason:       ReasonInsufficientTier,
			RequiredTier: capability.RequiredTier,
		}, nil
	}

	if !capability.Metered {
		return Decision{Allowed: true}, nil
	}

	ceiling := g.quotas[userTier]
	if ceiling == 0 {
		// Unlimited sentinel: allowed and not counted.
		return Decision{Allowed: true}, nil
	}

	res, err := g.store.IncrWithCeiling(ctx, userID, ceiling, g.window, now)
	if err != nil {
		return Decision{}, err
	}

	remaining := ceiling - res.Count
	if remaining < 0 {
		remaining = 0
	}

	if !res.Allowed {
		retryAfter := res.ResetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{
			Allowed:    false,
			Reason:     ReasonQuotaExceeded,
			RetryAfter: retryAfter,
			Limit:      ceiling,
			Remaining:  remaining,
			ResetAt:    res.ResetAt,
		}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     ceiling,
		Remaining: remaining,
		ResetAt:   res.ResetAt,
	}, nil
}

// Usage reports a user's consumed quota in the current window without
// counting anything. For unlimited tiers used is always 0.
func (g *Gate) Usage(ctx context.Context, userID string, userTier tiers.Tier, now time.Time) (used, limit int, err error) {
	limit = g.quotas[userTier]
	if limit == 0 {
		return 0, 0, nil
	}

	used, err = g.store.Peek(ctx, userID, g.window, now)
	return used, limit, err
}

// Capabilities returns the configured capability table.
func (g *Gate) Capabilities() map[string]Capability {
	out := make(map[string]Capability, len(g.caps))
	for k, v := range g.caps {
		out[k] = v
	}
	return out
}

// QuotaFor returns the hourly ceiling for a tier, 0 meaning unlimited.
func (g *Gate) QuotaFor(t tiers.Tier) int {
	return g.quotas[t]
}
