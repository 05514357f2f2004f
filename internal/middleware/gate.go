package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/tiers"
	"github.com/gin-gonic/gin"
)

// TierResolver maps an authenticated user to their current subscription
// tier. Implementations fail closed to FREE.
type TierResolver interface {
	ResolveTier(ctx context.Context, userID string) tiers.Tier
}

// RequireCapability gates a route behind the named capability: minimum
// tier first, then the metered hourly quota. Denials carry an upgrade
// prompt (403) or a retry hint (429); a broken quota backend is a 500,
// never a silent allow.
func RequireCapability(g *gate.Gate, resolver TierResolver, routeKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		tier := resolver.ResolveTier(ctx, userID)
		c.Set("tier", tier.String())
		c.Set("route_key", routeKey)

		decision, err := g.Authorize(ctx, userID, tier, routeKey, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Quota check failed",
			})
			c.Abort()
			return
		}

		// Quota headers are set whenever the call was counted.
		if decision.Limit > 0 {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))
		}
		c.Header("X-RateLimit-Tier", tier.String())

		if decision.Allowed {
			c.Next()
			return
		}

		switch decision.Reason {
		case gate.ReasonInsufficientTier:
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Upgrade required",
				"route_key":     routeKey,
				"tier":          tier.String(),
				"required_tier": decision.RequiredTier.String(),
			})
		case gate.ReasonQuotaExceeded:
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Hourly quota exceeded",
				"route_key":   routeKey,
				"tier":        tier.String(),
				"limit":       decision.Limit,
				"retry_after": retryAfter,
				"reset_at":    decision.ResetAt.Unix(),
			})
		default:
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Request not permitted",
			})
		}
		c.Abort()
	}
}
