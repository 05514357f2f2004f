package handler

import (
	"net/http"
	"time"

	"github.com/draftgate/draftgate/internal/gate"
	"github.com/draftgate/draftgate/internal/service"
	"github.com/draftgate/draftgate/internal/tiers"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service *service.SubscriptionService
	gate    *gate.Gate
}

func NewSubscriptionHandler(service *service.SubscriptionService, g *gate.Gate) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, gate: g}
}

// Handles GET /subscription. Shows the caller their tier and hourly limit.
func (h *SubscriptionHandler) GetMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	tier := h.service.ResolveTier(ctx, userID.String())

	resp := gin.H{"tier": tier.String()}

	used, limit, err := h.gate.Usage(ctx, userID.String(), tier, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Usage lookup failed"})
		return
	}
	if limit == 0 {
		resp["requests_per_hour"] = "unlimited"
	} else {
		resp["requests_per_hour"] = limit
		resp["used_this_hour"] = used
	}

	c.JSON(http.StatusOK, resp)
}

// Handles GET /admin/users
func (h *SubscriptionHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

type updateTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// Handles PUT /admin/users/:id/tier
func (h *SubscriptionHandler) UpdateTier(c *gin.Context) {
	var req updateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tier, err := tiers.ParseStrict(req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetTier(c.Request.Context(), c.Param("id"), tier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tier": tier.String()})
}
