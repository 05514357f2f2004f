package handler

import (
	"net/http"
	"strconv"

	"github.com/draftgate/draftgate/internal/repository"
	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	repo *repository.PlayerRepository
}

func NewPlayerHandler(repo *repository.PlayerRepository) *PlayerHandler {
	return &PlayerHandler{repo: repo}
}

// Handles GET /players. Optional ?position= filter.
func (h *PlayerHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var err error
	var players interface{}
	if position := c.Query("position"); position != "" {
		players, err = h.repo.ListByPosition(ctx, position)
	} else {
		players, err = h.repo.List(ctx)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": players})
}

// Handles GET /players/ownership. High-ownership players are what stacking
// and ownership-cap decisions hinge on, so this view is sold separately.
func (h *PlayerHandler) OwnershipReport(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	players, err := h.repo.TopOwnership(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": players, "count": len(players)})
}

// Handles GET /players/:id
func (h *PlayerHandler) Get(c *gin.Context) {
	player, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if player == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		return
	}

	c.JSON(http.StatusOK, player)
}
