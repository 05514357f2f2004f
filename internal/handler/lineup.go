package handler

import (
	"errors"
	"net/http"

	"github.com/draftgate/draftgate/internal/lineup"
	"github.com/draftgate/draftgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LineupHandler struct {
	service *service.LineupService
	log     *zap.Logger
}

func NewLineupHandler(service *service.LineupService, log *zap.Logger) *LineupHandler {
	return &LineupHandler{service: service, log: log}
}

type validateRequest struct {
	Format  string              `json:"format" binding:"required"`
	Picks   []service.PickInput `json:"picks" binding:"required"`
	Explain bool                `json:"explain"`
}

// Handles POST /lineups/validate. Always answers 200 with the verdict;
// an invalid roster is a result, not an error. With "explain" set the
// verdict lists every violation instead of just the first.
func (h *LineupHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Validate(c.Request.Context(), req.Format, req.Picks, req.Explain)
	if err != nil {
		h.renderLineupError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type saveRequest struct {
	Format string              `json:"format" binding:"required"`
	Picks  []service.PickInput `json:"picks" binding:"required"`
}

// Handles POST /lineups
func (h *LineupHandler) Save(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, result, err := h.service.Save(c.Request.Context(), userID, req.Format, req.Picks)
	if err != nil {
		h.renderLineupError(c, err)
		return
	}

	if saved == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "Lineup is invalid",
			"violations": result.Violations,
		})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

type optimizeRequest struct {
	Format   string   `json:"format" binding:"required"`
	Locked   []string `json:"locked"`
	Excluded []string `json:"excluded"`
}

// Handles POST /lineups/optimize
func (h *LineupHandler) Optimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roster, err := h.service.Optimize(c.Request.Context(), req.Format, lineup.Constraints{
		Locked:   req.Locked,
		Excluded: req.Excluded,
	})
	if err != nil {
		h.renderLineupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments":      roster.Assignments,
		"total_salary":     roster.TotalCost(),
		"projected_points": roster.TotalPoints(),
	})
}

// Handles GET /lineups
func (h *LineupHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	lineups, err := h.service.ListSaved(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lineups": lineups, "count": len(lineups)})
}

// Handles DELETE /lineups/:id
func (h *LineupHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lineup ID"})
		return
	}

	if err := h.service.DeleteSaved(c.Request.Context(), id, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lineup deleted"})
}

func (h *LineupHandler) renderLineupError(c *gin.Context, err error) {
	var infeasible *lineup.InfeasibleError
	var unknown *service.UnknownPlayersError

	switch {
	case errors.Is(err, service.ErrUnknownFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown contest format"})
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Unknown players in roster",
			"player_ids": unknown.IDs,
		})
	case errors.As(err, &infeasible):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "No valid lineup exists under the current constraints",
			"constraint": infeasible.Constraint,
			"detail":     infeasible.Detail,
		})
	default:
		h.log.Error("lineup request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

// currentUser pulls the authenticated user id out of the context. Auth
// middleware sets it on every protected route.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		c.Abort()
		return uuid.Nil, false
	}
	return id, true
}
