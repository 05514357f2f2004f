package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/draftgate/draftgate/internal/circuitbreaker"
	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/repository"
	"go.uber.org/zap"
)

// feedPlayer is one row of the upstream projections feed.
type feedPlayer struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Position         string  `json:"position"`
	Team             string  `json:"team"`
	Salary           int64   `json:"salary"`
	ProjectedPoints  float64 `json:"projected_points"`
	OwnershipPercent float64 `json:"ownership_percent"`
}

// Client pulls player projections from the sports-data feed and mirrors
// them into postgres. Feed outages trip the breaker; the stored pool keeps
// serving while the feed is down.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker
	repo    *repository.PlayerRepository
	log     *zap.Logger
}

func New(baseURL string, repo *repository.PlayerRepository, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: circuitbreaker.New(5, 30*time.Second),
		repo:    repo,
		log:     log,
	}
}

// Refresh fetches the feed once and upserts the result.
func (c *Client) Refresh(ctx context.Context) error {
	var players []feedPlayer

	err := c.breaker.Do(func() error {
		var fetchErr error
		players, fetchErr = c.fetch(ctx)
		return fetchErr
	})
	if err != nil {
		return err
	}

	rows := make([]models.Player, len(players))
	now := time.Now()
	for i, p := range players {
		rows[i] = models.Player{
			ID:               p.ID,
			Name:             p.Name,
			Position:         p.Position,
			Team:             p.Team,
			Salary:           p.Salary,
			ProjectedPoints:  p.ProjectedPoints,
			OwnershipPercent: p.OwnershipPercent,
			UpdatedAt:        now,
		}
	}

	if err := c.repo.Upsert(ctx, rows); err != nil {
		return fmt.Errorf("failed to store players: %w", err)
	}

	c.log.Info("player pool refreshed", zap.Int("players", len(rows)))
	return nil
}

func (c *Client) fetch(ctx context.Context) ([]feedPlayer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/players", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var payload struct {
		Players []feedPlayer `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	return payload.Players, nil
}

// Run refreshes on a fixed interval until ctx is canceled. An immediate
// refresh happens on startup so the pool is never empty longer than one
// feed round trip.
func (c *Client) Run(ctx context.Context, interval time.Duration) {
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("initial player refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Warn("player refresh failed",
					zap.Error(err),
					zap.String("breaker", c.breaker.State().String()))
			}
		case <-ctx.Done():
			return
		}
	}
}
