package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/draftgate/draftgate/internal/lineup"
	"github.com/draftgate/draftgate/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownFormat = errors.New("unknown contest format")

	// ErrOptimizerInconsistent means the optimizer produced a roster that
	// failed its own validation. Callers see a generic internal error; the
	// details stay in the logs.
	ErrOptimizerInconsistent = errors.New("optimizer produced an invalid roster")
)

// UnknownPlayersError reports pick ids that do not exist in the player pool.
type UnknownPlayersError struct {
	IDs []string
}

func (e *UnknownPlayersError) Error() string {
	return fmt.Sprintf("unknown players: %s", strings.Join(e.IDs, ", "))
}

// PickInput is one slot assignment as submitted by a client.
type PickInput struct {
	Slot     string `json:"slot" binding:"required"`
	PlayerID string `json:"player_id" binding:"required"`
}

type playerSource interface {
	List(ctx context.Context) ([]models.Player, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Player, error)
}

type lineupStore interface {
	Create(ctx context.Context, lineup *models.Lineup) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Lineup, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type formatSource interface {
	Format(name string) ([]lineup.SlotRequirement, lineup.Rules, bool)
}

// LineupService runs the constraint engine against the stored player pool
// and persists rosters that pass it.
type LineupService struct {
	players playerSource
	lineups lineupStore
	formats formatSource
	log     *zap.Logger
}

func NewLineupService(players playerSource, lineups lineupStore, formats formatSource, log *zap.Logger) *LineupService {
	return &LineupService{
		players: players,
		lineups: lineups,
		formats: formats,
		log:     log,
	}
}

// Validate checks a submitted roster against a contest format. With
// collectAll set it reports every violation instead of stopping at the
// first one.
func (s *LineupService) Validate(ctx context.Context, format string, picks []PickInput, collectAll bool) (lineup.ValidationResult, error) {
	reqs, rules, ok := s.formats.Format(format)
	if !ok {
		return lineup.ValidationResult{}, ErrUnknownFormat
	}

	roster, err := s.buildRoster(ctx, picks)
	if err != nil {
		return lineup.ValidationResult{}, err
	}

	return lineup.Validate(roster, reqs, rules, collectAll), nil
}

// Save validates a roster and, when it passes, stores it. An invalid roster
// is not an error: the validation result comes back with a nil lineup.
func (s *LineupService) Save(ctx context.Context, userID uuid.UUID, format string, picks []PickInput) (*models.Lineup, lineup.ValidationResult, error) {
	reqs, rules, ok := s.formats.Format(format)
	if !ok {
		return nil, lineup.ValidationResult{}, ErrUnknownFormat
	}

	roster, err := s.buildRoster(ctx, picks)
	if err != nil {
		return nil, lineup.ValidationResult{}, err
	}

	result := lineup.Validate(roster, reqs, rules, true)
	if !result.Valid {
		return nil, result, nil
	}

	saved := &models.Lineup{
		UserID:          userID,
		Format:          format,
		TotalSalary:     roster.TotalCost(),
		ProjectedPoints: roster.TotalPoints(),
		Picks:           toPicks(roster),
	}
	if err := s.lineups.Create(ctx, saved); err != nil {
		return nil, lineup.ValidationResult{}, fmt.Errorf("failed to save lineup: %w", err)
	}

	return saved, result, nil
}

// Optimize builds the best-scoring valid roster for a format from the
// current player pool. The returned roster is re-validated before it leaves
// this method; a roster that fails that check is never returned as success.
func (s *LineupService) Optimize(ctx context.Context, format string, cons lineup.Constraints) (lineup.Roster, error) {
	reqs, rules, ok := s.formats.Format(format)
	if !ok {
		return lineup.Roster{}, ErrUnknownFormat
	}

	pool, err := s.players.List(ctx)
	if err != nil {
		return lineup.Roster{}, fmt.Errorf("failed to load player pool: %w", err)
	}

	candidates := make([]lineup.Player, len(pool))
	for i, p := range pool {
		candidates[i] = toEnginePlayer(p)
	}

	for attempt := 0; attempt < 2; attempt++ {
		roster, err := lineup.Optimize(candidates, reqs, rules, cons)
		if err != nil {
			return lineup.Roster{}, err
		}

		check := lineup.Validate(roster, reqs, rules, true)
		if check.Valid {
			return roster, nil
		}

		s.log.Error("optimizer output failed validation",
			zap.String("format", format),
			zap.Int("attempt", attempt+1),
			zap.Any("violations", check.Violations))
	}

	return lineup.Roster{}, ErrOptimizerInconsistent
}

// ListSaved returns a user's saved lineups, newest first.
func (s *LineupService) ListSaved(ctx context.Context, userID uuid.UUID) ([]models.Lineup, error) {
	return s.lineups.ListByUser(ctx, userID)
}

func (s *LineupService) DeleteSaved(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.lineups.Delete(ctx, id, userID)
}

// buildRoster resolves pick ids against the player pool. Every id must
// resolve; a roster referencing players the pool has never seen cannot be
// judged against eligibility or salary rules.
func (s *LineupService) buildRoster(ctx context.Context, picks []PickInput) (lineup.Roster, error) {
	ids := make([]string, len(picks))
	for i, p := range picks {
		ids[i] = p.PlayerID
	}

	found, err := s.players.FindByIDs(ctx, ids)
	if err != nil {
		return lineup.Roster{}, fmt.Errorf("failed to load players: %w", err)
	}

	byID := make(map[string]models.Player, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	var missing []string
	roster := lineup.Roster{Assignments: make([]lineup.Assignment, 0, len(picks))}
	for _, pick := range picks {
		p, ok := byID[pick.PlayerID]
		if !ok {
			missing = append(missing, pick.PlayerID)
			continue
		}
		roster.Assignments = append(roster.Assignments, lineup.Assignment{
			Slot:   pick.Slot,
			Player: toEnginePlayer(p),
		})
	}
	if len(missing) > 0 {
		return lineup.Roster{}, &UnknownPlayersError{IDs: missing}
	}

	return roster, nil
}

func toEnginePlayer(p models.Player) lineup.Player {
	return lineup.Player{
		ID:               p.ID,
		Name:             p.Name,
		Position:         lineup.Position(p.Position),
		Team:             p.Team,
		Cost:             p.Salary,
		ProjectedPoints:  p.ProjectedPoints,
		OwnershipPercent: p.OwnershipPercent,
	}
}

func toPicks(roster lineup.Roster) []models.LineupPick {
	picks := make([]models.LineupPick, len(roster.Assignments))
	for i, a := range roster.Assignments {
		picks[i] = models.LineupPick{
			Slot:     a.Slot,
			PlayerID: a.Player.ID,
		}
	}
	return picks
}
