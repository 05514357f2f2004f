package repository

import (
	"context"

	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlayerRepository struct {
	db *storage.Postgres
}

func NewPlayerRepository(db *storage.Postgres) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Retrieves the full candidate pool, highest projection first
func (r *PlayerRepository) List(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	err := r.db.DB.WithContext(ctx).
		Order("projected_points DESC").
		Find(&players).Error

	return players, err
}

// Retrieves players by position
func (r *PlayerRepository) ListByPosition(ctx context.Context, position string) ([]models.Player, error) {
	var players []models.Player
	err := r.db.DB.WithContext(ctx).
		Where("position = ?", position).
		Order("projected_points DESC").
		Find(&players).Error

	return players, err
}

// Retrieves a set of players by id
func (r *PlayerRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	var players []models.Player
	err := r.db.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&players).Error

	return players, err
}

func (r *PlayerRepository) FindByID(ctx context.Context, id string) (*models.Player, error) {
	var player models.Player
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&player).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &player, err
}

// Retrieves the most owned players, for the ownership report
func (r *PlayerRepository) TopOwnership(ctx context.Context, limit int) ([]models.Player, error) {
	var players []models.Player
	err := r.db.DB.WithContext(ctx).
		Where("ownership_percent > 0").
		Order("ownership_percent DESC").
		Limit(limit).
		Find(&players).Error

	return players, err
}

// Inserts or replaces players from a feed refresh
func (r *PlayerRepository) Upsert(ctx context.Context, players []models.Player) error {
	if len(players) == 0 {
		return nil
	}
	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&players).Error
}
