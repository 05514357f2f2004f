package repository

import (
	"context"

	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LineupRepository struct {
	db *storage.Postgres
}

func NewLineupRepository(db *storage.Postgres) *LineupRepository {
	return &LineupRepository{db: db}
}

// Inserts a lineup together with its picks
func (r *LineupRepository) Create(ctx context.Context, lineup *models.Lineup) error {
	return r.db.DB.WithContext(ctx).Create(lineup).Error
}

// Retrieves a user's lineups, newest first
func (r *LineupRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Lineup, error) {
	var lineups []models.Lineup
	err := r.db.DB.WithContext(ctx).
		Preload("Picks").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&lineups).Error

	return lineups, err
}

func (r *LineupRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lineup, error) {
	var lineup models.Lineup
	err := r.db.DB.WithContext(ctx).
		Preload("Picks").
		Where("id = ?", id).
		First(&lineup).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &lineup, err
}

func (r *LineupRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Lineup{}).Error
}
