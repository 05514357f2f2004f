package repository

import (
	"context"

	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/storage"
	"gorm.io/gorm/clause"
)

type TierQuotaRepository struct {
	db *storage.Postgres
}

func NewTierQuotaRepository(db *storage.Postgres) *TierQuotaRepository {
	return &TierQuotaRepository{db: db}
}

// Retrieves all quota overrides
func (r *TierQuotaRepository) List(ctx context.Context) ([]models.TierQuota, error) {
	var quotas []models.TierQuota
	err := r.db.DB.WithContext(ctx).Find(&quotas).Error

	return quotas, err
}

// Inserts or replaces a quota override
func (r *TierQuotaRepository) Upsert(ctx context.Context, quota *models.TierQuota) error {
	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}},
			UpdateAll: true,
		}).
		Create(quota).Error
}
