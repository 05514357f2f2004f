package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lineup struct {
	ID              uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID    `gorm:"type:uuid;index;not null" json:"user_id"`
	Format          string       `gorm:"not null" json:"format"`
	TotalSalary     int64        `json:"total_salary"`
	ProjectedPoints float64      `json:"projected_points"`
	CreatedAt       time.Time    `json:"created_at"`
	Picks           []LineupPick `gorm:"foreignKey:LineupID" json:"picks"`
}

func (l *Lineup) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (Lineup) TableName() string {
	return "lineups"
}

type LineupPick struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	LineupID uuid.UUID `gorm:"type:uuid;index;not null" json:"lineup_id"`
	Slot     string    `gorm:"not null" json:"slot"`
	PlayerID string    `gorm:"not null" json:"player_id"`
}

func (LineupPick) TableName() string {
	return "lineup_picks"
}
