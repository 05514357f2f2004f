package models

import "time"

// Player is a selection candidate from the sports-data feed. The feed owns
// the id space; rows are replaced wholesale on refresh.
type Player struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	Position         string    `gorm:"index;not null" json:"position"`
	Team             string    `gorm:"index" json:"team"`
	Salary           int64     `gorm:"not null" json:"salary"`
	ProjectedPoints  float64   `json:"projected_points"`
	OwnershipPercent float64   `json:"ownership_percent"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Player) TableName() string {
	return "players"
}
