package models

// TierQuota is an operator override for a tier's hourly metered ceiling.
// Rows take precedence over the config file at startup. Zero means
// unlimited.
type TierQuota struct {
	Tier            string `gorm:"primaryKey" json:"tier"`
	RequestsPerHour int    `gorm:"not null" json:"requests_per_hour"`
}

func (TierQuota) TableName() string {
	return "tier_quotas"
}
