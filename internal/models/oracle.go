package models

import (
	"time"
)

// Oracle is a registered validator. Reputation starts at 500 and moves with
// settlement results; it is never clamped and may go negative.
type Oracle struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Address         string    `gorm:"uniqueIndex;size:255;not null" json:"address"`
	Reputation      int64     `gorm:"not null;default:500" json:"reputation"`
	TotalStaked     int64     `gorm:"not null;default:0" json:"total_staked"`
	SuccessfulVotes int64     `gorm:"not null;default:0" json:"successful_votes"`
	FailedVotes     int64     `gorm:"not null;default:0" json:"failed_votes"`
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`
	LastActiveAt    time.Time `json:"last_active_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Oracle model
func (Oracle) TableName() string {
	return "oracles"
}

type RegisterOracleRequest struct {
	StakeAmount int64 `json:"stake_amount" binding:"required,gt=0"`
}

// OracleStats is the per-oracle summary returned by the registry endpoints.
type OracleStats struct {
	Oracle        Oracle  `json:"oracle"`
	TotalVotes    int64   `json:"total_votes"`
	Accuracy      float64 `json:"accuracy"`
	RewardsEarned int64   `json:"rewards_earned"`
	AmountSlashed int64   `json:"amount_slashed"`
}
