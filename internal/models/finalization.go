package models

import (
	"time"
)

// FinalizationRecord captures the settlement summary written when a market
// is finalized. One record per market.
type FinalizationRecord struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	MarketID          uint      `gorm:"uniqueIndex;not null" json:"market_id"`
	Outcome           *Outcome  `json:"outcome"`
	ConsensusStrength int64     `gorm:"not null;default:0" json:"consensus_strength"`
	TotalVotes        int64     `gorm:"not null;default:0" json:"total_votes"`
	TotalStakeVoted   int64     `gorm:"not null;default:0" json:"total_stake_voted"`
	RewardPool        int64     `gorm:"not null;default:0" json:"reward_pool"`
	RewardsPaid       int64     `gorm:"not null;default:0" json:"rewards_paid"`
	TotalSlashed      int64     `gorm:"not null;default:0" json:"total_slashed"`
	OraclesRewarded   int64     `gorm:"not null;default:0" json:"oracles_rewarded"`
	OraclesSlashed    int64     `gorm:"not null;default:0" json:"oracles_slashed"`
	Forced            bool      `gorm:"not null;default:false" json:"forced"`
	DisputesProcessed bool      `gorm:"not null;default:false" json:"disputes_processed"`
	CreatedAt         time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for FinalizationRecord model
func (FinalizationRecord) TableName() string {
	return "finalization_records"
}

type FinalizeMarketRequest struct {
	Force               bool `json:"force"`
	ProcessDisputes     bool `json:"process_disputes"`
	CalculateReputation bool `json:"calculate_reputation"`
	DistributeRewards   bool `json:"distribute_rewards"`
	ExecutePayouts      bool `json:"execute_payouts"`
}
