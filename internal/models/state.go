package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EngineStateID is the fixed primary key of the singleton engine_state row.
const EngineStateID = 1

// EngineState is the single-row table holding process-wide counters.
// NextMarketID is the ID the next created market will take.
type EngineState struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	NextMarketID  uint64    `gorm:"not null;default:1" json:"next_market_id"`
	TotalStaked   int64     `gorm:"not null;default:0" json:"total_staked"`
	ActiveOracles int64     `gorm:"not null;default:0" json:"active_oracles"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for EngineState model
func (EngineState) TableName() string {
	return "engine_state"
}

// EngineStats is the live platform summary served to admins.
type EngineStats struct {
	TotalMarkets      int64           `json:"total_markets"`
	PendingMarkets    int64           `json:"pending_markets"`
	ValidatedMarkets  int64           `json:"validated_markets"`
	TotalOracles      int64           `json:"total_oracles"`
	ActiveOracles     int64           `json:"active_oracles"`
	TotalVotes        int64           `json:"total_votes"`
	TotalStaked       int64           `json:"total_staked"`
	TreasuryAvailable int64           `json:"treasury_available"`
	AvgReputation     decimal.Decimal `json:"avg_reputation"`
	ValidationRate    decimal.Decimal `json:"validation_rate"`
}
