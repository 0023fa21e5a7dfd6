package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is an immutable ballot cast by an oracle on a market. StakeAtVote
// snapshots the oracle's registered stake at submission time and is the
// weight used for reward distribution.
type Vote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID    uint      `gorm:"not null;uniqueIndex:idx_votes_market_oracle;index" json:"market_id"`
	OracleID    uint      `gorm:"not null;uniqueIndex:idx_votes_market_oracle" json:"oracle_id"`
	Outcome     Outcome   `gorm:"not null" json:"outcome"`
	Confidence  int16     `gorm:"not null;default:0" json:"confidence"`
	StakeAtVote int64     `gorm:"not null" json:"stake_at_vote"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for Vote model
func (Vote) TableName() string {
	return "votes"
}

// Tally holds the running per-market vote counters. Completed flips exactly
// once, inside the finalization transaction.
type Tally struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	MarketID        uint      `gorm:"uniqueIndex;not null" json:"market_id"`
	TotalVotes      int64     `gorm:"not null;default:0" json:"total_votes"`
	YesVotes        int64     `gorm:"not null;default:0" json:"yes_votes"`
	NoVotes         int64     `gorm:"not null;default:0" json:"no_votes"`
	InvalidVotes    int64     `gorm:"not null;default:0" json:"invalid_votes"`
	TotalStakeVoted int64     `gorm:"not null;default:0" json:"total_stake_voted"`
	Completed       bool      `gorm:"not null;default:false;index" json:"completed"`
	Outcome         *Outcome  `json:"outcome"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Tally model
func (Tally) TableName() string {
	return "tallies"
}

type SubmitVoteRequest struct {
	// Outcome 0 (NO) is a valid value, so range checking is left to the
	// vote service rather than a binding tag.
	Outcome    int16 `json:"outcome"`
	Confidence int16 `json:"confidence" binding:"gte=0,lte=100"`
}
