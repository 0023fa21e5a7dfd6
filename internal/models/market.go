package models

import (
	"fmt"
	"time"
)

// Outcome is the numeric outcome code carried on votes and settled markets.
type Outcome int16

const (
	OutcomeNo      Outcome = 0
	OutcomeYes     Outcome = 1
	OutcomeInvalid Outcome = 2
)

// Valid reports whether o is one of the three known outcome codes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeNo, OutcomeYes, OutcomeInvalid:
		return true
	}
	return false
}

func (o Outcome) String() string {
	switch o {
	case OutcomeNo:
		return "NO"
	case OutcomeYes:
		return "YES"
	case OutcomeInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("OUTCOME(%d)", int16(o))
	}
}

type MarketStatus string

const (
	MarketStatusPending   MarketStatus = "PENDING"
	MarketStatusValidated MarketStatus = "VALIDATED"
)

// Market is a truth claim under validation. IDs are assigned from the
// engine_state counter, not the database sequence.
type Market struct {
	ID               uint         `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CreatorAddress   string       `gorm:"size:255;not null;index" json:"creator_address"`
	Question         string       `gorm:"size:500;not null" json:"question"`
	ResolutionSource string       `gorm:"size:500" json:"resolution_source"`
	Volume           int64        `gorm:"not null;default:0" json:"volume"`
	Deadline         time.Time    `gorm:"not null;index" json:"deadline"`
	Status           MarketStatus `gorm:"size:50;not null;default:PENDING;index" json:"status"`
	Outcome          *Outcome     `json:"outcome"`
	Participants     int64        `gorm:"not null;default:0" json:"participants"`
	ExternalID       *string      `gorm:"size:255;uniqueIndex" json:"external_id,omitempty"`
	CreatedAt        time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ValidatedAt      *time.Time   `json:"validated_at,omitempty"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

type CreateMarketRequest struct {
	Question         string    `json:"question" binding:"required,min=3,max=500"`
	ResolutionSource string    `json:"resolution_source" binding:"max=500"`
	Deadline         time.Time `json:"deadline" binding:"required"`
	Volume           int64     `json:"volume" binding:"gte=0"`
}

type SetVolumeRequest struct {
	Volume int64 `json:"volume" binding:"gte=0"`
}
