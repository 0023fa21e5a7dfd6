package models

import (
	"time"

	"github.com/google/uuid"
)

// TreasuryAddress is the reserved book account that funds payouts and
// absorbs slashed stake. It cannot be used as an oracle or creator address.
const TreasuryAddress = "treasury"

type LedgerEntryType string

const (
	LedgerEntryDeposit LedgerEntryType = "DEPOSIT"
	LedgerEntryEscrow  LedgerEntryType = "ESCROW"
	LedgerEntryPayout  LedgerEntryType = "PAYOUT"
	LedgerEntrySlash   LedgerEntryType = "SLASH"
)

// LedgerAccount tracks the liquid and staked balance held for one address.
type LedgerAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"uniqueIndex;size:255;not null" json:"address"`
	Available int64     `gorm:"not null;default:0" json:"available"`
	Staked    int64     `gorm:"not null;default:0" json:"staked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for LedgerAccount model
func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// LedgerEntry is the append-only audit record of every balance movement.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type        LedgerEntryType `gorm:"size:50;not null;index" json:"type"`
	Address     string          `gorm:"size:255;not null;index" json:"address"`
	Amount      int64           `gorm:"not null" json:"amount"`
	MarketID    *uint           `gorm:"index" json:"market_id,omitempty"`
	TxSignature *string         `gorm:"size:255" json:"tx_signature,omitempty"`
	CreatedAt   time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

type DepositRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	TxSignature string `json:"tx_signature"`
}
