package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

// AdminAccount grants operator privileges to a wallet address
type AdminAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;size:255;not null" json:"wallet_address"`
	Role          string    `gorm:"size:20;not null" json:"role"` // SUPER_ADMIN, OPERATOR
	Permissions   JSONB     `gorm:"type:jsonb" json:"permissions"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (AdminAccount) TableName() string {
	return "admin_accounts"
}

// AdminLog records admin actions for audit trail
type AdminLog struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	AdminID      uint          `gorm:"not null;index" json:"admin_id"`
	Admin        *AdminAccount `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action       string        `gorm:"size:100;not null" json:"action"`
	ResourceType string        `gorm:"size:50" json:"resource_type"`
	ResourceID   *uint         `json:"resource_id"`
	Details      JSONB         `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
