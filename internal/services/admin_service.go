package services

import (
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"truth-market/internal/models"
)

type AdminService struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db: db,
	}
}

// IsAdmin checks if a wallet has an admin account
func (s *AdminService) IsAdmin(walletAddress string) bool {
	var admin models.AdminAccount
	result := s.db.Where("wallet_address = ?", walletAddress).First(&admin)
	return result.Error == nil
}

// GetAdminByWallet gets an admin account by wallet address
func (s *AdminService) GetAdminByWallet(walletAddress string) (*models.AdminAccount, error) {
	var admin models.AdminAccount
	if err := s.db.Where("wallet_address = ?", walletAddress).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// PromoteWallet grants admin privileges to a wallet
func (s *AdminService) PromoteWallet(walletAddress string, role string, promotedByAdminID uint) (*models.AdminAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role != "SUPER_ADMIN" && role != "OPERATOR" {
		return nil, fmt.Errorf("unknown admin role: %s", role)
	}

	// Check if already admin
	var existing models.AdminAccount
	if err := s.db.Where("wallet_address = ?", walletAddress).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("wallet is already an admin")
	}

	permissions := models.JSONB{
		"manage_markets": true,
		"manage_oracles": true,
		"force_finalize": true,
		"manage_admins":  role == "SUPER_ADMIN",
	}

	admin := models.AdminAccount{
		WalletAddress: walletAddress,
		Role:          role,
		Permissions:   permissions,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to promote wallet: %w", err)
	}

	s.LogAdminAction(promotedByAdminID, "PROMOTE_WALLET", "ADMIN_ACCOUNT", &admin.ID, map[string]interface{}{
		"wallet_address": walletAddress,
		"role":           role,
	})

	log.Printf("[Admin] Wallet %s promoted to %s", walletAddress, role)
	return &admin, nil
}

// DemoteAdmin removes admin privileges
func (s *AdminService) DemoteAdmin(adminID uint, demotedByAdminID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Delete(&models.AdminAccount{}, adminID).Error; err != nil {
		return fmt.Errorf("failed to demote admin: %w", err)
	}

	s.LogAdminAction(demotedByAdminID, "DEMOTE_ADMIN", "ADMIN_ACCOUNT", &adminID, nil)
	return nil
}

// LogAdminAction logs an admin action
func (s *AdminService) LogAdminAction(adminID uint, action string, resourceType string,
	resourceID *uint, details map[string]interface{}) error {

	adminLog := models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSONB(details),
	}

	return s.db.Create(&adminLog).Error
}

// GetAdminLogs returns admin activity logs
func (s *AdminService) GetAdminLogs(limit int, offset int) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	if err := s.db.Preload("Admin").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// GetEngineStats computes the live platform summary
func (s *AdminService) GetEngineStats() (*models.EngineStats, error) {
	stats := &models.EngineStats{
		AvgReputation:  decimal.Zero,
		ValidationRate: decimal.Zero,
	}

	s.db.Model(&models.Market{}).Count(&stats.TotalMarkets)
	s.db.Model(&models.Market{}).Where("status = ?", models.MarketStatusPending).Count(&stats.PendingMarkets)
	s.db.Model(&models.Market{}).Where("status = ?", models.MarketStatusValidated).Count(&stats.ValidatedMarkets)
	s.db.Model(&models.Oracle{}).Count(&stats.TotalOracles)
	s.db.Model(&models.Oracle{}).Where("is_active = ?", true).Count(&stats.ActiveOracles)
	s.db.Model(&models.Vote{}).Count(&stats.TotalVotes)

	var state models.EngineState
	if err := s.db.Where("id = ?", models.EngineStateID).First(&state).Error; err == nil {
		stats.TotalStaked = state.TotalStaked
	}

	var treasury models.LedgerAccount
	if err := s.db.Where("address = ?", models.TreasuryAddress).First(&treasury).Error; err == nil {
		stats.TreasuryAvailable = treasury.Available
	}

	if stats.TotalOracles > 0 {
		var reputationSum int64
		s.db.Model(&models.Oracle{}).Select("COALESCE(SUM(reputation), 0)").Scan(&reputationSum)
		stats.AvgReputation = decimal.NewFromInt(reputationSum).
			Div(decimal.NewFromInt(stats.TotalOracles)).Round(2)
	}

	if stats.TotalMarkets > 0 {
		stats.ValidationRate = decimal.NewFromInt(stats.ValidatedMarkets).
			Div(decimal.NewFromInt(stats.TotalMarkets)).
			Mul(decimal.NewFromInt(100)).Round(2)
	}

	return stats, nil
}
