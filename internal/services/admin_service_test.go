package services

import (
	"context"
	"testing"

	"truth-market/internal/ledger"
	"truth-market/internal/models"

	"github.com/shopspring/decimal"
)

func TestPromoteWallet(t *testing.T) {
	db := setupTestDB(t)

	service := NewAdminService(db)

	if service.IsAdmin("wallet-1") {
		t.Error("expected wallet-1 not to be admin yet")
	}

	admin, err := service.PromoteWallet("wallet-1", "OPERATOR", 0)
	if err != nil {
		t.Fatalf("PromoteWallet failed: %v", err)
	}
	if !service.IsAdmin("wallet-1") {
		t.Error("expected wallet-1 to be admin")
	}
	if admin.Permissions["manage_admins"] != false {
		t.Errorf("expected operator without manage_admins, got %v", admin.Permissions["manage_admins"])
	}

	super, err := service.PromoteWallet("wallet-2", "SUPER_ADMIN", admin.ID)
	if err != nil {
		t.Fatalf("PromoteWallet failed: %v", err)
	}
	if super.Permissions["manage_admins"] != true {
		t.Errorf("expected super admin with manage_admins, got %v", super.Permissions["manage_admins"])
	}

	// Duplicates and unknown roles are rejected
	if _, err := service.PromoteWallet("wallet-1", "OPERATOR", 0); err == nil {
		t.Error("expected error promoting an existing admin")
	}
	if _, err := service.PromoteWallet("wallet-3", "GODMODE", 0); err == nil {
		t.Error("expected error for unknown role")
	}

	logs, err := service.GetAdminLogs(10, 0)
	if err != nil {
		t.Fatalf("GetAdminLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(logs))
	}
	if logs[0].Action != "PROMOTE_WALLET" {
		t.Errorf("expected PROMOTE_WALLET action, got %s", logs[0].Action)
	}
}

func TestDemoteAdmin(t *testing.T) {
	db := setupTestDB(t)

	service := NewAdminService(db)

	admin, err := service.PromoteWallet("wallet-1", "OPERATOR", 0)
	if err != nil {
		t.Fatalf("PromoteWallet failed: %v", err)
	}

	if err := service.DemoteAdmin(admin.ID, 0); err != nil {
		t.Fatalf("DemoteAdmin failed: %v", err)
	}
	if service.IsAdmin("wallet-1") {
		t.Error("expected wallet-1 demoted")
	}
}

func TestGetEngineStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := ledger.NewVaultLedger(db)
	registry := NewRegistryService(db, book, 1000)
	markets := NewMarketService(db)
	service := NewAdminService(db)

	first := createMarket(t, ctx, markets, 0)
	createMarket(t, ctx, markets, 0)
	db.Model(&models.Market{}).Where("id = ?", first.ID).
		Update("status", models.MarketStatusValidated)

	registerOracle(t, ctx, book, registry, "oracle-a", 1000)
	registerOracle(t, ctx, book, registry, "oracle-b", 3000)

	if _, err := book.Deposit(ctx, models.TreasuryAddress, 7777, ""); err != nil {
		t.Fatalf("treasury deposit failed: %v", err)
	}

	stats, err := service.GetEngineStats()
	if err != nil {
		t.Fatalf("GetEngineStats failed: %v", err)
	}

	if stats.TotalMarkets != 2 || stats.PendingMarkets != 1 || stats.ValidatedMarkets != 1 {
		t.Errorf("expected markets 2/1/1, got %d/%d/%d",
			stats.TotalMarkets, stats.PendingMarkets, stats.ValidatedMarkets)
	}
	if stats.TotalOracles != 2 || stats.ActiveOracles != 2 {
		t.Errorf("expected 2 oracles, got %d/%d", stats.TotalOracles, stats.ActiveOracles)
	}
	if stats.TotalStaked != 4000 {
		t.Errorf("expected total staked 4000, got %d", stats.TotalStaked)
	}
	if stats.TreasuryAvailable != 7777 {
		t.Errorf("expected treasury 7777, got %d", stats.TreasuryAvailable)
	}
	if !stats.AvgReputation.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected average reputation 500, got %s", stats.AvgReputation)
	}
	if !stats.ValidationRate.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected validation rate 50, got %s", stats.ValidationRate)
	}
}
