package services

import (
	"context"
	"errors"
	"testing"

	"truth-market/internal/ledger"
	"truth-market/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.EngineState{},
		&models.Market{},
		&models.Oracle{},
		&models.Vote{},
		&models.Tally{},
		&models.FinalizationRecord{},
		&models.LedgerAccount{},
		&models.LedgerEntry{},
		&models.AdminAccount{},
		&models.AdminLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// cache=shared keeps one database per process, so every test starts by
	// wiping the shared tables and reseeding the counter row.
	for _, table := range []string{
		"admin_logs", "admin_accounts", "ledger_entries", "ledger_accounts",
		"finalization_records", "tallies", "votes", "oracles", "markets",
		"engine_state",
	} {
		db.Exec("DELETE FROM " + table)
	}

	state := models.EngineState{ID: models.EngineStateID, NextMarketID: 1}
	if err := db.Create(&state).Error; err != nil {
		t.Fatalf("failed to seed engine state: %v", err)
	}

	return db
}

func TestRegisterOracle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := ledger.NewVaultLedger(db)
	service := NewRegistryService(db, book, 1000)

	if _, err := book.Deposit(ctx, "oracle-a", 5000, ""); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	oracle, err := service.RegisterOracle(ctx, "oracle-a", 1000)
	if err != nil {
		t.Fatalf("RegisterOracle failed: %v", err)
	}

	if oracle.Reputation != 500 {
		t.Errorf("expected starting reputation 500, got %d", oracle.Reputation)
	}
	if oracle.TotalStaked != 1000 {
		t.Errorf("expected total staked 1000, got %d", oracle.TotalStaked)
	}
	if !oracle.IsActive {
		t.Error("expected oracle to be active")
	}

	// Stake moved from available into escrow
	account, err := book.GetAccount(ctx, "oracle-a")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Available != 4000 {
		t.Errorf("expected available 4000, got %d", account.Available)
	}
	if account.Staked != 1000 {
		t.Errorf("expected staked 1000, got %d", account.Staked)
	}

	var state models.EngineState
	if err := db.First(&state, models.EngineStateID).Error; err != nil {
		t.Fatalf("failed to get engine state: %v", err)
	}
	if state.TotalStaked != 1000 {
		t.Errorf("expected engine total staked 1000, got %d", state.TotalStaked)
	}
	if state.ActiveOracles != 1 {
		t.Errorf("expected engine active oracles 1, got %d", state.ActiveOracles)
	}
}

func TestRegisterOracleBelowMinimum(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := ledger.NewVaultLedger(db)
	service := NewRegistryService(db, book, 1000)

	if _, err := book.Deposit(ctx, "oracle-b", 5000, ""); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	_, err := service.RegisterOracle(ctx, "oracle-b", 999)
	if !errors.Is(err, models.ErrInsufficientStake) {
		t.Errorf("expected ErrInsufficientStake, got %v", err)
	}

	// Nothing was escrowed
	account, _ := book.GetAccount(ctx, "oracle-b")
	if account.Staked != 0 {
		t.Errorf("expected staked 0 after rejection, got %d", account.Staked)
	}
}

func TestRegisterOracleWithoutFunds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := ledger.NewVaultLedger(db)
	service := NewRegistryService(db, book, 1000)

	_, err := service.RegisterOracle(ctx, "oracle-broke", 1000)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	var count int64
	db.Model(&models.Oracle{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no oracle rows after rollback, got %d", count)
	}
}

func TestReRegisterOverwritesRecord(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := ledger.NewVaultLedger(db)
	service := NewRegistryService(db, book, 1000)

	if _, err := book.Deposit(ctx, "oracle-c", 10000, ""); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if _, err := service.RegisterOracle(ctx, "oracle-c", 1000); err != nil {
		t.Fatalf("first RegisterOracle failed: %v", err)
	}

	// Simulate settlement history and deactivation before re-registering
	db.Model(&models.Oracle{}).Where("address = ?", "oracle-c").
		Updates(map[string]interface{}{
			"reputation":       700,
			"successful_votes": 4,
			"failed_votes":     2,
			"is_active":        false,
		})

	oracle, err := service.RegisterOracle(ctx, "oracle-c", 2000)
	if err != nil {
		t.Fatalf("second RegisterOracle failed: %v", err)
	}

	// Re-registration resets the record to a fresh oracle with the new stake
	if oracle.Reputation != 500 {
		t.Errorf("expected reputation reset to 500, got %d", oracle.Reputation)
	}
	if oracle.TotalStaked != 2000 {
		t.Errorf("expected total staked 2000, got %d", oracle.TotalStaked)
	}
	if oracle.SuccessfulVotes != 0 || oracle.FailedVotes != 0 {
		t.Errorf("expected vote counters reset, got %d/%d",
			oracle.SuccessfulVotes, oracle.FailedVotes)
	}
	if !oracle.IsActive {
		t.Error("expected oracle reactivated")
	}

	// Both registrations escrowed stake in the book
	account, err := book.GetAccount(ctx, "oracle-c")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Staked != 3000 {
		t.Errorf("expected book staked 3000, got %d", account.Staked)
	}

	// Engine counters bump on every registration, re-registration included
	var state models.EngineState
	if err := db.First(&state, models.EngineStateID).Error; err != nil {
		t.Fatalf("failed to get engine state: %v", err)
	}
	if state.TotalStaked != 3000 {
		t.Errorf("expected engine total staked 3000, got %d", state.TotalStaked)
	}
	if state.ActiveOracles != 2 {
		t.Errorf("expected engine active oracles 2, got %d", state.ActiveOracles)
	}
}

func TestGetOracleStatsFresh(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := ledger.NewVaultLedger(db)
	service := NewRegistryService(db, book, 1000)

	if _, err := book.Deposit(ctx, "oracle-d", 2000, ""); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if _, err := service.RegisterOracle(ctx, "oracle-d", 2000); err != nil {
		t.Fatalf("RegisterOracle failed: %v", err)
	}

	stats, err := service.GetOracleStats(ctx, "oracle-d")
	if err != nil {
		t.Fatalf("GetOracleStats failed: %v", err)
	}

	if stats.TotalVotes != 0 {
		t.Errorf("expected 0 votes, got %d", stats.TotalVotes)
	}
	if stats.Accuracy != 0 {
		t.Errorf("expected accuracy 0 before any settlement, got %f", stats.Accuracy)
	}
	if stats.RewardsEarned != 0 || stats.AmountSlashed != 0 {
		t.Errorf("expected zero reward history, got rewards=%d slashed=%d",
			stats.RewardsEarned, stats.AmountSlashed)
	}
}
