package ledger

import (
	"context"
	"errors"
	"testing"

	"truth-market/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupLedgerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.LedgerAccount{}, &models.LedgerEntry{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	db.Exec("DELETE FROM ledger_entries")
	db.Exec("DELETE FROM ledger_accounts")

	return db
}

func getBalances(t *testing.T, book *VaultLedger, address string) (int64, int64) {
	account, err := book.GetAccount(context.Background(), address)
	if err != nil {
		t.Fatalf("GetAccount for %s failed: %v", address, err)
	}
	return account.Available, account.Staked
}

func TestDepositAndEscrow(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	entry, err := book.Deposit(ctx, "alice", 1000, "5xSig")
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if entry.Type != models.LedgerEntryDeposit || entry.Amount != 1000 {
		t.Errorf("unexpected entry %s/%d", entry.Type, entry.Amount)
	}
	if entry.TxSignature == nil || *entry.TxSignature != "5xSig" {
		t.Errorf("expected tx signature recorded, got %v", entry.TxSignature)
	}

	if available, _ := getBalances(t, book, "alice"); available != 1000 {
		t.Errorf("expected available 1000, got %d", available)
	}

	if err := book.Escrow(ctx, "alice", 400, nil); err != nil {
		t.Fatalf("Escrow failed: %v", err)
	}
	available, staked := getBalances(t, book, "alice")
	if available != 600 || staked != 400 {
		t.Errorf("expected 600/400 after escrow, got %d/%d", available, staked)
	}

	// Escrow beyond the available balance fails atomically
	err = book.Escrow(ctx, "alice", 700, nil)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	available, staked = getBalances(t, book, "alice")
	if available != 600 || staked != 400 {
		t.Errorf("expected balances unchanged, got %d/%d", available, staked)
	}

	// A missing account is a zero balance, not an error path of its own
	err = book.Escrow(ctx, "nobody", 1, nil)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds for unknown address, got %v", err)
	}

	var entryCount int64
	db.Model(&models.LedgerEntry{}).Where("address = ?", "alice").Count(&entryCount)
	if entryCount != 2 {
		t.Errorf("expected 2 audit entries, got %d", entryCount)
	}
}

func TestDepositRejectsNonPositive(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	if _, err := book.Deposit(ctx, "alice", 0, ""); err == nil {
		t.Error("expected error for zero deposit")
	}
	if _, err := book.Deposit(ctx, "alice", -5, ""); err == nil {
		t.Error("expected error for negative deposit")
	}
}

func TestPayoutDebitsTreasury(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	if _, err := book.Deposit(ctx, models.TreasuryAddress, 500, ""); err != nil {
		t.Fatalf("treasury deposit failed: %v", err)
	}

	marketID := uint(7)
	if err := book.Payout(ctx, "alice", 200, &marketID); err != nil {
		t.Fatalf("Payout failed: %v", err)
	}

	if available, _ := getBalances(t, book, models.TreasuryAddress); available != 300 {
		t.Errorf("expected treasury 300, got %d", available)
	}
	if available, _ := getBalances(t, book, "alice"); available != 200 {
		t.Errorf("expected alice 200, got %d", available)
	}

	// An underfunded treasury rejects the payout before any credit
	err := book.Payout(ctx, "alice", 400, &marketID)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if available, _ := getBalances(t, book, "alice"); available != 200 {
		t.Errorf("expected alice unchanged at 200, got %d", available)
	}
}

func TestSlashMovesStakeToTreasury(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	if _, err := book.Deposit(ctx, "bob", 1000, ""); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := book.Escrow(ctx, "bob", 1000, nil); err != nil {
		t.Fatalf("Escrow failed: %v", err)
	}

	marketID := uint(3)
	if err := book.Slash(ctx, "bob", 300, &marketID); err != nil {
		t.Fatalf("Slash failed: %v", err)
	}

	if _, staked := getBalances(t, book, "bob"); staked != 700 {
		t.Errorf("expected bob staked 700, got %d", staked)
	}
	if available, _ := getBalances(t, book, models.TreasuryAddress); available != 300 {
		t.Errorf("expected treasury 300, got %d", available)
	}

	err := book.Slash(ctx, "bob", 800, &marketID)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, staked := getBalances(t, book, "bob"); staked != 700 {
		t.Errorf("expected bob staked unchanged at 700, got %d", staked)
	}
}

func TestBookConservation(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	deposits := map[string]int64{
		"alice":                1000,
		"bob":                  2000,
		models.TreasuryAddress: 5000,
	}
	var depositedTotal int64
	for address, amount := range deposits {
		if _, err := book.Deposit(ctx, address, amount, ""); err != nil {
			t.Fatalf("Deposit for %s failed: %v", address, err)
		}
		depositedTotal += amount
	}

	if err := book.Escrow(ctx, "alice", 800, nil); err != nil {
		t.Fatalf("Escrow failed: %v", err)
	}
	if err := book.Escrow(ctx, "bob", 1500, nil); err != nil {
		t.Fatalf("Escrow failed: %v", err)
	}
	if err := book.Payout(ctx, "bob", 700, nil); err != nil {
		t.Fatalf("Payout failed: %v", err)
	}
	if err := book.Slash(ctx, "alice", 200, nil); err != nil {
		t.Fatalf("Slash failed: %v", err)
	}

	// Escrow, payout and slash only move value between columns and accounts
	var accounts []models.LedgerAccount
	if err := db.Find(&accounts).Error; err != nil {
		t.Fatalf("failed to load accounts: %v", err)
	}
	var sum int64
	for _, account := range accounts {
		sum += account.Available + account.Staked
	}
	if sum != depositedTotal {
		t.Errorf("expected book total %d, got %d", depositedTotal, sum)
	}
}

func TestGetAccountMissing(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	account, err := book.GetAccount(ctx, "ghost")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Address != "ghost" || account.Available != 0 || account.Staked != 0 {
		t.Errorf("expected zero balances for missing account, got %+v", account)
	}
}

func TestGetEntriesPagination(t *testing.T) {
	db := setupLedgerDB(t)
	ctx := context.Background()
	book := NewVaultLedger(db)

	for i := 0; i < 3; i++ {
		if _, err := book.Deposit(ctx, "alice", 100, ""); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}

	entries, total, err := book.GetEntries(ctx, "alice", 2, 0)
	if err != nil {
		t.Fatalf("GetEntries failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries in page, got %d", len(entries))
	}

	sum, err := book.SumEntriesByType(ctx, "alice", models.LedgerEntryDeposit)
	if err != nil {
		t.Fatalf("SumEntriesByType failed: %v", err)
	}
	if sum != 300 {
		t.Errorf("expected deposit sum 300, got %d", sum)
	}

	sum, err = book.SumEntriesByType(ctx, "alice", models.LedgerEntryPayout)
	if err != nil {
		t.Fatalf("SumEntriesByType failed: %v", err)
	}
	if sum != 0 {
		t.Errorf("expected payout sum 0, got %d", sum)
	}
}
