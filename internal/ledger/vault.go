package ledger

import (
	"context"
	"fmt"
	"log"

	"truth-market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Book is the balance-moving surface consumed by the engine services.
type Book interface {
	WithTx(tx *gorm.DB) Book
	Deposit(ctx context.Context, address string, amount int64, txSignature string) (*models.LedgerEntry, error)
	Escrow(ctx context.Context, address string, amount int64, marketID *uint) error
	Payout(ctx context.Context, address string, amount int64, marketID *uint) error
	Slash(ctx context.Context, address string, amount int64, marketID *uint) error
}

// VaultLedger is the double-entry book backing oracle stakes and rewards.
// Every movement touches a ledger account and appends an audit entry in the
// same transaction. The treasury account funds payouts and absorbs slashes;
// payouts fail with ErrInsufficientFunds when it cannot cover them.
type VaultLedger struct {
	db *gorm.DB
}

func NewVaultLedger(db *gorm.DB) *VaultLedger {
	return &VaultLedger{db: db}
}

// WithTx returns a ledger bound to the given transaction
func (l *VaultLedger) WithTx(tx *gorm.DB) Book {
	return &VaultLedger{db: tx}
}

// ensureAccount creates the account row for an address if it does not exist
func (l *VaultLedger) ensureAccount(ctx context.Context, address string) error {
	account := models.LedgerAccount{Address: address}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&account).Error
}

func (l *VaultLedger) appendEntry(
	ctx context.Context,
	entryType models.LedgerEntryType,
	address string,
	amount int64,
	marketID *uint,
	txSignature *string,
) (*models.LedgerEntry, error) {
	entry := models.LedgerEntry{
		ID:          uuid.New(),
		Type:        entryType,
		Address:     address,
		Amount:      amount,
		MarketID:    marketID,
		TxSignature: txSignature,
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return &entry, nil
}

// Deposit credits an address's available balance
func (l *VaultLedger) Deposit(ctx context.Context, address string, amount int64, txSignature string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	if err := l.ensureAccount(ctx, address); err != nil {
		return nil, err
	}

	err := l.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ?", address).
		UpdateColumns(map[string]interface{}{
			"available":  gorm.Expr("available + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
	if err != nil {
		return nil, err
	}

	var sig *string
	if txSignature != "" {
		sig = &txSignature
	}

	entry, err := l.appendEntry(ctx, models.LedgerEntryDeposit, address, amount, nil, sig)
	if err != nil {
		return nil, err
	}

	log.Printf("[Ledger] Deposit: %d lamports to %s", amount, address)
	return entry, nil
}

// Escrow moves an address's funds from available into the staked column.
// Returns ErrInsufficientFunds when the available balance cannot cover it;
// a missing account counts as a zero balance.
func (l *VaultLedger) Escrow(ctx context.Context, address string, amount int64, marketID *uint) error {
	if amount <= 0 {
		return fmt.Errorf("escrow amount must be positive")
	}

	res := l.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ? AND available >= ?", address, amount).
		UpdateColumns(map[string]interface{}{
			"available":  gorm.Expr("available - ?", amount),
			"staked":     gorm.Expr("staked + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrInsufficientFunds
	}

	if _, err := l.appendEntry(ctx, models.LedgerEntryEscrow, address, amount, marketID, nil); err != nil {
		return err
	}

	log.Printf("[Ledger] Escrow: %d lamports staked by %s", amount, address)
	return nil
}

// Payout debits the treasury and credits the recipient's available balance.
// Returns ErrInsufficientFunds when the treasury cannot cover the amount.
func (l *VaultLedger) Payout(ctx context.Context, address string, amount int64, marketID *uint) error {
	if amount <= 0 {
		return fmt.Errorf("payout amount must be positive")
	}

	if err := l.ensureAccount(ctx, address); err != nil {
		return err
	}

	res := l.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ? AND available >= ?", models.TreasuryAddress, amount).
		UpdateColumns(map[string]interface{}{
			"available":  gorm.Expr("available - ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrInsufficientFunds
	}

	err := l.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ?", address).
		UpdateColumns(map[string]interface{}{
			"available":  gorm.Expr("available + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
	if err != nil {
		return err
	}

	if _, err := l.appendEntry(ctx, models.LedgerEntryPayout, address, amount, marketID, nil); err != nil {
		return err
	}

	log.Printf("[Ledger] Payout: %d lamports to %s", amount, address)
	return nil
}

// Slash moves staked funds from an address into the treasury. Returns
// ErrInsufficientFunds when the address's staked balance falls short.
func (l *VaultLedger) Slash(ctx context.Context, address string, amount int64, marketID *uint) error {
	if amount <= 0 {
		return fmt.Errorf("slash amount must be positive")
	}

	if err := l.ensureAccount(ctx, models.TreasuryAddress); err != nil {
		return err
	}

	res := l.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ? AND staked >= ?", address, amount).
		UpdateColumns(map[string]interface{}{
			"staked":     gorm.Expr("staked - ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrInsufficientFunds
	}

	err := l.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("address = ?", models.TreasuryAddress).
		UpdateColumns(map[string]interface{}{
			"available":  gorm.Expr("available + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
	if err != nil {
		return err
	}

	if _, err := l.appendEntry(ctx, models.LedgerEntrySlash, address, amount, marketID, nil); err != nil {
		return err
	}

	log.Printf("[Ledger] Slash: %d lamports from %s", amount, address)
	return nil
}

// GetAccount retrieves the balances held for an address. A missing account
// is returned as zero balances rather than an error.
func (l *VaultLedger) GetAccount(ctx context.Context, address string) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := l.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return &models.LedgerAccount{Address: address}, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetEntries retrieves the audit trail for an address with total count
func (l *VaultLedger) GetEntries(
	ctx context.Context,
	address string,
	limit, offset int,
) ([]*models.LedgerEntry, int64, error) {
	var total int64
	err := l.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("address = ?", address).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var entries []*models.LedgerEntry
	err = l.db.WithContext(ctx).
		Where("address = ?", address).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// SumEntriesByType totals the audit entries of one type for an address
func (l *VaultLedger) SumEntriesByType(
	ctx context.Context,
	address string,
	entryType models.LedgerEntryType,
) (int64, error) {
	var total int64
	err := l.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("address = ? AND type = ?", address, entryType).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
