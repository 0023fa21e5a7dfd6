package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"truth-market/internal/ledger"
	"truth-market/internal/models"
	"truth-market/internal/repository"

	"gorm.io/gorm"
)

// RegistryService manages oracle registration and the stake escrow that
// backs it.
type RegistryService struct {
	db       *gorm.DB
	repo     *repository.Repository
	book     *ledger.VaultLedger
	minStake int64
	mu       sync.Mutex
}

func NewRegistryService(db *gorm.DB, book *ledger.VaultLedger, minStake int64) *RegistryService {
	return &RegistryService{
		db:       db,
		repo:     repository.NewRepository(db),
		book:     book,
		minStake: minStake,
	}
}

// RegisterOracle registers a wallet as an oracle, escrowing the given stake.
// Registering again overwrites the record: reputation and the vote counters
// reset and the registered stake is replaced by the new amount. Engine
// counters are bumped on every call, re-registration included.
func (rs *RegistryService) RegisterOracle(
	ctx context.Context,
	address string,
	stakeAmount int64,
) (*models.Oracle, error) {
	if stakeAmount < rs.minStake {
		return nil, fmt.Errorf("stake %d below minimum %d: %w", stakeAmount, rs.minStake, models.ErrInsufficientStake)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	var oracle *models.Oracle

	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := rs.repo.WithTx(tx)

		if err := rs.book.WithTx(tx).Escrow(ctx, address, stakeAmount, nil); err != nil {
			return err
		}

		now := time.Now()

		existing, err := txRepo.GetOracleByAddress(ctx, address)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up oracle: %w", err)
		}

		if existing != nil {
			existing.Reputation = InitialReputation
			existing.TotalStaked = stakeAmount
			existing.SuccessfulVotes = 0
			existing.FailedVotes = 0
			existing.IsActive = true
			existing.LastActiveAt = now
			if err := txRepo.UpdateOracle(ctx, existing); err != nil {
				return fmt.Errorf("failed to update oracle: %w", err)
			}
			oracle = existing
		} else {
			oracle = &models.Oracle{
				Address:      address,
				Reputation:   InitialReputation,
				TotalStaked:  stakeAmount,
				IsActive:     true,
				LastActiveAt: now,
			}
			if err := txRepo.CreateOracle(ctx, oracle); err != nil {
				return fmt.Errorf("failed to create oracle: %w", err)
			}
		}

		return txRepo.AdjustEngineCounters(ctx, stakeAmount, 1)
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Registry] Oracle %s registered with stake %d (total %d)", address, stakeAmount, oracle.TotalStaked)
	return oracle, nil
}

// GetOracle retrieves an oracle by wallet address
func (rs *RegistryService) GetOracle(ctx context.Context, address string) (*models.Oracle, error) {
	return rs.repo.GetOracleByAddress(ctx, address)
}

// GetOracleStats assembles the public summary for an oracle
func (rs *RegistryService) GetOracleStats(ctx context.Context, address string) (*models.OracleStats, error) {
	oracle, err := rs.repo.GetOracleByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	settled := oracle.SuccessfulVotes + oracle.FailedVotes
	accuracy := float64(0)
	if settled > 0 {
		accuracy = float64(oracle.SuccessfulVotes) / float64(settled) * 100
	}

	_, totalVotes, err := rs.repo.GetOracleVotes(ctx, oracle.ID, 1, 0)
	if err != nil {
		return nil, err
	}

	rewards, err := rs.book.SumEntriesByType(ctx, address, models.LedgerEntryPayout)
	if err != nil {
		return nil, err
	}

	slashed, err := rs.book.SumEntriesByType(ctx, address, models.LedgerEntrySlash)
	if err != nil {
		return nil, err
	}

	return &models.OracleStats{
		Oracle:        *oracle,
		TotalVotes:    totalVotes,
		Accuracy:      accuracy,
		RewardsEarned: rewards,
		AmountSlashed: slashed,
	}, nil
}

// ListOracles retrieves oracles ordered by reputation
func (rs *RegistryService) ListOracles(
	ctx context.Context,
	activeOnly bool,
	limit, offset int,
) ([]*models.Oracle, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return rs.repo.ListOracles(ctx, activeOnly, limit, offset)
}
