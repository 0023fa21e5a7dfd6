package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"truth-market/internal/blockchain"
	"truth-market/internal/ledger"
	"truth-market/internal/models"
	"truth-market/internal/notify"
	"truth-market/internal/repository"

	"gorm.io/gorm"
)

// FinalizeService settles markets: it decides consensus from the tally,
// adjusts oracle reputation, distributes stake-weighted rewards and slashes
// dissenters. The guarded tally completion is the exactly-once boundary;
// the mutex only serializes finalizers within this process.
type FinalizeService struct {
	db               *gorm.DB
	repo             *repository.Repository
	book             ledger.Book
	vault            *blockchain.StakeVault
	notifier         notify.Notifier
	validationWindow time.Duration
	mu               sync.Mutex
}

func NewFinalizeService(
	db *gorm.DB,
	book ledger.Book,
	vault *blockchain.StakeVault,
	notifier notify.Notifier,
	validationWindow time.Duration,
) *FinalizeService {
	return &FinalizeService{
		db:               db,
		repo:             repository.NewRepository(db),
		book:             book,
		vault:            vault,
		notifier:         notifier,
		validationWindow: validationWindow,
	}
}

// chainTransfer is an on-chain settlement mirror executed after commit
type chainTransfer struct {
	address string
	amount  int64
	slash   bool
}

// FinalizeMarket settles one market. Force settles before the validation
// window closes and is restricted to admin wallets; the flags select which
// settlement stages run.
func (fs *FinalizeService) FinalizeMarket(
	ctx context.Context,
	marketID uint,
	callerAddress string,
	req *models.FinalizeMarketRequest,
) (*models.FinalizationRecord, error) {
	market, err := fs.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMarketNotFound
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	if market.Status == models.MarketStatusValidated {
		return nil, models.ErrAlreadyValidated
	}

	now := time.Now()
	if !req.Force {
		if !now.After(market.Deadline.Add(fs.validationWindow)) {
			return nil, fmt.Errorf("validation window still open: %w", models.ErrValidationPeriodExpired)
		}
	} else {
		admin, err := fs.isAdmin(ctx, callerAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to check admin role: %w", err)
		}
		if !admin {
			return nil, fmt.Errorf("force finalize requires an admin wallet: %w", models.ErrUnauthorized)
		}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	var record *models.FinalizationRecord
	var transfers []chainTransfer

	err = fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := fs.repo.WithTx(tx)
		txBook := fs.book.WithTx(tx)

		tally, err := txRepo.GetTallyByMarketID(ctx, marketID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tally = &models.Tally{MarketID: marketID}
			if err := txRepo.CreateTally(ctx, tally); err != nil {
				return fmt.Errorf("failed to create tally: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to get tally: %w", err)
		}

		outcome := DecideOutcome(tally.YesVotes, tally.NoVotes, tally.InvalidVotes)
		strength := ConsensusStrength(tally.YesVotes, tally.NoVotes, tally.InvalidVotes)

		record = &models.FinalizationRecord{
			MarketID:          marketID,
			Outcome:           outcome,
			ConsensusStrength: strength,
			TotalVotes:        tally.TotalVotes,
			TotalStakeVoted:   tally.TotalStakeVoted,
			Forced:            req.Force,
			DisputesProcessed: req.ProcessDisputes,
		}

		// Without consensus nobody is right or wrong: no reputation moves,
		// no rewards, no slashes.
		if outcome != nil {
			if err := fs.settleVotes(ctx, txRepo, txBook, market, *outcome, req, record, &transfers); err != nil {
				return err
			}
		}

		completed, err := txRepo.CompleteTally(ctx, marketID, outcome)
		if err != nil {
			return fmt.Errorf("failed to complete tally: %w", err)
		}
		if !completed {
			return models.ErrAlreadyValidated
		}

		market.Status = models.MarketStatusValidated
		market.Outcome = outcome
		market.ValidatedAt = &now
		if err := txRepo.UpdateMarket(ctx, market); err != nil {
			return fmt.Errorf("failed to update market: %w", err)
		}

		return txRepo.CreateFinalizationRecord(ctx, record)
	})

	if err != nil {
		return nil, err
	}

	fs.executeChainTransfers(marketID, transfers)
	fs.publishFinalized(market, record, now)

	log.Printf("[Finalize] Market %d settled: outcome=%v strength=%d%% rewards=%d slashed=%d",
		marketID, record.Outcome, record.ConsensusStrength, record.RewardsPaid, record.TotalSlashed)

	return record, nil
}

// settleVotes walks every vote on the market and applies the reputation,
// reward and slash stages selected by the request flags.
func (fs *FinalizeService) settleVotes(
	ctx context.Context,
	txRepo *repository.Repository,
	txBook ledger.Book,
	market *models.Market,
	outcome models.Outcome,
	req *models.FinalizeMarketRequest,
	record *models.FinalizationRecord,
	transfers *[]chainTransfer,
) error {
	votes, err := txRepo.GetVotesByMarket(ctx, market.ID)
	if err != nil {
		return fmt.Errorf("failed to load votes: %w", err)
	}

	var pool, cohortStake int64
	if req.DistributeRewards {
		pool = RewardPool(market.Volume)
		for _, vote := range votes {
			if vote.Outcome == outcome {
				cohortStake += vote.StakeAtVote
			}
		}
		record.RewardPool = pool
	}

	var engineStakeDelta int64

	for _, vote := range votes {
		oracle, err := txRepo.GetOracleByID(ctx, vote.OracleID)
		if err != nil {
			return fmt.Errorf("failed to load oracle %d: %w", vote.OracleID, err)
		}

		var reputationDelta, stakeDelta, successIncr, failIncr int64
		correct := vote.Outcome == outcome

		if req.CalculateReputation {
			if correct {
				reputationDelta = ReputationReward
				successIncr = 1
			} else {
				reputationDelta = -ReputationPenalty
				failIncr = 1
			}
		}

		if req.DistributeRewards {
			if correct {
				reward := OracleReward(pool, vote.StakeAtVote, cohortStake)
				if reward > 0 {
					record.RewardsPaid += reward
					record.OraclesRewarded++
					if req.ExecutePayouts {
						if err := txBook.Payout(ctx, oracle.Address, reward, &market.ID); err != nil {
							return fmt.Errorf("failed to pay reward to %s: %w", oracle.Address, err)
						}
						*transfers = append(*transfers, chainTransfer{address: oracle.Address, amount: reward})
					}
				}
			} else {
				slash := SlashAmount(oracle.TotalStaked)
				if slash > 0 {
					record.TotalSlashed += slash
					record.OraclesSlashed++
					stakeDelta = -slash
					engineStakeDelta -= slash
					if err := txBook.Slash(ctx, oracle.Address, slash, &market.ID); err != nil {
						return fmt.Errorf("failed to slash %s: %w", oracle.Address, err)
					}
					if req.ExecutePayouts {
						*transfers = append(*transfers, chainTransfer{address: oracle.Address, amount: slash, slash: true})
					}
				}
			}
		}

		if reputationDelta != 0 || stakeDelta != 0 || successIncr != 0 || failIncr != 0 {
			err := txRepo.ApplySettlementToOracle(ctx, oracle.ID, reputationDelta, stakeDelta, successIncr, failIncr)
			if err != nil {
				return fmt.Errorf("failed to settle oracle %d: %w", oracle.ID, err)
			}
		}
	}

	if engineStakeDelta != 0 {
		return txRepo.AdjustEngineCounters(ctx, engineStakeDelta, 0)
	}

	return nil
}

// executeChainTransfers mirrors committed book movements on-chain. The book
// is authoritative; on-chain failures are logged, not rolled back.
func (fs *FinalizeService) executeChainTransfers(marketID uint, transfers []chainTransfer) {
	if fs.vault == nil || len(transfers) == 0 {
		return
	}

	ctx := context.Background()
	for _, transfer := range transfers {
		var err error
		if transfer.slash {
			_, err = fs.vault.SlashStake(ctx, marketID, transfer.address, transfer.amount)
		} else {
			_, err = fs.vault.ReleaseReward(ctx, marketID, transfer.address, transfer.amount)
		}
		if err != nil {
			log.Printf("[Finalize] On-chain transfer failed for %s on market %d: %v", transfer.address, marketID, err)
		}
	}
}

func (fs *FinalizeService) publishFinalized(market *models.Market, record *models.FinalizationRecord, at time.Time) {
	if fs.notifier == nil {
		return
	}

	var outcome *string
	if record.Outcome != nil {
		s := record.Outcome.String()
		outcome = &s
	}

	event := notify.FinalizedEvent{
		MarketID:          market.ID,
		Outcome:           outcome,
		ConsensusStrength: record.ConsensusStrength,
		TotalVotes:        record.TotalVotes,
		RewardsPaid:       record.RewardsPaid,
		TotalSlashed:      record.TotalSlashed,
		Forced:            record.Forced,
		FinalizedAt:       at,
	}

	go fs.notifier.MarketFinalized(context.Background(), event)
}

// isAdmin reports whether the wallet is registered as an admin account
func (fs *FinalizeService) isAdmin(ctx context.Context, address string) (bool, error) {
	if address == "" {
		return false, nil
	}
	var count int64
	err := fs.db.WithContext(ctx).Model(&models.AdminAccount{}).
		Where("wallet_address = ?", address).
		Count(&count).Error
	return count > 0, err
}

// GetFinalizationRecord retrieves the settlement summary for a market
func (fs *FinalizeService) GetFinalizationRecord(ctx context.Context, marketID uint) (*models.FinalizationRecord, error) {
	record, err := fs.repo.GetFinalizationRecord(ctx, marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMarketNotFound
		}
		return nil, err
	}
	return record, nil
}

// FinalizeDueMarkets settles every pending market whose validation window
// has closed. Used by the background finalizer.
func (fs *FinalizeService) FinalizeDueMarkets(ctx context.Context, batchSize int) (int, error) {
	cutoff := time.Now().Add(-fs.validationWindow)

	markets, err := fs.repo.GetDueMarkets(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due markets: %w", err)
	}

	settled := 0
	for _, market := range markets {
		_, err := fs.FinalizeMarket(ctx, market.ID, "", &models.FinalizeMarketRequest{
			ProcessDisputes:     true,
			CalculateReputation: true,
			DistributeRewards:   true,
			ExecutePayouts:      true,
		})
		if err != nil {
			if errors.Is(err, models.ErrAlreadyValidated) {
				continue
			}
			log.Printf("[Finalize] Failed to settle market %d: %v", market.ID, err)
			continue
		}
		settled++
	}

	return settled, nil
}
