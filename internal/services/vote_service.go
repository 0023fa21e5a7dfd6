package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"truth-market/internal/models"
	"truth-market/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteService accepts oracle ballots during a market's voting window and
// folds them into the per-market tally.
type VoteService struct {
	db               *gorm.DB
	repo             *repository.Repository
	validationWindow time.Duration
	mu               sync.Mutex
}

func NewVoteService(db *gorm.DB, validationWindow time.Duration) *VoteService {
	return &VoteService{
		db:               db,
		repo:             repository.NewRepository(db),
		validationWindow: validationWindow,
	}
}

// SubmitVote records one oracle's ballot on a market. Votes are immutable:
// an oracle gets exactly one per market, weighted by its registered stake
// at submission time.
func (vs *VoteService) SubmitVote(
	ctx context.Context,
	oracleAddress string,
	marketID uint,
	req *models.SubmitVoteRequest,
) (*models.Vote, error) {
	market, err := vs.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMarketNotFound
		}
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	oracle, err := vs.repo.GetOracleByAddress(ctx, oracleAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOracleNotEligible
		}
		return nil, fmt.Errorf("failed to get oracle: %w", err)
	}
	if !oracle.IsActive {
		return nil, models.ErrOracleNotEligible
	}

	outcome := models.Outcome(req.Outcome)
	if !outcome.Valid() {
		return nil, fmt.Errorf("outcome code %d: %w", req.Outcome, models.ErrInvalidOutcome)
	}

	now := time.Now()
	if !now.Before(market.Deadline) {
		return nil, fmt.Errorf("deadline passed: %w", models.ErrValidationPeriodExpired)
	}
	if now.Sub(market.Deadline) > vs.validationWindow {
		return nil, fmt.Errorf("validation window closed: %w", models.ErrValidationPeriodExpired)
	}

	if _, err := vs.repo.GetVote(ctx, marketID, oracle.ID); err == nil {
		return nil, models.ErrAlreadyVoted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}

	if market.Status == models.MarketStatusValidated {
		return nil, models.ErrAlreadyValidated
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	vote := &models.Vote{
		ID:          uuid.New(),
		MarketID:    marketID,
		OracleID:    oracle.ID,
		Outcome:     outcome,
		Confidence:  req.Confidence,
		StakeAtVote: oracle.TotalStaked,
	}

	err = vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := vs.repo.WithTx(tx)

		// The unique (market_id, oracle_id) index backstops the duplicate
		// check above under concurrent submissions.
		if err := txRepo.CreateVote(ctx, vote); err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}

		if err := txRepo.ApplyVoteToTally(ctx, marketID, outcome, vote.StakeAtVote); err != nil {
			return fmt.Errorf("failed to update tally: %w", err)
		}

		if err := txRepo.IncrementMarketParticipants(ctx, marketID); err != nil {
			return fmt.Errorf("failed to update participants: %w", err)
		}

		return txRepo.TouchOracleActivity(ctx, oracle.ID, now)
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Vote] Oracle %d voted %s on market %d (stake %d, confidence %d)",
		oracle.ID, outcome, marketID, vote.StakeAtVote, vote.Confidence)

	return vote, nil
}

// GetOracleVotes retrieves an oracle's vote history
func (vs *VoteService) GetOracleVotes(
	ctx context.Context,
	oracleAddress string,
	limit, offset int,
) ([]*models.Vote, int64, error) {
	oracle, err := vs.repo.GetOracleByAddress(ctx, oracleAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, models.ErrOracleNotEligible
		}
		return nil, 0, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return vs.repo.GetOracleVotes(ctx, oracle.ID, limit, offset)
}
