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

	"gorm.io/gorm"
)

// MarketService manages market creation and lookup. Market IDs come from
// the engine state counter so they stay sequential across restarts.
type MarketService struct {
	db   *gorm.DB
	repo *repository.Repository
	mu   sync.Mutex
}

func NewMarketService(db *gorm.DB) *MarketService {
	return &MarketService{
		db:   db,
		repo: repository.NewRepository(db),
	}
}

// CreateMarket creates a pending market together with its empty tally row
func (ms *MarketService) CreateMarket(
	ctx context.Context,
	creatorAddress string,
	req *models.CreateMarketRequest,
) (*models.Market, error) {
	if !req.Deadline.After(time.Now()) {
		return nil, fmt.Errorf("deadline %s is not in the future: %w",
			req.Deadline.Format(time.RFC3339), models.ErrUnauthorized)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	var market *models.Market

	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := ms.repo.WithTx(tx)

		marketID, err := txRepo.NextMarketID(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate market ID: %w", err)
		}

		market = &models.Market{
			ID:               marketID,
			CreatorAddress:   creatorAddress,
			Question:         req.Question,
			ResolutionSource: req.ResolutionSource,
			Volume:           req.Volume,
			Deadline:         req.Deadline,
			Status:           models.MarketStatusPending,
		}

		if err := txRepo.CreateMarket(ctx, market); err != nil {
			return fmt.Errorf("failed to create market: %w", err)
		}

		return txRepo.CreateTally(ctx, &models.Tally{MarketID: marketID})
	})

	if err != nil {
		return nil, err
	}

	log.Printf("[Market] Created market %d: %q (deadline %s)", market.ID, market.Question, market.Deadline.Format(time.RFC3339))
	return market, nil
}

// GetMarket retrieves a market together with its vote tally
func (ms *MarketService) GetMarket(ctx context.Context, marketID uint) (*models.Market, *models.Tally, error) {
	market, err := ms.repo.GetMarketByID(ctx, marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.ErrMarketNotFound
		}
		return nil, nil, err
	}

	tally, err := ms.repo.GetTallyByMarketID(ctx, marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tally = &models.Tally{MarketID: marketID}
		} else {
			return nil, nil, err
		}
	}

	return market, tally, nil
}

// ListMarkets retrieves markets with an optional status filter
func (ms *MarketService) ListMarkets(
	ctx context.Context,
	status models.MarketStatus,
	limit, offset int,
) ([]*models.Market, int64, error) {
	if status != "" && status != models.MarketStatusPending && status != models.MarketStatusValidated {
		return nil, 0, fmt.Errorf("unknown market status %q", status)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return ms.repo.ListMarkets(ctx, status, limit, offset)
}

// SetVolume updates the reported volume that sizes a market's reward pool
func (ms *MarketService) SetVolume(ctx context.Context, marketID uint, volume int64) error {
	err := ms.repo.SetMarketVolume(ctx, marketID, volume)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		market, getErr := ms.repo.GetMarketByID(ctx, marketID)
		if getErr == nil && market.Status == models.MarketStatusValidated {
			return models.ErrAlreadyValidated
		}
		return models.ErrMarketNotFound
	}
	return err
}

// GetVotes retrieves all votes cast on a market
func (ms *MarketService) GetVotes(ctx context.Context, marketID uint) ([]*models.Vote, error) {
	if _, err := ms.repo.GetMarketByID(ctx, marketID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrMarketNotFound
		}
		return nil, err
	}
	return ms.repo.GetVotesByMarket(ctx, marketID)
}
