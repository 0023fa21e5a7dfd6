package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"truth-market/internal/models"
	"truth-market/internal/polymarket"
	"truth-market/internal/repository"
)

const (
	// ImportBatchLimit caps how many new claims one import pass seeds.
	ImportBatchLimit = 10
	// FeedFetchLimit is how many open markets one feed page returns.
	FeedFetchLimit = 100
)

// lamportsPerUnit converts feed volume (whole tokens) into base units.
var lamportsPerUnit = decimal.NewFromInt(1_000_000_000)

// MarketImporterService seeds validation markets from the external claims
// feed so oracles always have fresh questions with real volume behind them.
type MarketImporterService struct {
	db     *gorm.DB
	repo   *repository.Repository
	client *polymarket.PolymarketClient
}

func NewMarketImporterService(db *gorm.DB, baseURL, apiKey, secret, passphrase string) *MarketImporterService {
	return &MarketImporterService{
		db:     db,
		repo:   repository.NewRepository(db),
		client: polymarket.NewPolymarketClient(baseURL, apiKey, secret, passphrase),
	}
}

// ImportMarkets fetches open claims from the feed, keeps the highest-volume
// ones we have not seen yet and stores them as pending markets. Returns the
// number of markets created.
func (s *MarketImporterService) ImportMarkets(ctx context.Context) (int, error) {
	feed, err := s.client.GetActiveMarkets(FeedFetchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch claims feed: %w", err)
	}

	if len(feed) == 0 {
		log.Println("[Importer] Feed returned no open markets")
		return 0, nil
	}

	top := topMarketsByVolume(feed, ImportBatchLimit)

	created := 0
	for i := range top {
		select {
		case <-ctx.Done():
			return created, ctx.Err()
		default:
		}

		stored, err := s.storeMarket(ctx, &top[i])
		if err != nil {
			log.Printf("[Importer] Failed to store market %s: %v", top[i].ID, err)
			continue
		}
		if stored {
			created++
		}
	}

	if created > 0 {
		log.Printf("[Importer] Seeded %d new markets from the feed", created)
	}
	return created, nil
}

// storeMarket creates one market from a feed entry, or refreshes the volume
// of an already-imported one. Reports whether a new market was created.
func (s *MarketImporterService) storeMarket(ctx context.Context, fm *polymarket.PolymarketMarket) (bool, error) {
	if fm.Closed || !fm.Active || fm.Question == "" {
		return false, nil
	}

	deadline, err := fm.EndTime()
	if err != nil {
		return false, nil
	}
	if !deadline.After(time.Now()) {
		return false, nil
	}

	volume := feedVolumeLamports(fm.Volume)

	existing, err := s.repo.GetMarketByExternalID(ctx, fm.ID)
	if err == nil {
		// Already imported. Keep the volume fresh while the market is
		// still pending; the reward pool is cut from it at settlement.
		if existing.Status == models.MarketStatusPending && volume > 0 && volume != existing.Volume {
			if err := s.repo.SetMarketVolume(ctx, existing.ID, volume); err != nil &&
				!errors.Is(err, gorm.ErrRecordNotFound) {
				return false, err
			}
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	externalID := fm.ID
	market := &models.Market{
		CreatorAddress:   models.TreasuryAddress,
		Question:         fm.Question,
		ResolutionSource: feedResolutionSource(fm),
		Volume:           volume,
		Deadline:         deadline,
		Status:           models.MarketStatusPending,
		ExternalID:       &externalID,
		CreatedAt:        time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		id, err := txRepo.NextMarketID(ctx)
		if err != nil {
			return err
		}
		market.ID = id

		if err := txRepo.CreateMarket(ctx, market); err != nil {
			return err
		}
		return txRepo.CreateTally(ctx, &models.Tally{MarketID: market.ID})
	})
	if err != nil {
		return false, err
	}

	log.Printf("[Importer] Imported market %d: %q (deadline %s, volume %d)",
		market.ID, market.Question, market.Deadline.Format(time.RFC3339), market.Volume)
	return true, nil
}

// RefreshVolumes re-reads the feed for every pending imported market and
// updates stale volumes.
func (s *MarketImporterService) RefreshVolumes(ctx context.Context) error {
	var markets []models.Market
	if err := s.db.WithContext(ctx).
		Where("status = ? AND external_id IS NOT NULL", models.MarketStatusPending).
		Find(&markets).Error; err != nil {
		return fmt.Errorf("failed to load imported markets: %w", err)
	}

	refreshed := 0
	for _, m := range markets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fm, err := s.client.GetMarketByID(*m.ExternalID)
		if err != nil {
			log.Printf("[Importer] Volume refresh skipped for market %d: %v", m.ID, err)
			continue
		}

		volume := feedVolumeLamports(fm.Volume)
		if volume <= 0 || volume == m.Volume {
			continue
		}

		if err := s.repo.SetMarketVolume(ctx, m.ID, volume); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[Importer] Volume refresh failed for market %d: %v", m.ID, err)
			}
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		log.Printf("[Importer] Refreshed volume on %d markets", refreshed)
	}
	return nil
}

// topMarketsByVolume sorts markets by volume and returns top N
func topMarketsByVolume(markets []polymarket.PolymarketMarket, limit int) []polymarket.PolymarketMarket {
	// Pre-calculate volume floats to avoid repeated parsing
	for i := range markets {
		markets[i].VolumeNum = markets[i].GetVolumeFloat()
	}

	sort.Slice(markets, func(i, j int) bool {
		return markets[i].VolumeNum > markets[j].VolumeNum
	})

	if len(markets) > limit {
		return markets[:limit]
	}
	return markets
}

// feedVolumeLamports converts the feed's decimal volume string to base units.
// Unparseable or negative volume is treated as zero.
func feedVolumeLamports(raw string) int64 {
	vol, err := decimal.NewFromString(raw)
	if err != nil || vol.IsNegative() {
		return 0
	}
	return vol.Mul(lamportsPerUnit).IntPart()
}

// feedResolutionSource builds the canonical place the claim resolves from.
func feedResolutionSource(fm *polymarket.PolymarketMarket) string {
	if fm.Slug != "" {
		return "https://polymarket.com/market/" + fm.Slug
	}
	return "polymarket:" + fm.ID
}
