package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"truth-market/internal/models"
)

func TestCreateMarketSequentialIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service := NewMarketService(db)

	for want := uint(1); want <= 3; want++ {
		market, err := service.CreateMarket(ctx, "creator", &models.CreateMarketRequest{
			Question: "Will the next block land on time?",
			Deadline: time.Now().Add(24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateMarket %d failed: %v", want, err)
		}
		if market.ID != want {
			t.Errorf("expected market ID %d, got %d", want, market.ID)
		}

		// Every market starts with its empty counter row
		var tally models.Tally
		if err := db.Where("market_id = ?", market.ID).First(&tally).Error; err != nil {
			t.Errorf("expected tally for market %d: %v", market.ID, err)
		}
	}

	var state models.EngineState
	if err := db.First(&state, models.EngineStateID).Error; err != nil {
		t.Fatalf("failed to get engine state: %v", err)
	}
	if state.NextMarketID != 4 {
		t.Errorf("expected next market ID 4, got %d", state.NextMarketID)
	}
}

func TestCreateMarketPastDeadline(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service := NewMarketService(db)

	_, err := service.CreateMarket(ctx, "creator", &models.CreateMarketRequest{
		Question: "Already over?",
		Deadline: time.Now().Add(-time.Minute),
	})
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for past deadline, got %v", err)
	}

	// The counter did not move
	var state models.EngineState
	if err := db.First(&state, models.EngineStateID).Error; err != nil {
		t.Fatalf("failed to get engine state: %v", err)
	}
	if state.NextMarketID != 1 {
		t.Errorf("expected next market ID 1 after rollback, got %d", state.NextMarketID)
	}
}

func TestGetMarketWithTally(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service := NewMarketService(db)

	created := createMarket(t, ctx, service, 42)

	market, tally, err := service.GetMarket(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if market.Volume != 42 {
		t.Errorf("expected volume 42, got %d", market.Volume)
	}
	if tally == nil || tally.MarketID != created.ID {
		t.Errorf("expected tally for market %d, got %+v", created.ID, tally)
	}

	_, _, err = service.GetMarket(ctx, 42)
	if !errors.Is(err, models.ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

func TestSetVolume(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service := NewMarketService(db)

	market := createMarket(t, ctx, service, 100)

	if err := service.SetVolume(ctx, market.ID, 500); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	var reloaded models.Market
	if err := db.First(&reloaded, market.ID).Error; err != nil {
		t.Fatalf("failed to reload market: %v", err)
	}
	if reloaded.Volume != 500 {
		t.Errorf("expected volume 500, got %d", reloaded.Volume)
	}

	// Validated markets are frozen
	db.Model(&models.Market{}).Where("id = ?", market.ID).
		Update("status", models.MarketStatusValidated)
	err := service.SetVolume(ctx, market.ID, 900)
	if !errors.Is(err, models.ErrAlreadyValidated) {
		t.Errorf("expected ErrAlreadyValidated, got %v", err)
	}

	err = service.SetVolume(ctx, 42, 900)
	if !errors.Is(err, models.ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

func TestListMarketsStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service := NewMarketService(db)

	first := createMarket(t, ctx, service, 0)
	createMarket(t, ctx, service, 0)
	createMarket(t, ctx, service, 0)

	db.Model(&models.Market{}).Where("id = ?", first.ID).
		Update("status", models.MarketStatusValidated)

	pending, total, err := service.ListMarkets(ctx, models.MarketStatusPending, 50, 0)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if total != 2 || len(pending) != 2 {
		t.Errorf("expected 2 pending markets, got total=%d len=%d", total, len(pending))
	}

	all, total, err := service.ListMarkets(ctx, "", 50, 0)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Errorf("expected 3 markets, got total=%d len=%d", total, len(all))
	}

	if _, _, err := service.ListMarkets(ctx, "BOGUS", 50, 0); err == nil {
		t.Error("expected error for unknown status")
	}
}
