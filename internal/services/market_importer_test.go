package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"truth-market/internal/models"
	"truth-market/internal/polymarket"
)

// feedServer serves the given entries both as the open-markets listing and as
// single-market lookups under /markets/{id}.
func feedServer(feed *[]polymarket.PolymarketMarket) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimPrefix(r.URL.Path, "/markets/"); id != r.URL.Path {
			for _, market := range *feed {
				if market.ID == id {
					json.NewEncoder(w).Encode(market)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(*feed)
	}))
}

func TestImportMarkets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	endDate := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	feed := []polymarket.PolymarketMarket{
		{ID: "pm-1", Question: "Will BTC close above 100k this year?", Slug: "btc-100k", Volume: "1.5", Active: true, EndDate: endDate},
		{ID: "pm-2", Question: "Closed market", Volume: "9", Active: true, Closed: true, EndDate: endDate},
		{ID: "pm-3", Question: "", Volume: "9", Active: true, EndDate: endDate},
		{ID: "pm-4", Question: "Already over", Volume: "9", Active: true, EndDate: "2020-01-01T00:00:00Z"},
		{ID: "pm-5", Question: "No end date", Volume: "9", Active: true},
	}

	server := feedServer(&feed)
	defer server.Close()

	service := NewMarketImporterService(db, server.URL, "", "", "")

	created, err := service.ImportMarkets(ctx)
	if err != nil {
		t.Fatalf("ImportMarkets failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 imported market, got %d", created)
	}

	var market models.Market
	if err := db.Where("external_id = ?", "pm-1").First(&market).Error; err != nil {
		t.Fatalf("failed to load imported market: %v", err)
	}
	if market.Question != "Will BTC close above 100k this year?" {
		t.Errorf("unexpected question %q", market.Question)
	}
	if market.CreatorAddress != models.TreasuryAddress {
		t.Errorf("expected treasury creator, got %s", market.CreatorAddress)
	}
	if market.Volume != 1_500_000_000 {
		t.Errorf("expected volume 1500000000 lamports, got %d", market.Volume)
	}
	if market.ResolutionSource != "https://polymarket.com/market/btc-100k" {
		t.Errorf("unexpected resolution source %s", market.ResolutionSource)
	}
	if market.Status != models.MarketStatusPending {
		t.Errorf("expected PENDING, got %s", market.Status)
	}

	var tally models.Tally
	if err := db.Where("market_id = ?", market.ID).First(&tally).Error; err != nil {
		t.Errorf("expected tally row for imported market: %v", err)
	}

	// Re-running the import refreshes the volume instead of duplicating
	feed[0].Volume = "2.5"
	created, err = service.ImportMarkets(ctx)
	if err != nil {
		t.Fatalf("second ImportMarkets failed: %v", err)
	}
	if created != 0 {
		t.Errorf("expected 0 new markets on rerun, got %d", created)
	}

	var count int64
	db.Model(&models.Market{}).Count(&count)
	if count != 1 {
		t.Errorf("expected single market row, got %d", count)
	}

	if err := db.First(&market, market.ID).Error; err != nil {
		t.Fatalf("failed to reload market: %v", err)
	}
	if market.Volume != 2_500_000_000 {
		t.Errorf("expected refreshed volume 2500000000, got %d", market.Volume)
	}
}

func TestRefreshVolumes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	endDate := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	feed := []polymarket.PolymarketMarket{
		{ID: "pm-1", Question: "Trending claim?", Volume: "3", Active: true, EndDate: endDate},
	}

	server := feedServer(&feed)
	defer server.Close()

	service := NewMarketImporterService(db, server.URL, "", "", "")

	if _, err := service.ImportMarkets(ctx); err != nil {
		t.Fatalf("ImportMarkets failed: %v", err)
	}

	feed[0].Volume = "4"
	if err := service.RefreshVolumes(ctx); err != nil {
		t.Fatalf("RefreshVolumes failed: %v", err)
	}

	var market models.Market
	if err := db.Where("external_id = ?", "pm-1").First(&market).Error; err != nil {
		t.Fatalf("failed to load market: %v", err)
	}
	if market.Volume != 4_000_000_000 {
		t.Errorf("expected volume 4000000000, got %d", market.Volume)
	}

	// Validated markets keep their settled volume
	db.Model(&models.Market{}).Where("id = ?", market.ID).
		Update("status", models.MarketStatusValidated)
	feed[0].Volume = "5"
	if err := service.RefreshVolumes(ctx); err != nil {
		t.Fatalf("RefreshVolumes failed: %v", err)
	}

	if err := db.First(&market, market.ID).Error; err != nil {
		t.Fatalf("failed to reload market: %v", err)
	}
	if market.Volume != 4_000_000_000 {
		t.Errorf("expected frozen volume 4000000000, got %d", market.Volume)
	}
}
