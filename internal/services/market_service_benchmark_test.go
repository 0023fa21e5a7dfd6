package services

import (
	"context"
	"testing"
	"time"

	"truth-market/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func BenchmarkGetMarket(b *testing.B) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		b.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.Market{}, &models.Tally{}); err != nil {
		b.Fatalf("failed to migrate database: %v", err)
	}

	// High ID keeps the seed clear of rows left by the service tests
	market := models.Market{
		ID:             999_999,
		CreatorAddress: "bench",
		Question:       "Benchmark market",
		Deadline:       time.Now().Add(24 * time.Hour),
		Status:         models.MarketStatusPending,
	}
	if err := db.Create(&market).Error; err != nil {
		b.Fatalf("failed to seed market: %v", err)
	}
	if err := db.Create(&models.Tally{MarketID: market.ID}).Error; err != nil {
		b.Fatalf("failed to seed tally: %v", err)
	}

	service := NewMarketService(db)
	ctx := context.Background()

	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, err := service.GetMarket(ctx, market.ID)
			if err != nil {
				b.Errorf("GetMarket failed: %v", err)
			}
		}
	})
}
