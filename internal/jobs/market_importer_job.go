package jobs

import (
	"context"
	"log"
	"time"

	"truth-market/internal/services"
)

// MarketImporterJob periodically seeds markets from the external claims feed
type MarketImporterJob struct {
	service  *services.MarketImporterService
	interval time.Duration
	stopChan chan struct{}
}

// NewMarketImporterJob creates a new importer job
func NewMarketImporterJob(service *services.MarketImporterService, interval time.Duration) *MarketImporterJob {
	return &MarketImporterJob{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the import loop. The first pass runs immediately so a fresh
// deployment has markets before the first tick.
func (mj *MarketImporterJob) Start() {
	log.Printf("[MarketImporter] Starting feed import job (interval: %v)", mj.interval)

	mj.runOnce()

	ticker := time.NewTicker(mj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mj.runOnce()
		case <-mj.stopChan:
			log.Println("[MarketImporter] Stopping feed import job")
			return
		}
	}
}

// Stop stops the import loop
func (mj *MarketImporterJob) Stop() {
	close(mj.stopChan)
}

func (mj *MarketImporterJob) runOnce() {
	ctx := context.Background()

	if _, err := mj.service.ImportMarkets(ctx); err != nil {
		log.Printf("[MarketImporter] Import error: %v", err)
	}

	if err := mj.service.RefreshVolumes(ctx); err != nil {
		log.Printf("[MarketImporter] Volume refresh error: %v", err)
	}
}
