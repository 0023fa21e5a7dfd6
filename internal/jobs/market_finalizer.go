package jobs

import (
	"context"
	"log"
	"time"

	"truth-market/internal/services"
)

// MarketFinalizer automatically settles markets whose validation window closed
type MarketFinalizer struct {
	finalizeService *services.FinalizeService
	interval        time.Duration
	batchSize       int
	stopChan        chan struct{}
}

// NewMarketFinalizer creates a new market finalizer job
func NewMarketFinalizer(finalizeService *services.FinalizeService, interval time.Duration) *MarketFinalizer {
	return &MarketFinalizer{
		finalizeService: finalizeService,
		interval:        interval,
		batchSize:       100,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the settlement loop
func (mf *MarketFinalizer) Start() {
	log.Printf("[MarketFinalizer] Starting settlement job (interval: %v)", mf.interval)

	ticker := time.NewTicker(mf.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mf.settleDueMarkets()
		case <-mf.stopChan:
			log.Println("[MarketFinalizer] Stopping settlement job")
			return
		}
	}
}

// Stop stops the settlement loop
func (mf *MarketFinalizer) Stop() {
	close(mf.stopChan)
}

// settleDueMarkets finalizes every market whose window has closed
func (mf *MarketFinalizer) settleDueMarkets() {
	ctx := context.Background()

	settled, err := mf.finalizeService.FinalizeDueMarkets(ctx, mf.batchSize)
	if err != nil {
		log.Printf("[MarketFinalizer] Error settling due markets: %v", err)
		return
	}

	if settled > 0 {
		log.Printf("[MarketFinalizer] Settled %d markets", settled)
	}
}
