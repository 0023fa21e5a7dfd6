package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// FinalizedEvent is the payload published when a market settles
type FinalizedEvent struct {
	MarketID          uint      `json:"market_id"`
	Outcome           *string   `json:"outcome"`
	ConsensusStrength int64     `json:"consensus_strength"`
	TotalVotes        int64     `json:"total_votes"`
	RewardsPaid       int64     `json:"rewards_paid"`
	TotalSlashed      int64     `json:"total_slashed"`
	Forced            bool      `json:"forced"`
	FinalizedAt       time.Time `json:"finalized_at"`
}

// Notifier receives settlement events. Delivery is best-effort; failures
// are logged and never fail the settlement that produced the event.
type Notifier interface {
	MarketFinalized(ctx context.Context, event FinalizedEvent)
}

// LogNotifier writes settlement events to the process log
type LogNotifier struct{}

func (LogNotifier) MarketFinalized(ctx context.Context, event FinalizedEvent) {
	outcome := "NONE"
	if event.Outcome != nil {
		outcome = *event.Outcome
	}
	log.Printf("[Notify] Market %d finalized: outcome=%s strength=%d%% votes=%d rewards=%d slashed=%d",
		event.MarketID, outcome, event.ConsensusStrength, event.TotalVotes, event.RewardsPaid, event.TotalSlashed)
}

// WebhookNotifier POSTs settlement events to a configured URL
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *WebhookNotifier) MarketFinalized(ctx context.Context, event FinalizedEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Notify] Failed to marshal event for market %d: %v", event.MarketID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[Notify] Failed to build webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("[Notify] Webhook delivery failed for market %d: %v", event.MarketID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[Notify] Webhook returned status %d for market %d", resp.StatusCode, event.MarketID)
	}
}

// Fanout delivers each event to every wrapped notifier in order
type Fanout []Notifier

func (f Fanout) MarketFinalized(ctx context.Context, event FinalizedEvent) {
	for _, n := range f {
		n.MarketFinalized(ctx, event)
	}
}
