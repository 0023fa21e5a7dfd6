package polymarket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetActiveMarkets(t *testing.T) {
	var gotPath string
	var gotSigned bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotSigned = r.Header.Get("POLY-SIGNATURE") != "" && r.Header.Get("POLY-TIMESTAMP") != ""
		json.NewEncoder(w).Encode([]PolymarketMarket{
			{ID: "m-1", Question: "First?", Volume: "1000"},
			{ID: "m-2", Question: "Second?", Volume: "2000"},
		})
	}))
	defer server.Close()

	client := NewPolymarketClient(server.URL, "key", "secret", "pass")

	markets, err := client.GetActiveMarkets(50)
	if err != nil {
		t.Fatalf("GetActiveMarkets failed: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}
	if markets[1].ID != "m-2" {
		t.Errorf("expected m-2, got %s", markets[1].ID)
	}

	if gotPath != "/markets?limit=50&closed=false&active=true" {
		t.Errorf("unexpected request path %s", gotPath)
	}
	if !gotSigned {
		t.Error("expected signed request headers")
	}
}

func TestGetMarketByIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewPolymarketClient(server.URL, "", "", "")

	if _, err := client.GetMarketByID("missing"); err == nil {
		t.Error("expected error for missing market")
	}
}

func TestEndTime(t *testing.T) {
	market := PolymarketMarket{ID: "m-1", EndDate: "2026-09-01T12:00:00Z"}

	end, err := market.EndTime()
	if err != nil {
		t.Fatalf("EndTime failed: %v", err)
	}
	want := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Errorf("expected %s, got %s", want, end)
	}

	market.EndDate = ""
	if _, err := market.EndTime(); err == nil {
		t.Error("expected error for empty end date")
	}

	market.EndDate = "not-a-date"
	if _, err := market.EndTime(); err == nil {
		t.Error("expected error for malformed end date")
	}
}

func TestGetVolumeFloat(t *testing.T) {
	market := PolymarketMarket{Volume: "1234.5"}
	if got := market.GetVolumeFloat(); got != 1234.5 {
		t.Errorf("expected 1234.5, got %f", got)
	}

	market.Volume = "garbage"
	if got := market.GetVolumeFloat(); got != 0 {
		t.Errorf("expected 0 for unparseable volume, got %f", got)
	}
}
