package polymarket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	PolymarketClobURL  = "https://clob.polymarket.com"
	PolymarketGammaURL = "https://gamma-api.polymarket.com"
)

type PolymarketClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secret     string
	passphrase string
}

type PolymarketMarket struct {
	ID          string  `json:"id"`
	Question    string  `json:"question"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Volume      string  `json:"volume"`
	Liquidity   string  `json:"liquidity"`
	Active      bool    `json:"active"`
	Closed      bool    `json:"closed"`
	EndDate     string  `json:"endDate"`
	CreatedAt   string  `json:"createdAt"`
	VolumeNum   float64 `json:"-"` // computed field
}

// GetVolumeFloat parses volume string to float64
func (m *PolymarketMarket) GetVolumeFloat() float64 {
	vol, _ := strconv.ParseFloat(m.Volume, 64)
	return vol
}

// EndTime parses the endDate field. The feed uses RFC3339.
func (m *PolymarketMarket) EndTime() (time.Time, error) {
	if m.EndDate == "" {
		return time.Time{}, fmt.Errorf("market %s has no end date", m.ID)
	}
	return time.Parse(time.RFC3339, m.EndDate)
}

func NewPolymarketClient(baseURL, apiKey, secret, passphrase string) *PolymarketClient {
	if baseURL == "" {
		baseURL = PolymarketGammaURL
	}
	return &PolymarketClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		secret:     secret,
		passphrase: passphrase,
	}
}

// signRequest creates HMAC signature for authenticated requests
func (c *PolymarketClient) signRequest(timestamp, method, path, body string) string {
	message := timestamp + method + path + body
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// addAuthHeaders adds authentication headers to the request
func (c *PolymarketClient) addAuthHeaders(req *http.Request, method, path, body string) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := c.signRequest(timestamp, method, path, body)

	req.Header.Set("POLY-API-KEY", c.apiKey)
	req.Header.Set("POLY-SIGNATURE", signature)
	req.Header.Set("POLY-TIMESTAMP", timestamp)
	req.Header.Set("POLY-PASSPHRASE", c.passphrase)
	req.Header.Set("Content-Type", "application/json")
}

// GetActiveMarkets fetches open markets from the feed, newest volume first is
// not guaranteed; callers sort.
func (c *PolymarketClient) GetActiveMarkets(limit int) ([]PolymarketMarket, error) {
	path := fmt.Sprintf("/markets?limit=%d&closed=false&active=true", limit)
	url := c.baseURL + path

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.addAuthHeaders(req, "GET", path, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("polymarket API error: %d - %s", resp.StatusCode, string(body))
	}

	var markets []PolymarketMarket
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return markets, nil
}

// GetMarketByID fetches a specific market by ID
func (c *PolymarketClient) GetMarketByID(marketID string) (*PolymarketMarket, error) {
	url := fmt.Sprintf("%s/markets/%s", c.baseURL, marketID)
	path := fmt.Sprintf("/markets/%s", marketID)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.addAuthHeaders(req, "GET", path, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polymarket API error: %d", resp.StatusCode)
	}

	var market PolymarketMarket
	if err := json.NewDecoder(resp.Body).Decode(&market); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &market, nil
}
