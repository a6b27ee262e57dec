package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	defaultExchangeURL = "https://api.exchangerate-api.com/v4/latest/USD"
	// FallbackUSDVNDRate is used whenever the rate API is unreachable.
	FallbackUSDVNDRate = 24000.0
	rateCacheTTL       = time.Hour
)

// ExchangeConverter resolves USD amounts into VND for MomoPay checkouts.
// Rates are cached in-process; any fetch problem falls back to a fixed rate
// so checkout never blocks on the rate API.
type ExchangeConverter struct {
	url    string
	client *http.Client

	mu        sync.Mutex
	rate      float64
	fetchedAt time.Time
}

func NewExchangeConverter(url string) *ExchangeConverter {
	if url == "" {
		url = defaultExchangeURL
	}
	return &ExchangeConverter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// USDToVND converts an USD amount to a whole VND amount.
func (c *ExchangeConverter) USDToVND(ctx context.Context, usd float64) int64 {
	return int64(math.Round(usd * c.rateUSDVND(ctx)))
}

func (c *ExchangeConverter) rateUSDVND(ctx context.Context) float64 {
	c.mu.Lock()
	if c.rate > 0 && time.Since(c.fetchedAt) < rateCacheTTL {
		rate := c.rate
		c.mu.Unlock()
		return rate
	}
	c.mu.Unlock()

	rate, err := c.fetchRate(ctx)
	if err != nil {
		log.Warnf("[Payment] Exchange rate fetch failed, using fallback %v: %v", FallbackUSDVNDRate, err)
		return FallbackUSDVNDRate
	}

	c.mu.Lock()
	c.rate = rate
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return rate
}

func (c *ExchangeConverter) fetchRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange rate status %d", resp.StatusCode)
	}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	rate, ok := body.Rates["VND"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("exchange rate missing VND")
	}
	return rate, nil
}
