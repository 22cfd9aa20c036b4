package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"golang.org/x/time/rate"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	quotePath      = "/quote"
	forexRatesPath = "/forex/rates"
	candlePath     = "/forex/candle"

	// Finnhub allows 30 calls per second on every plan.
	defaultRateLimit = 30
)

// Client implements the MDataProvider interface using Finnhub API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Finnhub API client.
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPClient(apiKey, &http.Client{
		Timeout: 10 * time.Second,
	})
}

// NewClientWithHTTPClient creates a new Finnhub client with a custom HTTP client (for testing).
func NewClientWithHTTPClient(apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
	}
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetRateLimit caps outbound requests per second. Non-positive values disable throttling.
func (c *Client) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// quoteResponse represents the Finnhub quote response.
type quoteResponse struct {
	Current       float64 `json:"c"`  // Current price
	Change        float64 `json:"d"`  // Change
	PercentChange float64 `json:"dp"` // Percent change
	High          float64 `json:"h"`  // High price of the day
	Low           float64 `json:"l"`  // Low price of the day
	Open          float64 `json:"o"`  // Open price of the day
	PreviousClose float64 `json:"pc"` // Previous close price
	Timestamp     int64   `json:"t"`  // Timestamp
}

// GetQuote retrieves the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*marketdata.QuoteResult, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	var quoteResp quoteResponse
	if err := c.get(ctx, quotePath, params, &quoteResp); err != nil {
		return nil, err
	}

	// Finnhub returns 0 for all fields if symbol not found
	if quoteResp.Current <= 0 {
		return nil, fmt.Errorf("%w: no quote for symbol %s", marketdata.ErrNoData, symbol)
	}

	price, err := domain.NewDecimalFromFloat(quoteResp.Current)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &marketdata.QuoteResult{
		Symbol:   symbol,
		Price:    price,
		Currency: "", // Finnhub quote endpoint doesn't return currency
		Time:     time.Unix(quoteResp.Timestamp, 0).UTC().Format(time.RFC3339),
	}, nil
}

// GetRates reads /forex/rates for base. Finnhub nests the table under
// "quote" but older payloads put it at the top level; both are accepted.
func (c *Client) GetRates(ctx context.Context, base string, quotes []string) (map[string]float64, error) {
	params := url.Values{}
	params.Add("base", base)

	var payload interface{}
	if err := c.get(ctx, forexRatesPath, params, &payload); err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		v, err := firstNumber(payload, "$.quote."+q, "$."+q)
		if err != nil {
			return nil, fmt.Errorf("rate %s/%s: %w", base, q, err)
		}
		rates[q] = v
	}
	return rates, nil
}

// GetSpotRate reads the latest one-minute OANDA candle close for base/quote.
func (c *Client) GetSpotRate(ctx context.Context, base, quote string) (float64, error) {
	params := url.Values{}
	params.Add("symbol", fmt.Sprintf("OANDA:%s_%s", base, quote))
	params.Add("resolution", "1")
	params.Add("count", "1")

	var payload interface{}
	if err := c.get(ctx, candlePath, params, &payload); err != nil {
		return 0, err
	}

	v, err := firstNumber(payload, "$.c[0]")
	if err != nil {
		return 0, fmt.Errorf("spot %s/%s: %w", base, quote, err)
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("token", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "path", path)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// firstNumber evaluates each path in turn and returns the first numeric match.
func firstNumber(payload interface{}, paths ...string) (float64, error) {
	for _, path := range paths {
		v, err := jsonpath.Get(path, payload)
		if err != nil {
			continue
		}
		if list, ok := v.([]interface{}); ok && len(list) > 0 {
			v = list[0]
		}
		if f, ok := v.(float64); ok {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: none of %v", marketdata.ErrNoData, paths)
}
