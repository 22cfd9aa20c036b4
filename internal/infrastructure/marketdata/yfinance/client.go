package yfinance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL = "http://localhost:8000"
	quotePath      = "/api/v1/quote"
	quoteBatchPath = "/api/v1/quote/batch"
)

// Client implements the MDataProvider interface using the yfinance-based Market Data Service,
// a small REST sidecar in front of Yahoo Finance. FX rates are quoted through
// Yahoo's currency pair symbols, e.g. USDGBP=X.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new yfinance Market Data Service client with default settings.
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL creates a new client with a custom base URL (useful for K8s deployments).
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 0),
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

type quoteResponse struct {
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Time     string `json:"time"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type quoteBatchRequest struct {
	Symbols []string `json:"symbols"`
}

type quoteBatchResponse struct {
	Results []quoteResponse   `json:"results"`
	Errors  []quoteBatchError `json:"errors"`
}

type quoteBatchError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// GetQuote retrieves the current quote for a symbol using the Market Data Service.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*marketdata.QuoteResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s/%s", c.baseURL, quotePath, symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var quoteResp quoteResponse
	if err := c.do(req, &quoteResp); err != nil {
		return nil, err
	}

	return toQuote(symbol, quoteResp)
}

// GetRates quotes every base/quote pair in one batch call. A pair the service
// could not price fails the whole call.
func (c *Client) GetRates(ctx context.Context, base string, quotes []string) (map[string]float64, error) {
	symbols := make([]string, len(quotes))
	for i, q := range quotes {
		symbols[i] = pairSymbol(base, q)
	}

	body, err := json.Marshal(quoteBatchRequest{Symbols: symbols})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+quoteBatchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var batchResp quoteBatchResponse
	if err := c.do(req, &batchResp); err != nil {
		return nil, err
	}

	bySymbol := make(map[string]quoteResponse, len(batchResp.Results))
	for _, r := range batchResp.Results {
		bySymbol[r.Symbol] = r
	}
	for _, e := range batchResp.Errors {
		slog.Warn("yfinance could not quote pair", "symbol", e.Symbol, "error", e.Error)
	}

	rates := make(map[string]float64, len(quotes))
	for i, q := range quotes {
		r, ok := bySymbol[symbols[i]]
		if !ok {
			return nil, fmt.Errorf("%w: rate %s/%s", marketdata.ErrNoData, base, q)
		}
		quote, err := toQuote(symbols[i], r)
		if err != nil {
			return nil, err
		}
		rates[q] = quote.Price.Float64()
	}
	return rates, nil
}

// GetSpotRate quotes a single currency pair.
func (c *Client) GetSpotRate(ctx context.Context, base, quote string) (float64, error) {
	q, err := c.GetQuote(ctx, pairSymbol(base, quote))
	if err != nil {
		return 0, fmt.Errorf("spot %s/%s: %w", base, quote, err)
	}
	return q.Price.Float64(), nil
}

func pairSymbol(base, quote string) string {
	return base + quote + "=X"
}

func toQuote(symbol string, r quoteResponse) (*marketdata.QuoteResult, error) {
	if r.Price == "" {
		return nil, fmt.Errorf("%w: no price for symbol %s", marketdata.ErrNoData, symbol)
	}
	price, err := domain.NewDecimalFromString(r.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive price for symbol %s", marketdata.ErrNoData, symbol)
	}
	return &marketdata.QuoteResult{
		Symbol:   symbol,
		Price:    price,
		Currency: r.Currency,
		Time:     r.Time,
	}, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "url", req.URL.Path)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", marketdata.ErrNoData, req.URL.Path)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return fmt.Errorf("API error: %s", errResp.Detail)
		}
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ marketdata.MDataProvider = (*Client)(nil)
