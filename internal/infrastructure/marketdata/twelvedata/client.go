package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL   = "https://api.twelvedata.com"
	quotePath        = "/quote"
	exchangeRatePath = "/exchange_rate"

	// Basic plan: 8 credits per minute.
	defaultRateLimit = 8.0 / 60.0
)

// suffixExchanges translates Yahoo-style ticker suffixes into Twelve Data exchange names.
var suffixExchanges = map[string]string{
	".L":  "LSE",
	".DE": "XETR",
	".PA": "Euronext",
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 8),
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
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Datetime string `json:"datetime"`
	Close    string `json:"close"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

type exchangeRateResponse struct {
	Symbol  string      `json:"symbol"`
	Rate    json.Number `json:"rate"`
	Status  string      `json:"status"`
	Message string      `json:"message"`
}

func (c *Client) GetQuote(ctx context.Context, symbol string) (*marketdata.QuoteResult, error) {
	params := url.Values{}
	ticker, exchange := splitSymbol(symbol)
	params.Add("symbol", ticker)
	if exchange != "" {
		params.Add("exchange", exchange)
	}

	var quoteResp quoteResponse
	if err := c.get(ctx, quotePath, params, &quoteResp); err != nil {
		return nil, err
	}

	if quoteResp.Status == "error" {
		return nil, fmt.Errorf("quote request failed for symbol %s: %s", symbol, quoteResp.Message)
	}

	if quoteResp.Close == "" {
		return nil, fmt.Errorf("%w: no price data for symbol %s", marketdata.ErrNoData, symbol)
	}

	price, err := domain.NewDecimalFromString(quoteResp.Close)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &marketdata.QuoteResult{
		Symbol:   symbol,
		Price:    price,
		Currency: quoteResp.Currency,
		Time:     quoteResp.Datetime,
	}, nil
}

// GetRates issues one batched /exchange_rate call for every base/quote pair.
func (c *Client) GetRates(ctx context.Context, base string, quotes []string) (map[string]float64, error) {
	if len(quotes) == 0 {
		return map[string]float64{}, nil
	}

	pairs := make([]string, len(quotes))
	for i, q := range quotes {
		pairs[i] = base + "/" + q
	}
	params := url.Values{}
	params.Add("symbol", strings.Join(pairs, ","))

	byPair := make(map[string]exchangeRateResponse, len(pairs))
	if len(pairs) == 1 {
		var single exchangeRateResponse
		if err := c.get(ctx, exchangeRatePath, params, &single); err != nil {
			return nil, err
		}
		byPair[pairs[0]] = single
	} else if err := c.get(ctx, exchangeRatePath, params, &byPair); err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(quotes))
	for i, q := range quotes {
		v, err := parseRate(byPair[pairs[i]])
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w", pairs[i], err)
		}
		rates[q] = v
	}
	return rates, nil
}

func (c *Client) GetSpotRate(ctx context.Context, base, quote string) (float64, error) {
	params := url.Values{}
	params.Add("symbol", base+"/"+quote)

	var resp exchangeRateResponse
	if err := c.get(ctx, exchangeRatePath, params, &resp); err != nil {
		return 0, err
	}
	v, err := parseRate(resp)
	if err != nil {
		return 0, fmt.Errorf("spot %s/%s: %w", base, quote, err)
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("apikey", c.apiKey)
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

func parseRate(r exchangeRateResponse) (float64, error) {
	if r.Status == "error" {
		return 0, fmt.Errorf("%w: %s", marketdata.ErrNoData, r.Message)
	}
	if r.Rate == "" {
		return 0, marketdata.ErrNoData
	}
	v, err := r.Rate.Float64()
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate %q: %w", r.Rate, err)
	}
	return v, nil
}

// splitSymbol turns "VOD.L" into ("VOD", "LSE"). Unknown suffixes such as
// the class letter in "BRK.B" are left on the ticker.
func splitSymbol(symbol string) (string, string) {
	i := strings.LastIndex(symbol, ".")
	if i <= 0 {
		return symbol, ""
	}
	if exchange, ok := suffixExchanges[symbol[i:]]; ok {
		return symbol[:i], exchange
	}
	return symbol, ""
}
