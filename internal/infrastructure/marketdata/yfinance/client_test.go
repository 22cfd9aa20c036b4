package yfinance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
)

func TestGetQuote(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		body       string
		status     int
		wantPrice  string
		wantNoData bool
		wantErr    bool
	}{
		{
			name:      "London listing in pence",
			symbol:    "SHEL.L",
			status:    http.StatusOK,
			body:      `{"symbol": "SHEL.L", "price": "2750.5", "currency": "GBp", "time": "2025-03-03T16:30:00+00:00"}`,
			wantPrice: "2750.5",
		},
		{
			name:       "unknown symbol",
			symbol:     "NOPE",
			status:     http.StatusNotFound,
			body:       `{"detail": "Symbol not found"}`,
			wantNoData: true,
			wantErr:    true,
		},
		{
			name:       "empty price",
			symbol:     "SAP.DE",
			status:     http.StatusOK,
			body:       `{"symbol": "SAP.DE", "price": "", "currency": "EUR"}`,
			wantNoData: true,
			wantErr:    true,
		},
		{
			name:    "service error detail",
			symbol:  "AAPL",
			status:  http.StatusBadGateway,
			body:    `{"detail": "yahoo unavailable"}`,
			wantErr: true,
		},
		{
			name:    "plain text error",
			symbol:  "AAPL",
			status:  http.StatusInternalServerError,
			body:    `boom`,
			wantErr: true,
		},
		{
			name:    "malformed payload",
			symbol:  "AAPL",
			status:  http.StatusOK,
			body:    `{"symbol":`,
			wantErr: true,
		},
		{
			name:    "price is not a number",
			symbol:  "AAPL",
			status:  http.StatusOK,
			body:    `{"symbol": "AAPL", "price": "n/a"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/quote/"+tt.symbol, r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClientWithBaseURL(server.URL)
			quote, err := client.GetQuote(context.Background(), tt.symbol)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantNoData, errors.Is(err, marketdata.ErrNoData))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, quote.Symbol)
			assert.True(t, quote.Price.Equal(domain.MustDecimal(tt.wantPrice)), "got %s", quote.Price)
		})
	}
}

func TestGetQuote_ConnectionRefused(t *testing.T) {
	client := NewClientWithBaseURL("http://127.0.0.1:0")
	_, err := client.GetQuote(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestGetQuote_NonPositivePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol": "DEAD", "price": "0", "currency": "USD"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.GetQuote(context.Background(), "DEAD")
	assert.True(t, errors.Is(err, marketdata.ErrNoData))
}

func TestGetRates(t *testing.T) {
	tests := []struct {
		name         string
		mockResponse string
		statusCode   int
		want         map[string]float64
		expectError  bool
	}{
		{
			name:       "Success",
			statusCode: http.StatusOK,
			mockResponse: `{
				"results": [
					{"symbol": "USDGBP=X", "price": "0.79", "currency": "GBP"},
					{"symbol": "USDEUR=X", "price": "0.93", "currency": "EUR"}
				],
				"errors": []
			}`,
			want: map[string]float64{"GBP": 0.79, "EUR": 0.93},
		},
		{
			name:       "Missing Pair",
			statusCode: http.StatusOK,
			mockResponse: `{
				"results": [{"symbol": "USDGBP=X", "price": "0.79"}],
				"errors": [{"symbol": "USDEUR=X", "error": "no data"}]
			}`,
			expectError: true,
		},
		{
			name:         "HTTP 500 Error",
			statusCode:   http.StatusInternalServerError,
			mockResponse: `{"detail": "upstream down"}`,
			expectError:  true,
		},
		{
			name:         "Malformed JSON",
			statusCode:   http.StatusOK,
			mockResponse: `{invalid-json`,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/quote/batch", r.URL.Path)

				var req quoteBatchRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, []string{"USDGBP=X", "USDEUR=X"}, req.Symbols)

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.mockResponse))
			}))
			defer server.Close()

			client := NewClientWithBaseURL(server.URL)
			rates, err := client.GetRates(context.Background(), "USD", []string{"GBP", "EUR"})

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaMapValues(t, tt.want, rates, 1e-9)
		})
	}
}

func TestGetSpotRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quote/CHFUSD=X", r.URL.Path)
		_, _ = w.Write([]byte(`{"symbol": "CHFUSD=X", "price": "1.13", "currency": "USD"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	rate, err := client.GetSpotRate(context.Background(), "CHF", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 1.13, rate, 1e-9)
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.limiter)
}

func TestClient_SetBaseURL(t *testing.T) {
	client := NewClientWithBaseURL("http://market-data-service:8000")
	client.SetBaseURL("http://custom-service:9000")

	assert.Equal(t, "http://custom-service:9000", client.baseURL)
}

func TestClient_SetRateLimit_HonorsContext(t *testing.T) {
	client := NewClient()
	client.SetRateLimit(0.001)
	// The first call drains the single-token burst.
	assert.True(t, client.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetQuote(ctx, "AAPL")
	assert.Error(t, err)
}

func TestClient_RequestCreationError(t *testing.T) {
	client := NewClient()
	// Set baseURL to something with a control character to trigger http.NewRequest error
	client.baseURL = "http://market-data-service\x7f"

	_, err := client.GetQuote(context.Background(), "AAPL")
	assert.Error(t, err)

	_, err = client.GetRates(context.Background(), "USD", []string{"GBP"})
	assert.Error(t, err)
}
