package bootstrap

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/config"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata/finnhub"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata/twelvedata"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata/yfinance"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/jsonfile"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/memory"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		MarketDataProvider: config.MarketDataProviderFinnhub,
		FinnhubAPIKey:      "key",
		PriceCacheTTL:      time.Minute,
		FXCacheTTL:         time.Minute,
		StoreDriver:        config.StoreDriverMemory,
		HoldingsFile:       filepath.Join(t.TempDir(), "holdings.json"),
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewMarketDataClient(t *testing.T) {
	cfg := testConfig(t)
	assert.IsType(t, &finnhub.Client{}, NewMarketDataClient(cfg))

	cfg.MarketDataProvider = config.MarketDataProviderTwelveData
	cfg.MarketDataRateLimit = 2
	assert.IsType(t, &twelvedata.Client{}, NewMarketDataClient(cfg))

	cfg.MarketDataProvider = config.MarketDataProviderYFinance
	assert.IsType(t, &yfinance.Client{}, NewMarketDataClient(cfg))
}

func TestOpenStore(t *testing.T) {
	cfg := testConfig(t)

	repo, closeFn, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.HoldingsRepository{}, repo)
	assert.NoError(t, closeFn())

	cfg.StoreDriver = config.StoreDriverFile
	repo, _, err = OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &jsonfile.HoldingsRepository{}, repo)

	cfg.StoreDriver = "cassandra"
	_, closeFn, err = OpenStore(context.Background(), cfg)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestNewService_UsesBuiltInExchangesWhenFileMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExchangesFile = filepath.Join(t.TempDir(), "missing.json")

	svc, err := NewService(cfg, memory.NewHoldingsRepository())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultExchanges(), svc.Exchanges())
}

func TestNewService_RejectsZeroTTL(t *testing.T) {
	cfg := testConfig(t)
	cfg.PriceCacheTTL = 0

	_, err := NewService(cfg, memory.NewHoldingsRepository())
	assert.Error(t, err)
}
