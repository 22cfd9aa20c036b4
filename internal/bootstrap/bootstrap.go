// Package bootstrap wires configuration into the valuation service. It is
// shared by the API server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sijms/go-ora/v2"

	"github.com/jmanzanog/holdings-valuer/internal/application"
	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/config"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata/finnhub"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata/twelvedata"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata/yfinance"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/jsonfile"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/memory"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/sqldb"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/reference"
	"github.com/jmanzanog/holdings-valuer/internal/pricing"
)

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewMarketDataClient creates the market data client selected by configuration.
func NewMarketDataClient(cfg *config.Config) marketdata.MDataProvider {
	switch cfg.MarketDataProvider {
	case config.MarketDataProviderYFinance:
		c := yfinance.NewClientWithBaseURL(cfg.YFinanceBaseURL)
		c.SetRateLimit(cfg.MarketDataRateLimit)
		return c
	case config.MarketDataProviderTwelveData:
		c := twelvedata.NewClient(cfg.TwelveDataAPIKey)
		if cfg.MarketDataRateLimit > 0 {
			c.SetRateLimit(cfg.MarketDataRateLimit)
		}
		return c
	default:
		c := finnhub.NewClient(cfg.FinnhubAPIKey)
		if cfg.MarketDataRateLimit > 0 {
			c.SetRateLimit(cfg.MarketDataRateLimit)
		}
		return c
	}
}

// OpenStore opens the holdings store selected by configuration. The returned
// close function is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (domain.HoldingsRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return memory.NewHoldingsRepository(), noop, nil
	case config.StoreDriverFile:
		return jsonfile.NewHoldingsRepository(cfg.HoldingsFile), noop, nil
	case config.StoreDriverPostgres, config.StoreDriverOracle:
		db, err := sqldb.Open(ctx, cfg.StoreDriver, cfg.DBDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("database initialization failed: %w", err)
		}
		return sqldb.NewRepository(db), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

// NewPriceCache builds the FX and price caches over provider.
func NewPriceCache(cfg *config.Config, provider marketdata.MDataProvider, registry *domain.ExchangeRegistry) (*pricing.PriceCache, error) {
	fx, err := pricing.NewFXCache(provider, cfg.FXCacheTTL, nil)
	if err != nil {
		return nil, err
	}
	return pricing.NewPriceCache(provider, fx, registry, cfg.PriceCacheTTL, nil)
}

// NewService assembles a ValuationService over repo.
func NewService(cfg *config.Config, repo domain.HoldingsRepository) (*application.ValuationService, error) {
	registry := reference.LoadExchanges(cfg.ExchangesFile)

	provider := NewMarketDataClient(cfg)
	slog.Info("Using market data provider", "provider", cfg.MarketDataProvider)

	prices, err := NewPriceCache(cfg, provider, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create price cache: %w", err)
	}

	return application.NewValuationService(prices, repo, registry), nil
}
