package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MarketDataProviderFinnhub    = "finnhub"
	MarketDataProviderTwelveData = "twelvedata"
	MarketDataProviderYFinance   = "yfinance"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverOracle   = "oracle"
)

type Config struct {
	ServerPort string
	ServerHost string
	LogLevel   string

	MarketDataProvider  string
	FinnhubAPIKey       string
	TwelveDataAPIKey    string
	YFinanceBaseURL     string
	MarketDataRateLimit float64

	PriceCacheTTL time.Duration
	FXCacheTTL    time.Duration
	ExchangesFile string

	StoreDriver  string
	HoldingsFile string
	DBDSN        string

	AdminToken      string
	FrontendOrigins []string
	APIRateLimit    int64
	APIRateWindow   time.Duration

	// DefaultsRefreshInterval of zero disables the background refresher.
	DefaultsRefreshInterval time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MARKET_DATA_PROVIDER", MarketDataProviderFinnhub)
	v.SetDefault("YFINANCE_BASE_URL", "http://localhost:8000")
	v.SetDefault("MARKET_DATA_RATE_LIMIT", 0)
	v.SetDefault("PRICE_CACHE_TTL", "15m")
	v.SetDefault("FX_CACHE_TTL", "15m")
	v.SetDefault("EXCHANGES_FILE", "data/exchanges.json")
	v.SetDefault("STORE_DRIVER", StoreDriverFile)
	v.SetDefault("HOLDINGS_FILE", "data/holdings.json")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("ADMIN_TOKEN", "change-this-token")
	v.SetDefault("FRONTEND_ORIGINS", "")
	v.SetDefault("API_RATE_LIMIT", 300)
	v.SetDefault("API_RATE_WINDOW", "15m")
	v.SetDefault("DEFAULTS_REFRESH_INTERVAL", "0s")
	// Empty variables count as unset, so the defaults above apply.
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the environment. A .env file, if any,
// must already have been loaded into the environment.
func Load() (*Config, error) {
	v := newViper()

	cfg := &Config{
		ServerPort:          v.GetString("SERVER_PORT"),
		ServerHost:          v.GetString("SERVER_HOST"),
		LogLevel:            strings.ToLower(v.GetString("LOG_LEVEL")),
		MarketDataProvider:  strings.ToLower(v.GetString("MARKET_DATA_PROVIDER")),
		FinnhubAPIKey:       v.GetString("FINNHUB_API_KEY"),
		TwelveDataAPIKey:    v.GetString("TWELVE_DATA_API_KEY"),
		YFinanceBaseURL:     v.GetString("YFINANCE_BASE_URL"),
		MarketDataRateLimit: v.GetFloat64("MARKET_DATA_RATE_LIMIT"),
		ExchangesFile:       v.GetString("EXCHANGES_FILE"),
		StoreDriver:         strings.ToLower(v.GetString("STORE_DRIVER")),
		HoldingsFile:        v.GetString("HOLDINGS_FILE"),
		DBDSN:               v.GetString("DB_DSN"),
		AdminToken:          v.GetString("ADMIN_TOKEN"),
		FrontendOrigins:     splitList(v.GetString("FRONTEND_ORIGINS")),
		APIRateLimit:        v.GetInt64("API_RATE_LIMIT"),
	}

	switch cfg.MarketDataProvider {
	case MarketDataProviderFinnhub:
		if cfg.FinnhubAPIKey == "" {
			return nil, fmt.Errorf("FINNHUB_API_KEY environment variable is required for finnhub provider")
		}
	case MarketDataProviderTwelveData:
		if cfg.TwelveDataAPIKey == "" {
			return nil, fmt.Errorf("TWELVE_DATA_API_KEY environment variable is required for twelvedata provider")
		}
	case MarketDataProviderYFinance:
	default:
		return nil, fmt.Errorf("unsupported MARKET_DATA_PROVIDER: %s", cfg.MarketDataProvider)
	}

	switch cfg.StoreDriver {
	case StoreDriverMemory, StoreDriverFile:
	case StoreDriverPostgres, StoreDriverOracle:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN environment variable is required for %s store", cfg.StoreDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER: %s", cfg.StoreDriver)
	}

	var err error
	if cfg.PriceCacheTTL, err = positiveDuration(v, "PRICE_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.FXCacheTTL, err = positiveDuration(v, "FX_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.APIRateWindow, err = positiveDuration(v, "API_RATE_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.APIRateLimit <= 0 {
		return nil, fmt.Errorf("API_RATE_LIMIT must be positive, got %d", cfg.APIRateLimit)
	}

	cfg.DefaultsRefreshInterval, err = time.ParseDuration(v.GetString("DEFAULTS_REFRESH_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULTS_REFRESH_INTERVAL: %w", err)
	}
	if cfg.DefaultsRefreshInterval < 0 {
		return nil, fmt.Errorf("DEFAULTS_REFRESH_INTERVAL must not be negative")
	}

	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
