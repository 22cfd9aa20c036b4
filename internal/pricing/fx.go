package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
)

const (
	baseCurrency = string(domain.CurrencyUSD)
	eurCurrency  = string(domain.CurrencyEUR)
	fxKey        = string(domain.TargetCurrency)
)

// FXCache serves USD cross rates from a single cached entry, falling back
// through three tiers on a miss. It never fails.
type FXCache struct {
	source marketdata.FXProvider
	cache  *TTLCache[string, Rates]
	group  singleflight.Group
}

func NewFXCache(source marketdata.FXProvider, ttl time.Duration, now Clock) (*FXCache, error) {
	cache, err := NewTTLCache[string, Rates](ttl, now)
	if err != nil {
		return nil, fmt.Errorf("fx cache: %w", err)
	}
	return &FXCache{source: source, cache: cache}, nil
}

// Rates returns the cached rates, refreshing them once the entry is stale.
// Concurrent misses share one upstream sequence.
func (f *FXCache) Rates(ctx context.Context) Rates {
	if r, ok := f.cache.Fresh(fxKey); ok {
		return r
	}

	v, _, _ := f.group.Do(fxKey, func() (interface{}, error) {
		if r, ok := f.cache.Fresh(fxKey); ok {
			return r, nil
		}
		fetchCtx, cancel := detached(ctx)
		defer cancel()
		fetchedAt := f.cache.Now()
		r := f.fetch(fetchCtx)
		f.cache.Put(fxKey, r, fetchedAt)
		return r, nil
	})
	return v.(Rates)
}

func (f *FXCache) fetch(ctx context.Context) Rates {
	r, err := f.fromCombined(ctx)
	if err == nil {
		return r
	}
	slog.WarnContext(ctx, "Combined FX rates unavailable", "error", err)

	r, err = f.fromSpotPairs(ctx)
	if err == nil {
		return r
	}
	slog.WarnContext(ctx, "Spot FX rates unavailable, using fallback rates", "error", err)

	return FallbackRates
}

func (f *FXCache) fromCombined(ctx context.Context) (Rates, error) {
	quotes, err := f.source.GetRates(ctx, baseCurrency, []string{fxKey, eurCurrency})
	if err != nil {
		return Rates{}, err
	}
	toTarget, err := positiveRate(quotes[fxKey])
	if err != nil {
		return Rates{}, fmt.Errorf("%s rate: %w", fxKey, err)
	}
	toEUR, err := positiveRate(quotes[eurCurrency])
	if err != nil {
		return Rates{}, fmt.Errorf("%s rate: %w", eurCurrency, err)
	}
	return Rates{USDToTarget: toTarget, USDToEUR: toEUR}, nil
}

// fromSpotPairs reads TARGET/USD and EUR/USD spots and inverts them.
func (f *FXCache) fromSpotPairs(ctx context.Context) (Rates, error) {
	toTarget, err := f.invertedSpot(ctx, fxKey)
	if err != nil {
		return Rates{}, err
	}
	toEUR, err := f.invertedSpot(ctx, eurCurrency)
	if err != nil {
		return Rates{}, err
	}
	return Rates{USDToTarget: toTarget, USDToEUR: toEUR}, nil
}

func (f *FXCache) invertedSpot(ctx context.Context, currency string) (domain.Decimal, error) {
	spot, err := f.source.GetSpotRate(ctx, currency, baseCurrency)
	if err != nil {
		return domain.Zero, fmt.Errorf("%s/%s spot: %w", currency, baseCurrency, err)
	}
	d, err := positiveRate(spot)
	if err != nil {
		return domain.Zero, fmt.Errorf("%s/%s spot: %w", currency, baseCurrency, err)
	}
	return domain.NewDecimalFromInt(1).Div(d)
}

func positiveRate(v float64) (domain.Decimal, error) {
	d, err := domain.NewDecimalFromFloat(v)
	if err != nil {
		return domain.Zero, err
	}
	if !d.IsPositive() {
		return domain.Zero, fmt.Errorf("rate %v is not positive", v)
	}
	return d, nil
}
