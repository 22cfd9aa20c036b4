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

// RateSource supplies the FX rates used to normalize a quote.
type RateSource interface {
	Rates(ctx context.Context) Rates
}

// PriceCache serves target-currency prices per (ticker, exchange). Only
// positive prices are cached; failures are retried on the next call.
type PriceCache struct {
	quotes     marketdata.QuoteProvider
	rates      RateSource
	mapper     SymbolMapper
	normalizer Normalizer
	cache      *TTLCache[string, domain.Decimal]
	group      singleflight.Group
}

func NewPriceCache(
	quotes marketdata.QuoteProvider,
	rates RateSource,
	registry *domain.ExchangeRegistry,
	ttl time.Duration,
	now Clock,
) (*PriceCache, error) {
	cache, err := NewTTLCache[string, domain.Decimal](ttl, now)
	if err != nil {
		return nil, fmt.Errorf("price cache: %w", err)
	}
	return &PriceCache{
		quotes:     quotes,
		rates:      rates,
		mapper:     NewSymbolMapper(registry),
		normalizer: NewNormalizer(registry),
		cache:      cache,
	}, nil
}

type priceResult struct {
	price domain.Decimal
	ok    bool
}

// Price returns the target-currency price of ticker on exchange. The result is
// false when no price could be obtained.
func (c *PriceCache) Price(ctx context.Context, ticker, exchange string) (domain.Decimal, bool) {
	key := domain.PriceKey(ticker, exchange)
	if p, ok := c.cache.Fresh(key); ok && p.IsPositive() {
		return p, true
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		if p, ok := c.cache.Fresh(key); ok && p.IsPositive() {
			return priceResult{price: p, ok: true}, nil
		}
		fetchCtx, cancel := detached(ctx)
		defer cancel()
		fetchedAt := c.cache.Now()
		p, ok := c.fetch(fetchCtx, ticker, exchange)
		if ok {
			c.cache.Put(key, p, fetchedAt)
		}
		return priceResult{price: p, ok: ok}, nil
	})

	r := v.(priceResult)
	return r.price, r.ok
}

func (c *PriceCache) fetch(ctx context.Context, ticker, exchange string) (domain.Decimal, bool) {
	symbol := c.mapper.Map(ticker, exchange)
	rates := c.rates.Rates(ctx)

	quote, err := c.quotes.GetQuote(ctx, symbol)
	if err != nil {
		slog.WarnContext(ctx, "Quote unavailable", "symbol", symbol, "exchange", exchange, "error", err)
		return domain.Zero, false
	}

	price, ok := c.normalizer.Convert(quote.Price, exchange, rates)
	if !ok || !price.IsPositive() {
		slog.WarnContext(ctx, "Quote has no usable price", "symbol", symbol, "raw_price", quote.Price.String())
		return domain.Zero, false
	}

	slog.DebugContext(ctx, "Price fetched", "symbol", symbol, "price", price.String(), "currency", domain.TargetCurrency)
	return price, true
}

// Map exposes the vendor symbol a ticker would be queried as.
func (c *PriceCache) Map(ticker, exchange string) string {
	return c.mapper.Map(ticker, exchange)
}
