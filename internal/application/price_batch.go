package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// resolvePrices prices every pair concurrently and waits for all of them. The
// result is keyed by PricePair.Key and holds only the pairs that were priced;
// one failure never affects the others.
func (s *ValuationService) resolvePrices(ctx context.Context, pairs []domain.PricePair) map[string]domain.Decimal {
	prices := make(map[string]domain.Decimal, len(pairs))
	if len(pairs) == 0 {
		return prices
	}

	type priceResult struct {
		key   string
		price domain.Decimal
		ok    bool
	}

	resultChan := make(chan priceResult, len(pairs))
	var wg sync.WaitGroup

	for _, pair := range pairs {
		wg.Add(1)
		go func(pair domain.PricePair) {
			defer wg.Done()

			price, ok := s.prices.Price(ctx, pair.Ticker, pair.Exchange)
			resultChan <- priceResult{
				key:   pair.Key(),
				price: price,
				ok:    ok && price.IsPositive(),
			}
		}(pair)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	missing := 0
	for r := range resultChan {
		if !r.ok {
			missing++
			continue
		}
		prices[r.key] = r.price
	}

	if missing > 0 {
		slog.WarnContext(ctx, "Some holdings could not be priced", "requested", len(pairs), "missing", missing)
	}
	return prices
}
