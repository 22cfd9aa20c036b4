package pricing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/marketdata"
)

var errUpstream = errors.New("upstream down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeFX struct {
	rates    map[string]float64
	ratesErr error
	spots    map[string]float64
	spotErr  error

	ratesCalls atomic.Int32
	spotCalls  atomic.Int32
}

func (f *fakeFX) GetRates(ctx context.Context, _ string, quotes []string) (map[string]float64, error) {
	f.ratesCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	out := make(map[string]float64, len(quotes))
	for _, q := range quotes {
		if v, ok := f.rates[q]; ok {
			out[q] = v
		}
	}
	return out, nil
}

func (f *fakeFX) GetSpotRate(ctx context.Context, base, quote string) (float64, error) {
	f.spotCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.spotErr != nil {
		return 0, f.spotErr
	}
	v, ok := f.spots[base+"/"+quote]
	if !ok {
		return 0, marketdata.ErrNoData
	}
	return v, nil
}

type fakeQuotes struct {
	prices map[string]string
	err    error
	delay  time.Duration

	mu      sync.Mutex
	symbols []string
}

func (f *fakeQuotes) GetQuote(ctx context.Context, symbol string) (*marketdata.QuoteResult, error) {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbol)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	return &marketdata.QuoteResult{Symbol: symbol, Price: domain.MustDecimal(p)}, nil
}

func (f *fakeQuotes) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.symbols...)
}

type staticRates Rates

func (s staticRates) Rates(context.Context) Rates { return Rates(s) }

func rates(usdToTarget, usdToEUR string) staticRates {
	return staticRates{USDToTarget: domain.MustDecimal(usdToTarget), USDToEUR: domain.MustDecimal(usdToEUR)}
}
