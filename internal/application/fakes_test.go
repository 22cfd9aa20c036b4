package application

import (
	"context"
	"errors"
	"sync"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

var errStore = errors.New("disk unavailable")

type fakePrices struct {
	mu     sync.Mutex
	prices map[string]string
	calls  map[string]int
}

func newFakePrices(prices map[string]string) *fakePrices {
	return &fakePrices{prices: prices, calls: make(map[string]int)}
}

func (f *fakePrices) Price(_ context.Context, ticker, exchange string) (domain.Decimal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := domain.PriceKey(ticker, exchange)
	f.calls[key]++
	p, ok := f.prices[key]
	if !ok {
		return domain.Zero, false
	}
	return domain.MustDecimal(p), true
}

func (f *fakePrices) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fakeRepo struct {
	mu       sync.Mutex
	holdings []domain.Holding
	listErr  error
	saveErr  error
	saves    int
}

func (r *fakeRepo) List(context.Context) ([]domain.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Holding, len(r.holdings))
	copy(out, r.holdings)
	return out, nil
}

func (r *fakeRepo) ReplaceAll(_ context.Context, holdings []domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.holdings = append([]domain.Holding(nil), holdings...)
	return nil
}

func dec(s string) *domain.Decimal {
	d := domain.MustDecimal(s)
	return &d
}
