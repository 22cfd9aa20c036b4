package memory

import (
	"context"
	"sync"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// HoldingsRepository keeps the portfolio in process memory. Reads and writes
// copy the slice so callers never share backing arrays with the store.
type HoldingsRepository struct {
	mu       sync.RWMutex
	holdings []domain.Holding
}

func NewHoldingsRepository(initial ...domain.Holding) *HoldingsRepository {
	return &HoldingsRepository{holdings: clone(initial)}
}

func (r *HoldingsRepository) List(ctx context.Context) ([]domain.Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return clone(r.holdings), nil
}

func (r *HoldingsRepository) ReplaceAll(ctx context.Context, holdings []domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.holdings = clone(holdings)
	return nil
}

func clone(holdings []domain.Holding) []domain.Holding {
	out := make([]domain.Holding, len(holdings))
	copy(out, holdings)
	return out
}
