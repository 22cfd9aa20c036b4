package domain

import "context"

// HoldingsRepository persists the portfolio as an ordered list that is
// always read and written whole.
type HoldingsRepository interface {
	List(ctx context.Context) ([]Holding, error)
	ReplaceAll(ctx context.Context, holdings []Holding) error
}
