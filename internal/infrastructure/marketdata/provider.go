package marketdata

import (
	"context"
	"errors"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// ErrNoData is returned when a vendor answers without a usable figure.
var ErrNoData = errors.New("no market data")

// QuoteResult is a native-currency quote for one vendor symbol.
type QuoteResult struct {
	Symbol   string
	Price    domain.Decimal
	Currency string
	Time     string
}

type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*QuoteResult, error)
}

type FXProvider interface {
	// GetRates returns how many units of each quote currency one unit of base buys.
	GetRates(ctx context.Context, base string, quotes []string) (map[string]float64, error)
	// GetSpotRate returns the price of one unit of base in quote.
	GetSpotRate(ctx context.Context, base, quote string) (float64, error)
}

// MDataProvider is a vendor that serves both equity quotes and FX rates.
type MDataProvider interface {
	QuoteProvider
	FXProvider
}
