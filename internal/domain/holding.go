package domain

import (
	"fmt"
	"strings"
)

// CashTicker is the reserved ticker of the cash balance.
const CashTicker = "CASH"

// Input bounds. Within them every value computation stays exact at the
// rounding precision of Decimal.
var (
	MaxAmount = MustDecimal("1e15")
	minAmount = MustDecimal("-1e15")
)

const MaxShares int64 = 1_000_000_000_000

// Holding is one line of the portfolio as entered by an administrator.
type Holding struct {
	Name     string `json:"name" validate:"required"`
	Ticker   string `json:"ticker" validate:"required"`
	Exchange string `json:"exchange"`
	Shares   int64  `json:"shares"`
	// Value overrides Shares for the cash balance. Ignored for equities.
	Value *Decimal `json:"value,omitempty"`
	// DefaultPrice is the last known target-currency price, used when live pricing fails.
	DefaultPrice *Decimal `json:"defaultPrice,omitempty"`
}

// CheckBounds reports the first shares, value or defaultPrice outside the
// supported range.
func (h Holding) CheckBounds() error {
	if h.Shares > MaxShares {
		return fmt.Errorf("shares %d exceed %d", h.Shares, MaxShares)
	}
	if h.Value != nil && (h.Value.Cmp(MaxAmount) > 0 || h.Value.Cmp(minAmount) < 0) {
		return fmt.Errorf("value %s is out of range", h.Value.String())
	}
	if h.DefaultPrice != nil && (h.DefaultPrice.Cmp(MaxAmount) > 0 || h.DefaultPrice.Cmp(minAmount) < 0) {
		return fmt.Errorf("defaultPrice %s is out of range", h.DefaultPrice.String())
	}
	return nil
}

// IsCash reports whether h is the cash balance.
func (h Holding) IsCash() bool {
	return h.Ticker == CashTicker
}

// Normalized returns h with name trimmed and ticker and exchange upper-cased.
func (h Holding) Normalized() Holding {
	h.Name = strings.TrimSpace(h.Name)
	h.Ticker = NormalizeCode(h.Ticker)
	h.Exchange = NormalizeCode(h.Exchange)
	return h
}

// PricePair identifies one (ticker, exchange) quote.
type PricePair struct {
	Ticker   string
	Exchange string
}

// Key is the composite cache key TICKER||EXCHANGE.
func (p PricePair) Key() string {
	return PriceKey(p.Ticker, p.Exchange)
}

// PriceKey builds the composite key of a ticker on an exchange.
func PriceKey(ticker, exchange string) string {
	return NormalizeCode(ticker) + "||" + NormalizeCode(exchange)
}

// Pair returns the price identity of h.
func (h Holding) Pair() PricePair {
	return PricePair{Ticker: NormalizeCode(h.Ticker), Exchange: NormalizeCode(h.Exchange)}
}

// DistinctEquityPairs returns the equity pairs of holdings, deduplicated,
// in order of first occurrence.
func DistinctEquityPairs(holdings []Holding) []PricePair {
	seen := make(map[string]struct{}, len(holdings))
	pairs := make([]PricePair, 0, len(holdings))
	for _, h := range holdings {
		p := h.Pair()
		if p.Ticker == "" || p.Ticker == CashTicker {
			continue
		}
		if _, ok := seen[p.Key()]; ok {
			continue
		}
		seen[p.Key()] = struct{}{}
		pairs = append(pairs, p)
	}
	return pairs
}
