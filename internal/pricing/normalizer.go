package pricing

import (
	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// Rates are the FX rates every conversion crosses through. Both are quoted per one USD.
type Rates struct {
	// USDToTarget is target-currency units per USD.
	USDToTarget domain.Decimal `json:"usdToTarget"`
	// USDToEUR is EUR units per USD.
	USDToEUR domain.Decimal `json:"usdToEur"`
}

// FallbackRates are used when every live FX source fails.
var FallbackRates = Rates{
	USDToTarget: domain.MustDecimal("0.78"),
	USDToEUR:    domain.MustDecimal("0.92"),
}

// Valid reports whether both rates are finite and positive.
func (r Rates) Valid() bool {
	return r.USDToTarget.IsPositive() && r.USDToEUR.IsPositive()
}

type conversion func(price domain.Decimal, rates Rates) (domain.Decimal, error)

var pence = domain.NewDecimalFromInt(100)

// conversions has one entry per domain.Currencies kind.
var conversions = map[domain.Currency]conversion{
	domain.CurrencyGBX: func(p domain.Decimal, _ Rates) (domain.Decimal, error) {
		return p.Div(pence)
	},
	domain.CurrencyGBP: func(p domain.Decimal, _ Rates) (domain.Decimal, error) {
		return p, nil
	},
	domain.CurrencyUSD: fromUSD,
	domain.CurrencyEUR: func(p domain.Decimal, r Rates) (domain.Decimal, error) {
		inTarget, err := p.Mul(r.USDToTarget)
		if err != nil {
			return domain.Zero, err
		}
		return inTarget.Div(r.USDToEUR)
	},
}

func fromUSD(p domain.Decimal, r Rates) (domain.Decimal, error) {
	return p.Mul(r.USDToTarget)
}

// Normalizer converts native exchange prices into the target currency.
type Normalizer struct {
	registry *domain.ExchangeRegistry
}

func NewNormalizer(registry *domain.ExchangeRegistry) Normalizer {
	return Normalizer{registry: registry}
}

// Currency resolves the trading currency of an exchange. Unknown exchanges trade in USD.
func (n Normalizer) Currency(exchangeCode string) domain.Currency {
	ex, ok := n.registry.Lookup(exchangeCode)
	if !ok {
		return domain.CurrencyUSD
	}
	return ex.Currency
}

// Convert returns the target-currency price rounded half-up to 2 places.
// The result is false when the native price is not a finite positive number.
func (n Normalizer) Convert(native domain.Decimal, exchangeCode string, rates Rates) (domain.Decimal, bool) {
	if !native.IsPositive() {
		return domain.Zero, false
	}

	convert, ok := conversions[n.Currency(exchangeCode)]
	if !ok {
		convert = fromUSD
	}

	converted, err := convert(native, rates)
	if err != nil {
		return domain.Zero, false
	}
	rounded, err := converted.Round(2)
	if err != nil {
		return domain.Zero, false
	}
	return rounded, true
}
