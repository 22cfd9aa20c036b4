package domain

import "fmt"

// ValuationResult is one valued holding.
type ValuationResult struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Shares int64  `json:"shares"`
	// Value is nil when no price could be established. Nil is unknown, not zero.
	Value         *Decimal `json:"value"`
	Weight        Decimal  `json:"weight"`
	PricePerShare *Decimal `json:"pricePerShare"`
	Exchange      string   `json:"exchange"`
}

// Valuation is a valued portfolio in input order.
type Valuation struct {
	Holdings []ValuationResult `json:"holdings"`
	Total    Decimal           `json:"total"`
}

var (
	thousand = NewDecimalFromInt(1000)
	ten      = NewDecimalFromInt(10)
)

// NewValuation totals results and assigns each its percentage weight,
// rounded half-up to one decimal place.
func NewValuation(results []ValuationResult) (*Valuation, error) {
	total := Zero
	for _, r := range results {
		if r.Value == nil {
			continue
		}
		sum, err := total.Add(*r.Value)
		if err != nil {
			return nil, fmt.Errorf("summing values: %w", err)
		}
		total = sum
	}

	for i := range results {
		results[i].Weight = Zero
		if results[i].Value == nil || !total.IsPositive() {
			continue
		}
		w, err := weight(*results[i].Value, total)
		if err != nil {
			return nil, fmt.Errorf("weight of %s: %w", results[i].Ticker, err)
		}
		results[i].Weight = w
	}

	return &Valuation{Holdings: results, Total: total}, nil
}

// weight is round(value / total * 1000) / 10.
func weight(value, total Decimal) (Decimal, error) {
	share, err := value.Div(total)
	if err != nil {
		return Zero, err
	}
	permille, err := share.Mul(thousand)
	if err != nil {
		return Zero, err
	}
	rounded, err := permille.Round(0)
	if err != nil {
		return Zero, err
	}
	return rounded.Div(ten)
}
