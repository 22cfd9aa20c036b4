package domain

import (
	"fmt"
	"strings"
)

// Currency is the trading currency of an exchange.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	// CurrencyGBX is pence sterling, the minor unit of GBP quoted on the LSE.
	CurrencyGBX Currency = "GBX"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// TargetCurrency is the single reporting currency of every valuation.
const TargetCurrency = CurrencyGBP

// Currencies lists every supported currency kind.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyGBX, CurrencyEUR, CurrencyGBP}
}

// Known reports whether c is one of the supported currency kinds.
func (c Currency) Known() bool {
	switch c {
	case CurrencyUSD, CurrencyGBX, CurrencyEUR, CurrencyGBP:
		return true
	default:
		return false
	}
}

// ExchangeRecord is reference data for one trading venue.
type ExchangeRecord struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Suffix   string   `json:"suffix"`
	Currency Currency `json:"currency"`
}

// DefaultExchanges is the built-in reference set used when no exchange file can be loaded.
func DefaultExchanges() []ExchangeRecord {
	return []ExchangeRecord{
		{Code: "XNAS", Name: "NASDAQ", Suffix: "", Currency: CurrencyUSD},
		{Code: "XNYS", Name: "New York Stock Exchange", Suffix: "", Currency: CurrencyUSD},
		{Code: "XASE", Name: "NYSE American", Suffix: "", Currency: CurrencyUSD},
		{Code: "ARCX", Name: "NYSE Arca", Suffix: "", Currency: CurrencyUSD},
		{Code: "XLON", Name: "London Stock Exchange", Suffix: ".L", Currency: CurrencyGBX},
		{Code: "XETR", Name: "Xetra", Suffix: ".DE", Currency: CurrencyEUR},
		{Code: "XFRA", Name: "Frankfurt Stock Exchange", Suffix: ".DE", Currency: CurrencyEUR},
		{Code: "XPAR", Name: "Euronext Paris", Suffix: ".PA", Currency: CurrencyEUR},
	}
}

// ExchangeRegistry is an immutable, case-insensitive lookup of exchanges by code.
// It is safe for concurrent use.
type ExchangeRegistry struct {
	records []ExchangeRecord
	byCode  map[string]ExchangeRecord
}

// NewExchangeRegistry validates records and builds a registry. Codes are
// normalized to upper case and must be non-empty and unique.
func NewExchangeRegistry(records []ExchangeRecord) (*ExchangeRegistry, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: exchange list is empty", ErrValidation)
	}

	r := &ExchangeRegistry{
		records: make([]ExchangeRecord, 0, len(records)),
		byCode:  make(map[string]ExchangeRecord, len(records)),
	}
	for i, rec := range records {
		rec.Code = NormalizeCode(rec.Code)
		rec.Suffix = strings.TrimSpace(rec.Suffix)
		rec.Currency = Currency(NormalizeCode(string(rec.Currency)))
		if rec.Code == "" {
			return nil, fmt.Errorf("%w: exchange %d has no code", ErrValidation, i)
		}
		if _, dup := r.byCode[rec.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate exchange code %s", ErrValidation, rec.Code)
		}
		r.byCode[rec.Code] = rec
		r.records = append(r.records, rec)
	}
	return r, nil
}

// DefaultExchangeRegistry builds a registry over DefaultExchanges.
func DefaultExchangeRegistry() *ExchangeRegistry {
	r, err := NewExchangeRegistry(DefaultExchanges())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds an exchange by code. An unknown or empty code is not an error.
func (r *ExchangeRegistry) Lookup(code string) (ExchangeRecord, bool) {
	rec, ok := r.byCode[NormalizeCode(code)]
	return rec, ok
}

// All returns the records in load order.
func (r *ExchangeRegistry) All() []ExchangeRecord {
	out := make([]ExchangeRecord, len(r.records))
	copy(out, r.records)
	return out
}

// NormalizeCode trims and upper-cases tickers and exchange codes.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
