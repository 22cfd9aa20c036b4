package pricing

import "github.com/jmanzanog/holdings-valuer/internal/domain"

// berkshireB is already a valid vendor symbol in dotted form and never takes a suffix.
const berkshireB = "BRK.B"

// SymbolMapper turns a bare ticker and exchange code into the vendor query symbol.
type SymbolMapper struct {
	registry *domain.ExchangeRegistry
}

func NewSymbolMapper(registry *domain.ExchangeRegistry) SymbolMapper {
	return SymbolMapper{registry: registry}
}

// Map upper-cases the ticker and appends the exchange suffix. Unknown
// exchanges leave the ticker unchanged.
func (m SymbolMapper) Map(ticker, exchangeCode string) string {
	t := domain.NormalizeCode(ticker)
	ex, ok := m.registry.Lookup(exchangeCode)
	if !ok {
		return t
	}
	if t == berkshireB {
		return t
	}
	return t + ex.Suffix
}
