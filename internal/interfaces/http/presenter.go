package http

import (
	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// displayTotal formats a valuation total, e.g. "£2,100.00".
func displayTotal(total domain.Decimal) string {
	return domain.FormatMoney(total, domain.TargetCurrency)
}
