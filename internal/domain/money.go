package domain

import "github.com/Rhymond/go-money"

var hundred = NewDecimalFromInt(100)

// FormatMoney renders amount in currency for humans, e.g. "£2,100.00".
// Amounts are rounded half-up to the minor unit.
func FormatMoney(amount Decimal, currency Currency) string {
	minor, err := amount.Mul(hundred)
	if err != nil {
		return amount.String()
	}
	units, err := minor.Int64()
	if err != nil {
		return amount.String()
	}
	return money.New(units, string(currency)).Display()
}
