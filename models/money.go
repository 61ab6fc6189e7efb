package models

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places kept for every monetary amount.
const MoneyPlaces = 2

// Money rounds an amount to cents.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// MustMoney parses a literal amount such as "10.00". It panics on bad input and
// is meant for defaults and tests.
func MustMoney(s string) decimal.Decimal {
	return Money(decimal.RequireFromString(s))
}
