// Package types - Currency and exchange-rate types
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Normalize upper-cases and trims the code. An empty code means USD.
func (c Currency) Normalize() Currency {
	n := Currency(strings.ToUpper(strings.TrimSpace(string(c))))
	if n == "" {
		return CurrencyUSD
	}
	return n
}

// IsUSD reports whether c is the base currency
func (c Currency) IsUSD() bool {
	return c.Normalize() == CurrencyUSD
}

// RateTable maps a currency to units of that currency per 1 USD.
// USD is implicitly 1 and need not be present.
type RateTable map[Currency]decimal.Decimal

// Lookup returns the rate for c. Codes are compared after normalization.
// A missing, zero or negative rate reports ok=false.
func (t RateTable) Lookup(c Currency) (decimal.Decimal, bool) {
	c = c.Normalize()
	if c == CurrencyUSD {
		return decimal.NewFromInt(1), true
	}
	rate, ok := t[c]
	if !ok {
		for code, r := range t {
			if code.Normalize() == c {
				rate, ok = r, true
				break
			}
		}
	}
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, false
	}
	return rate, true
}
