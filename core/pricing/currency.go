package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"esim-pricing/core/types"
)

// defaultMinorUnits is used for codes x/text does not recognize
const defaultMinorUnits = 2

// Convert turns a USD amount into target currency. USD is returned as is.
// A missing or non-positive rate falls back to 1:1 so display never blocks.
func Convert(amountUSD decimal.Decimal, target types.Currency, rates types.RateTable) decimal.Decimal {
	if target.IsUSD() {
		return amountUSD
	}
	rate, ok := rates.Lookup(target)
	if !ok {
		return amountUSD
	}
	return amountUSD.Mul(rate)
}

// ToUSD is the inverse of Convert, with the same 1:1 fallback when the rate
// is missing or zero.
func ToUSD(amount decimal.Decimal, source types.Currency, rates types.RateTable) decimal.Decimal {
	if source.IsUSD() {
		return amount
	}
	rate, ok := rates.Lookup(source)
	if !ok {
		return amount
	}
	return amount.DivRound(rate, 16)
}

// HasRate reports whether Convert would use a real rate for c
func HasRate(c types.Currency, rates types.RateTable) bool {
	_, ok := rates.Lookup(c)
	return ok
}

// MinorUnits returns the number of decimal places the currency is shown with
// (2 for USD and EUR, 0 for JPY).
func MinorUnits(c types.Currency) int32 {
	unit, err := currency.ParseISO(string(c.Normalize()))
	if err != nil {
		return defaultMinorUnits
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// RoundForCurrency rounds half away from zero to the currency's minor units
func RoundForCurrency(amount decimal.Decimal, c types.Currency) decimal.Decimal {
	return amount.Round(MinorUnits(c))
}
