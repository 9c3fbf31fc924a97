// Package pricing applies discounts to USD base prices and converts USD
// amounts into display currencies. Every surface that shows a price goes
// through these functions so a plan is never priced two ways.
package pricing

import (
	"github.com/shopspring/decimal"

	"esim-pricing/core/detection"
	"esim-pricing/core/types"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount returns base reduced by percent. A percent <= 0 returns base
// unchanged; the result is never negative.
func ApplyDiscount(base, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return base
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return decimal.Max(decimal.Zero, base.Mul(factor))
}

// DailyTotal prices a per-day rate for a number of days. The discount is
// applied to the daily rate first and the result multiplied by days.
// days below 1 are treated as 1.
func DailyTotal(dailyUSD, percent decimal.Decimal, days int) decimal.Decimal {
	if days < 1 {
		days = 1
	}
	return ApplyDiscount(dailyUSD, percent).Mul(decimal.NewFromInt(int64(days)))
}

// PlanTotalUSD returns the discounted USD total for a plan. Daily-unlimited
// plans store a per-day price and are multiplied by selectedDays; every
// other plan's price is already the total for its whole duration.
func PlanTotalUSD(plan types.Plan, percent decimal.Decimal, selectedDays int) decimal.Decimal {
	if detection.IsDailyUnlimited(plan) {
		return DailyTotal(plan.PriceUSD, percent, selectedDays)
	}
	return ApplyDiscount(plan.PriceUSD, percent)
}

// PlanBaseUSD returns the undiscounted USD total on the same basis as PlanTotalUSD
func PlanBaseUSD(plan types.Plan, selectedDays int) decimal.Decimal {
	return PlanTotalUSD(plan, decimal.Zero, selectedDays)
}
