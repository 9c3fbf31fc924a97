// Package catalog decides which catalog plans are shown and collapses
// duplicate carrier variants into a single card.
package catalog

import (
	"github.com/samber/lo"

	"esim-pricing/core/datasize"
	"esim-pricing/core/detection"
	"esim-pricing/core/types"
)

// minVisibleGB is the size at or below which finite plans are hidden
const minVisibleGB = 1.5

// HiddenReason says why a plan is not shown
type HiddenReason string

const (
	Shown         HiddenReason = ""
	HiddenMalform HiddenReason = "malformed"
	HiddenOneDay  HiddenReason = "single_day"
	HiddenSmall   HiddenReason = "too_small"
)

// String returns the reason name
func (r HiddenReason) String() string {
	if r == Shown {
		return "shown"
	}
	return string(r)
}

// Visibility evaluates the display rules in order:
//  1. daily-unlimited plans are always shown, even for a single day
//  2. uncapped plans are shown unless they last exactly one day
//  3. finite plans of 1.5 GB or less are hidden, as are single-day ones
//
// Price never affects visibility.
func Visibility(plan types.Plan) HiddenReason {
	if !plan.WellFormed() {
		return HiddenMalform
	}
	if detection.IsDailyUnlimited(plan) {
		return Shown
	}
	if plan.IsUnlimited() {
		if plan.IsSingleDay() {
			return HiddenOneDay
		}
		return Shown
	}
	if datasize.BytesToGB(plan.VolumeBytes) <= minVisibleGB {
		return HiddenSmall
	}
	if plan.IsSingleDay() {
		return HiddenOneDay
	}
	return Shown
}

// IsVisible reports whether a plan may be displayed
func IsVisible(plan types.Plan) bool {
	return Visibility(plan) == Shown
}

// FilterVisible keeps visible plans in their original order
func FilterVisible(plans []types.Plan) []types.Plan {
	return lo.Filter(plans, func(p types.Plan, _ int) bool {
		return IsVisible(p)
	})
}
