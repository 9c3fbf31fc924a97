// Package detection classifies catalog plans from their name and flag fields.
// Every free-text heuristic lives here so it can be replaced by structured
// catalog fields without touching callers.
package detection

import (
	"strings"
	"unicode"

	"esim-pricing/core/datasize"
	"esim-pricing/core/types"
)

// Daily-unlimited plans are nominally 2 GB. Upstream volumes are not always
// exactly 2*1024^3, so a tolerance band is used.
const (
	dailyUnlimitedMinGB = 1.95
	dailyUnlimitedMaxGB = 2.05
)

// Category is the display bucket a plan is routed to
type Category string

const (
	// CategoryFixed is a plan with a finite data allowance
	CategoryFixed Category = "fixed"

	// CategoryDailyUnlimited is a ~2 GB/day plan throttled to 1 Mbps, priced per day
	CategoryDailyUnlimited Category = "daily_unlimited"

	// CategoryUnlimited is a plan with no volume cap at all
	CategoryUnlimited Category = "unlimited"
)

// IsUnlimited reports whether the category belongs in the "Unlimited" bucket
func (c Category) IsUnlimited() bool {
	return c == CategoryDailyUnlimited || c == CategoryUnlimited
}

// Detector is a single named marker predicate
type Detector interface {
	Name() string
	Detect(plan types.Plan) bool
}

// DetectorFunc adapts a function to Detector
type DetectorFunc struct {
	name string
	fn   func(types.Plan) bool
}

// NewDetector wraps fn as a named Detector
func NewDetector(name string, fn func(types.Plan) bool) DetectorFunc {
	return DetectorFunc{name: name, fn: fn}
}

// Name returns the marker name
func (d DetectorFunc) Name() string { return d.name }

// Detect runs the predicate
func (d DetectorFunc) Detect(plan types.Plan) bool { return d.fn(plan) }

var (
	FUP1Mbps = NewDetector("fup1mbps", HasFUP1Mbps)
	NonHKIP  = NewDetector("nonhkip", HasNonHKIP)
	IIJ      = NewDetector("iij", HasIIJ)
)

// Markers lists the marker names present on a plan, in a fixed order
func Markers(plan types.Plan) []string {
	var found []string
	for _, d := range []Detector{FUP1Mbps, NonHKIP, IIJ} {
		if d.Detect(plan) {
			found = append(found, d.Name())
		}
	}
	return found
}

func compact(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// HasFUP1Mbps reports a 1 Mbps fair-use cap, either as "fup1mbps" /
// "fup 1mbps" in the name (any case) or as a structured FUP policy of 1 Mbps.
func HasFUP1Mbps(plan types.Plan) bool {
	name := strings.ToLower(plan.Name)
	if strings.Contains(name, "fup1mbps") || strings.Contains(name, "fup 1mbps") {
		return true
	}
	switch compact(plan.FUPPolicy) {
	case "1mbps", "fup1mbps":
		return true
	}
	return false
}

// HasNonHKIP reports the alternate "nonhkip" routing marker in the name or route field
func HasNonHKIP(plan types.Plan) bool {
	if strings.Contains(strings.ToLower(plan.Name), "nonhkip") {
		return true
	}
	return strings.Contains(compact(plan.Route), "nonhkip")
}

// HasIIJ reports the IIJ carrier marker: "(IIJ)" in any case, a standalone
// upper-case IIJ token in the name, or an IIJ carrier field.
func HasIIJ(plan types.Plan) bool {
	if strings.Contains(strings.ToLower(plan.Name), "(iij)") {
		return true
	}
	tokens := strings.FieldsFunc(plan.Name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if tok == "IIJ" {
			return true
		}
	}
	return strings.EqualFold(strings.TrimSpace(plan.Carrier), "IIJ")
}

// IsJapan reports whether a location code names Japan
func IsJapan(location string) bool {
	code := strings.ToUpper(strings.TrimSpace(location))
	return code == "JP" || code == "JAPAN"
}

// IsDailyUnlimited reports a ~2 GB plan carrying the 1 Mbps FUP marker.
// Such plans are priced per day and exempt from the single-day exclusion.
func IsDailyUnlimited(plan types.Plan) bool {
	if plan.VolumeBytes < 0 {
		return false
	}
	gb := datasize.BytesToGB(plan.VolumeBytes)
	if gb < dailyUnlimitedMinGB || gb > dailyUnlimitedMaxGB {
		return false
	}
	return HasFUP1Mbps(plan)
}

// Classify routes a plan to its display category
func Classify(plan types.Plan) Category {
	switch {
	case IsDailyUnlimited(plan):
		return CategoryDailyUnlimited
	case plan.IsUnlimited():
		return CategoryUnlimited
	default:
		return CategoryFixed
	}
}
