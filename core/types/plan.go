// Package types defines the catalog records the pricing engine reads.
// Records are owned by the catalog collaborator and are never mutated here.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UnlimitedVolume is the volumeBytes sentinel for "unlimited, no FUP cap"
const UnlimitedVolume int64 = -1

// DurationUnit is the unit of a plan's validity period
type DurationUnit string

const (
	DurationDay   DurationUnit = "day"
	DurationMonth DurationUnit = "month"
)

// Normalize lower-cases and trims the unit, folding plural forms ("days" -> "day")
func (u DurationUnit) Normalize() DurationUnit {
	n := strings.ToLower(strings.TrimSpace(string(u)))
	n = strings.TrimSuffix(n, "s")
	return DurationUnit(n)
}

// Plan is one purchasable data offer as supplied by the catalog collaborator
type Plan struct {
	// PackageCode is unique within the catalog and stable across currencies
	PackageCode string `json:"package_code" yaml:"package_code"`

	// Name is free text and may embed FUP or carrier markers
	Name string `json:"name" yaml:"name"`

	// VolumeBytes is the data allowance; UnlimitedVolume means uncapped
	VolumeBytes int64 `json:"volume_bytes" yaml:"volume_bytes"`

	Duration     int          `json:"duration" yaml:"duration"`
	DurationUnit DurationUnit `json:"duration_unit" yaml:"duration_unit"`

	// PriceUSD already includes upstream markup. For daily-unlimited plans it is a per-day rate.
	PriceUSD decimal.Decimal `json:"price_usd" yaml:"price_usd"`

	// Location is a comma-separated list of country or region codes
	Location string `json:"location" yaml:"location"`

	// Structured marker fields. Each may instead be embedded in Name.
	FUPPolicy string `json:"fup_policy,omitempty" yaml:"fup_policy,omitempty"` // e.g. "1Mbps"
	Route     string `json:"route,omitempty" yaml:"route,omitempty"`           // e.g. "nonhkip"
	Carrier   string `json:"carrier,omitempty" yaml:"carrier,omitempty"`       // e.g. "IIJ"
}

// PrimaryLocation is the first listed location code, upper-cased and trimmed
func (p Plan) PrimaryLocation() string {
	first, _, _ := strings.Cut(p.Location, ",")
	return strings.ToUpper(strings.TrimSpace(first))
}

// IsUnlimited reports whether the volume is the uncapped sentinel
func (p Plan) IsUnlimited() bool {
	return p.VolumeBytes == UnlimitedVolume
}

// IsSingleDay reports whether the plan is valid for exactly one day
func (p Plan) IsSingleDay() bool {
	return p.Duration == 1 && p.DurationUnit.Normalize() == DurationDay
}

// WellFormed reports whether the record is usable at all. Malformed rows are
// hidden rather than failing the whole catalog.
func (p Plan) WellFormed() bool {
	if p.Duration <= 0 {
		return false
	}
	if p.VolumeBytes < UnlimitedVolume {
		return false
	}
	return !p.PriceUSD.IsNegative()
}
