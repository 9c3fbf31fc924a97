package discount

import (
	"github.com/shopspring/decimal"

	"esim-pricing/core/datasize"
)

// Source says which tier produced a discount
type Source string

const (
	SourceNone       Source = "none"
	SourceGlobal     Source = "global"
	SourceIndividual Source = "individual"
)

// Resolution is a resolved discount with its provenance
type Resolution struct {
	Percent decimal.Decimal `json:"percent"`
	Source  Source          `json:"source"`
	Bucket  string          `json:"bucket"`
}

// Resolve returns the effective discount percentage for a plan.
// Values are trusted to be in [0,100]; see Config.Validate.
func Resolve(packageCode string, volumeBytes int64, cfg *Config) decimal.Decimal {
	return Explain(packageCode, volumeBytes, cfg).Percent
}

// Explain resolves like Resolve and also reports which tier matched.
// An individual entry wins whenever it is present, including an explicit 0.
func Explain(packageCode string, volumeBytes int64, cfg *Config) Resolution {
	bucket := datasize.BucketKey(volumeBytes)
	res := Resolution{Percent: decimal.Zero, Source: SourceNone, Bucket: bucket}
	if cfg == nil {
		return res
	}

	if pct, ok := cfg.Individual[packageCode]; ok {
		res.Percent, res.Source = pct, SourceIndividual
		return res
	}
	if bucket == "" {
		return res
	}
	if pct, ok := cfg.Global[bucket]; ok {
		res.Percent, res.Source = pct, SourceGlobal
	}
	return res
}
