// Package discount resolves the effective discount percentage for a plan
// from a two-tier configuration: global by GB bucket, individual by package code.
package discount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"esim-pricing/core/datasize"
	"esim-pricing/core/determinism"
	perrors "esim-pricing/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// Config is a discount configuration snapshot. It is owned by the caller and
// read-only for the duration of a resolution pass; fetching and caching it
// is the settings collaborator's job.
type Config struct {
	// Global maps a GB bucket key ("5", "10.5", "UL") to a percentage in [0,100]
	Global map[string]decimal.Decimal `json:"global"`

	// Individual maps a package code to a percentage in [0,100]. It always wins over Global.
	Individual map[string]decimal.Decimal `json:"individual"`
}

// Empty returns a configuration with no discounts
func Empty() *Config {
	return &Config{
		Global:     map[string]decimal.Decimal{},
		Individual: map[string]decimal.Decimal{},
	}
}

// Len returns the total number of entries
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Global) + len(c.Individual)
}

// Hash fingerprints the configuration independent of map order
func (c *Config) Hash() determinism.ContentHash {
	var parts []string
	if c != nil {
		for _, k := range determinism.SortedKeys(c.Global) {
			parts = append(parts, "g:"+k+"="+c.Global[k].String())
		}
		for _, k := range determinism.SortedKeys(c.Individual) {
			parts = append(parts, "i:"+k+"="+c.Individual[k].String())
		}
	}
	return determinism.HashParts("discount-config", parts...)
}

// Validate checks every percentage is within [0,100] and every global key is
// a canonical bucket. Configs from untrusted sources go through this before use.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	for k, v := range c.Global {
		if norm, ok := datasize.NormalizeBucket(k); !ok || norm != k {
			return perrors.Inputf("global discount key %q is not a canonical GB bucket", k).WithContext("bucket", k)
		}
		if !inRange(v) {
			return perrors.Inputf("global discount for %q is %s, outside [0,100]", k, v).WithContext("bucket", k)
		}
	}
	for k, v := range c.Individual {
		if strings.TrimSpace(k) == "" {
			return perrors.Input("individual discount has an empty package code")
		}
		if !inRange(v) {
			return perrors.Inputf("individual discount for %q is %s, outside [0,100]", k, v).WithContext("package_code", k)
		}
	}
	return nil
}

func inRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// ParsePercent parses an operator-entered percentage. Blank input means "no
// override" and returns set=false. A trailing "%" is accepted. Non-numeric
// input and values outside [0,100] are rejected.
func ParsePercent(raw string) (pct decimal.Decimal, set bool, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero, false, nil
	}
	pct, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, perrors.Wrap(perrors.TypeInput, fmt.Sprintf("discount %q is not a number", raw), err)
	}
	if !inRange(pct) {
		return decimal.Zero, false, perrors.Inputf("discount %q is outside [0,100]", raw)
	}
	return pct, true, nil
}

// Builder assembles a validated Config from operator input, as the admin
// discount tools do. Blank input removes an entry.
type Builder struct {
	global     map[string]decimal.Decimal
	individual map[string]decimal.Decimal
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		global:     make(map[string]decimal.Decimal),
		individual: make(map[string]decimal.Decimal),
	}
}

// Edit starts a builder from a copy of an existing configuration
func Edit(cfg *Config) *Builder {
	b := NewBuilder()
	if cfg == nil {
		return b
	}
	for k, v := range cfg.Global {
		b.global[k] = v
	}
	for k, v := range cfg.Individual {
		b.individual[k] = v
	}
	return b
}

// SetGlobal sets or clears the discount for a GB bucket from raw input
func (b *Builder) SetGlobal(bucket, raw string) error {
	key, ok := datasize.NormalizeBucket(bucket)
	if !ok {
		return perrors.Inputf("%q is not a GB bucket", bucket).WithContext("bucket", bucket)
	}
	pct, set, err := ParsePercent(raw)
	if err != nil {
		return fmt.Errorf("global[%s]: %w", key, err)
	}
	if !set {
		delete(b.global, key)
		return nil
	}
	b.global[key] = pct
	return nil
}

// SetIndividual sets or clears the discount for one package code from raw
// input. An explicit "0" is kept: it suppresses any global discount.
func (b *Builder) SetIndividual(packageCode, raw string) error {
	code := strings.TrimSpace(packageCode)
	if code == "" {
		return perrors.Input("package code is required")
	}
	pct, set, err := ParsePercent(raw)
	if err != nil {
		return fmt.Errorf("individual[%s]: %w", code, err)
	}
	if !set {
		delete(b.individual, code)
		return nil
	}
	b.individual[code] = pct
	return nil
}

// Build returns an independent Config snapshot
func (b *Builder) Build() *Config {
	return Edit(&Config{Global: b.global, Individual: b.individual}).snapshot()
}

func (b *Builder) snapshot() *Config {
	return &Config{Global: b.global, Individual: b.individual}
}

// FromRaw builds a Config from operator-entered strings keyed by bucket and
// package code. Entries are applied in key order so the first error reported
// is stable.
func FromRaw(global, individual map[string]string) (*Config, error) {
	b := NewBuilder()
	for _, k := range determinism.SortedKeys(global) {
		if err := b.SetGlobal(k, global[k]); err != nil {
			return nil, err
		}
	}
	for _, k := range determinism.SortedKeys(individual) {
		if err := b.SetIndividual(k, individual[k]); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
