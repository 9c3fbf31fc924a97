// Package engine runs one resolution pass over a catalog: visibility,
// duplicate collapsing, discount lookup and pricing. It is the single
// place a displayed price is produced; the CLI and HTTP surfaces are thin
// wrappers around it.
package engine

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"esim-pricing/core/catalog"
	"esim-pricing/core/datasize"
	"esim-pricing/core/determinism"
	"esim-pricing/core/detection"
	"esim-pricing/core/discount"
	"esim-pricing/core/pricing"
	"esim-pricing/core/types"
)

// Engine resolves quotes for a catalog. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	config EngineConfig
	logger *zap.Logger
}

// EngineConfig configures the resolution pass
type EngineConfig struct {
	// Tiebreak decides duplicate groups with no preferred carrier variant
	Tiebreak catalog.Tiebreak

	// DefaultCurrency is used when a request leaves Currency empty
	DefaultCurrency types.Currency

	// DefaultDays is used when a request leaves SelectedDays at zero
	DefaultDays int
}

// DefaultEngineConfig returns the library defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Tiebreak:        catalog.TiebreakInputOrder,
		DefaultCurrency: types.CurrencyUSD,
		DefaultDays:     1,
	}
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the logger used for per-pass debug lines
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine
func NewEngine(config EngineConfig, opts ...Option) *Engine {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = types.CurrencyUSD
	}
	e := &Engine{config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Request is the input to one resolution pass. Inputs are read, never modified.
type Request struct {
	Plans     []types.Plan
	Discounts *discount.Config
	Rates     types.RateTable

	// Currency is the display currency; empty uses the engine default
	Currency types.Currency

	// SelectedDays prices daily-unlimited plans; fixed plans ignore it
	SelectedDays int
}

// Quote is the per-plan result every display surface renders from
type Quote struct {
	PackageCode string     `json:"package_code"`
	Plan        types.Plan `json:"-"`

	Visible        bool                 `json:"visible"`
	HiddenReason   catalog.HiddenReason `json:"hidden_reason,omitempty"`
	BucketKey      string               `json:"bucket_key"`
	Size           datasize.Size        `json:"size"`
	Category       detection.Category   `json:"category"`
	DailyUnlimited bool                 `json:"daily_unlimited"`
	Markers        []string             `json:"markers,omitempty"`
	Days           int                  `json:"days"`

	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountSource  discount.Source `json:"discount_source"`

	BaseUSD  decimal.Decimal `json:"base_usd"`
	FinalUSD decimal.Decimal `json:"final_usd"`

	// FinalPrice is FinalUSD converted and rounded to Currency's minor units
	FinalPrice decimal.Decimal `json:"final_price"`
	Currency   types.Currency  `json:"currency"`

	// Converted is false when the rate was missing and the 1:1 fallback applied
	Converted bool `json:"converted"`
}

// Hidden records a plan removed by the visibility filter
type Hidden struct {
	PackageCode string               `json:"package_code"`
	Reason      catalog.HiddenReason `json:"reason"`
}

// Result is the output of a resolution pass
type Result struct {
	RunID uuid.UUID `json:"run_id"`

	// Quotes holds one visible quote per surviving plan, in catalog order
	Quotes    []Quote            `json:"quotes"`
	Hidden    []Hidden           `json:"hidden"`
	Collapsed []catalog.Collapse `json:"collapsed"`

	Currency     types.Currency `json:"currency"`
	SelectedDays int            `json:"selected_days"`

	// ConfigHash fingerprints the discount config the pass read
	ConfigHash determinism.ContentHash `json:"config_hash"`

	// InputHash fingerprints the plan list in order
	InputHash determinism.ContentHash `json:"input_hash"`

	ResolvedAt time.Time     `json:"resolved_at"`
	Duration   time.Duration `json:"duration"`
}

// Resolve runs visibility, then duplicate collapsing on the visible plans,
// then prices every survivor. It never fails: bad rows are hidden and
// missing discounts or rates degrade to 0% and 1:1.
func (e *Engine) Resolve(req Request) *Result {
	start := time.Now()
	currency := e.currency(req.Currency)
	days := e.days(req.SelectedDays)

	result := &Result{
		RunID:        uuid.New(),
		Currency:     currency,
		SelectedDays: days,
		ConfigHash:   req.Discounts.Hash(),
		InputHash:    InputHash(req.Plans),
		ResolvedAt:   start.UTC(),
	}

	visible := make([]types.Plan, 0, len(req.Plans))
	for _, p := range req.Plans {
		if reason := catalog.Visibility(p); reason != catalog.Shown {
			result.Hidden = append(result.Hidden, Hidden{PackageCode: p.PackageCode, Reason: reason})
			continue
		}
		visible = append(visible, p)
	}

	survivors, collapsed := catalog.DeduplicateWithReport(visible, e.config.Tiebreak)
	result.Collapsed = collapsed
	result.Quotes = lo.Map(survivors, func(p types.Plan, _ int) Quote {
		return e.quote(p, catalog.Shown, req.Discounts, req.Rates, currency, days)
	})

	result.Duration = time.Since(start)
	e.logger.Debug("resolution pass complete",
		zap.String("run_id", result.RunID.String()),
		zap.Int("plans", len(req.Plans)),
		zap.Int("quotes", len(result.Quotes)),
		zap.Int("hidden", len(result.Hidden)),
		zap.Int("collapsed", len(result.Collapsed)),
		zap.String("currency", currency.String()),
		zap.String("config_hash", result.ConfigHash.Short()),
	)
	return result
}

// QuotePlan prices a single plan without deduplication. Hidden plans are
// still priced so detail views agree with the list.
func (e *Engine) QuotePlan(plan types.Plan, discounts *discount.Config, rates types.RateTable, currency types.Currency, selectedDays int) Quote {
	return e.quote(plan, catalog.Visibility(plan), discounts, rates, e.currency(currency), e.days(selectedDays))
}

func (e *Engine) quote(plan types.Plan, reason catalog.HiddenReason, discounts *discount.Config, rates types.RateTable, currency types.Currency, days int) Quote {
	res := discount.Explain(plan.PackageCode, plan.VolumeBytes, discounts)
	daily := detection.IsDailyUnlimited(plan)
	finalUSD := pricing.PlanTotalUSD(plan, res.Percent, days)

	q := Quote{
		PackageCode:     plan.PackageCode,
		Plan:            plan,
		Visible:         reason == catalog.Shown,
		HiddenReason:    reason,
		BucketKey:       res.Bucket,
		Size:            datasize.Display(plan.VolumeBytes),
		Category:        detection.Classify(plan),
		DailyUnlimited:  daily,
		Markers:         detection.Markers(plan),
		Days:            plan.Duration,
		DiscountPercent: res.Percent,
		DiscountSource:  res.Source,
		BaseUSD:         pricing.PlanBaseUSD(plan, days),
		FinalUSD:        finalUSD,
		FinalPrice:      pricing.RoundForCurrency(pricing.Convert(finalUSD, currency, rates), currency),
		Currency:        currency,
		Converted:       pricing.HasRate(currency, rates),
	}
	if daily {
		q.Days = days
	}
	return q
}

func (e *Engine) currency(c types.Currency) types.Currency {
	if c == "" {
		return e.config.DefaultCurrency.Normalize()
	}
	return c.Normalize()
}

func (e *Engine) days(d int) int {
	if d == 0 {
		d = e.config.DefaultDays
	}
	if d < 1 {
		return 1
	}
	return d
}

// InputHash fingerprints a plan list, including the structured marker fields
// that drive daily-unlimited pricing and duplicate collapsing. Order matters
// because duplicate collapsing may depend on it.
func InputHash(plans []types.Plan) determinism.ContentHash {
	parts := make([]string, 0, len(plans))
	for _, p := range plans {
		parts = append(parts,
			p.PackageCode, p.Name, p.Location,
			strconv.FormatInt(p.VolumeBytes, 10),
			strconv.Itoa(p.Duration), string(p.DurationUnit),
			p.PriceUSD.String(),
			p.FUPPolicy, p.Route, p.Carrier,
		)
	}
	return determinism.HashParts("plans", parts...)
}
