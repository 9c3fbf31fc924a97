// Package catalogfile loads plan catalogs, discount configurations and rate
// tables from YAML or JSON files. It stands in for the catalog, settings and
// currency collaborators when quoting from the command line.
package catalogfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"esim-pricing/core/discount"
	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
)

const bytesPerGB = 1024 * 1024 * 1024

// planRecord is the on-disk plan shape. Volume may be given in bytes or GB;
// "unlimited: true" is the uncapped sentinel.
type planRecord struct {
	PackageCode  string          `yaml:"package_code"`
	Name         string          `yaml:"name"`
	VolumeBytes  *int64          `yaml:"volume_bytes"`
	VolumeGB     *float64        `yaml:"volume_gb"`
	Unlimited    bool            `yaml:"unlimited"`
	Duration     int             `yaml:"duration"`
	DurationUnit string          `yaml:"duration_unit"`
	PriceUSD     decimal.Decimal `yaml:"price_usd"`
	Location     string          `yaml:"location"`
	FUPPolicy    string          `yaml:"fup_policy"`
	Route        string          `yaml:"route"`
	Carrier      string          `yaml:"carrier"`
}

type planFile struct {
	Plans []planRecord `yaml:"plans"`
}

// discountFile holds raw operator input; percentages may be written as
// numbers or strings such as "15%".
type discountFile struct {
	Global     map[string]string `yaml:"global"`
	Individual map[string]string `yaml:"individual"`
}

type rateFile struct {
	Base  string                     `yaml:"base"`
	Rates map[string]decimal.Decimal `yaml:"rates"`
}

// LoadPlans reads a plan catalog file
func LoadPlans(path string) ([]types.Plan, error) {
	data, err := readFile("plans", path)
	if err != nil {
		return nil, err
	}
	return DecodePlans(bytes.NewReader(data))
}

// DecodePlans decodes a plan catalog. The document is either a list of plans
// or a mapping with a "plans" list. Catalog order is preserved.
func DecodePlans(r io.Reader) ([]types.Plan, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, perrors.Parsing("decode plan catalog", err)
	}

	var records []planRecord
	doc := &node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&records); err != nil {
			return nil, perrors.Parsing("decode plan list", err)
		}
	case yaml.MappingNode:
		var f planFile
		if err := doc.Decode(&f); err != nil {
			return nil, perrors.Parsing("decode plan catalog", err)
		}
		records = f.Plans
	default:
		return nil, perrors.Parsing("plan catalog must be a list or a mapping with a plans key", nil)
	}

	plans := make([]types.Plan, 0, len(records))
	for i, rec := range records {
		p, err := rec.toPlan()
		if err != nil {
			return nil, perrors.Wrap(perrors.TypeInput, fmt.Sprintf("plan %d", i), err).
				WithContext("package_code", rec.PackageCode)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r planRecord) toPlan() (types.Plan, error) {
	if strings.TrimSpace(r.PackageCode) == "" {
		return types.Plan{}, errors.New("package_code is required")
	}
	volume, err := r.volume()
	if err != nil {
		return types.Plan{}, err
	}
	unit := types.DurationUnit(r.DurationUnit).Normalize()
	if unit == "" {
		unit = types.DurationDay
	}
	return types.Plan{
		PackageCode:  r.PackageCode,
		Name:         r.Name,
		VolumeBytes:  volume,
		Duration:     r.Duration,
		DurationUnit: unit,
		PriceUSD:     r.PriceUSD,
		Location:     r.Location,
		FUPPolicy:    r.FUPPolicy,
		Route:        r.Route,
		Carrier:      r.Carrier,
	}, nil
}

// volume resolves the three ways a file can express data allowance. Values
// are passed through unchecked; malformed volumes are hidden downstream.
func (r planRecord) volume() (int64, error) {
	set := 0
	for _, ok := range []bool{r.Unlimited, r.VolumeBytes != nil, r.VolumeGB != nil} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return 0, errors.New("one of volume_bytes, volume_gb or unlimited is required")
	case set > 1:
		return 0, errors.New("volume_bytes, volume_gb and unlimited are mutually exclusive")
	case r.Unlimited:
		return types.UnlimitedVolume, nil
	case r.VolumeBytes != nil:
		return *r.VolumeBytes, nil
	}
	gb := *r.VolumeGB
	if math.IsNaN(gb) || math.IsInf(gb, 0) {
		return 0, fmt.Errorf("volume_gb %v is not a number", gb)
	}
	return int64(math.Round(gb * bytesPerGB)), nil
}

// LoadDiscounts reads and validates a discount configuration file
func LoadDiscounts(path string) (*discount.Config, error) {
	data, err := readFile("discounts", path)
	if err != nil {
		return nil, err
	}
	return DecodeDiscounts(bytes.NewReader(data))
}

// DecodeDiscounts decodes a discount configuration. Blank entries are
// dropped; bad percentages or bucket keys fail the whole file.
func DecodeDiscounts(r io.Reader) (*discount.Config, error) {
	var f discountFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, perrors.Parsing("decode discount config", err)
	}
	return discount.FromRaw(f.Global, f.Individual)
}

// LoadRates reads a rate table file. Rates are units per 1 USD.
func LoadRates(path string) (types.RateTable, error) {
	data, err := readFile("rates", path)
	if err != nil {
		return nil, err
	}
	return DecodeRates(bytes.NewReader(data))
}

// DecodeRates decodes a rate table. A zero rate is kept and priced as
// missing (1:1); a negative rate is rejected.
func DecodeRates(r io.Reader) (types.RateTable, error) {
	var f rateFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, perrors.Parsing("decode rate table", err)
	}
	if f.Base != "" && !types.Currency(f.Base).IsUSD() {
		return nil, perrors.Inputf("rate table base must be USD, got %q", f.Base)
	}
	table := make(types.RateTable, len(f.Rates))
	for code, rate := range f.Rates {
		if rate.IsNegative() {
			return nil, perrors.Inputf("rate for %s is negative: %s", code, rate).WithContext("currency", code)
		}
		table[types.Currency(code).Normalize()] = rate
	}
	return table, nil
}

func readFile(kind, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perrors.NotFound(kind+" file", path)
		}
		return nil, perrors.Wrap(perrors.TypeParsing, "read "+kind+" file", err).WithContext("path", path)
	}
	return data, nil
}
