package catalogfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
)

const plansYAML = `
plans:
  - package_code: A1
    name: France 5GB 7Days
    volume_gb: 5
    duration: 7
    duration_unit: Days
    price_usd: 10.00
    location: FR
  - package_code: JP-D
    name: Japan 2GB/Day
    volume_bytes: 2147483648
    duration: 1
    price_usd: "1.00"
    location: JP
    fup_policy: 1Mbps
  - package_code: UL7
    name: Europe Unlimited
    unlimited: true
    duration: 7
    duration_unit: day
    price_usd: 30
    location: FR,DE
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPlans(t *testing.T) {
	plans, err := LoadPlans(writeFile(t, "plans.yaml", plansYAML))
	require.NoError(t, err)
	require.Len(t, plans, 3)

	assert.Equal(t, "A1", plans[0].PackageCode)
	assert.Equal(t, int64(5*1024*1024*1024), plans[0].VolumeBytes)
	assert.Equal(t, types.DurationDay, plans[0].DurationUnit)
	assert.Equal(t, "10", plans[0].PriceUSD.String())

	assert.Equal(t, types.DurationDay, plans[1].DurationUnit, "unit defaults to day")
	assert.Equal(t, "1Mbps", plans[1].FUPPolicy)

	assert.True(t, plans[2].IsUnlimited())
	assert.Equal(t, "FR", plans[2].PrimaryLocation())
}

func TestDecodePlansAcceptsBareListAndJSON(t *testing.T) {
	plans, err := DecodePlans(strings.NewReader(`[{"package_code":"X","volume_gb":3,"duration":7,"price_usd":"4.5","location":"IT"}]`))
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "4.5", plans[0].PriceUSD.String())

	plans, err = DecodePlans(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestDecodePlansRejectsBadRecords(t *testing.T) {
	_, err := DecodePlans(strings.NewReader("- name: no code\n  volume_gb: 1\n"))
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.TypeInput))

	_, err = DecodePlans(strings.NewReader("- package_code: A\n  volume_gb: 1\n  unlimited: true\n"))
	require.Error(t, err)

	_, err = DecodePlans(strings.NewReader("- package_code: A\n"))
	require.Error(t, err)

	_, err = DecodePlans(strings.NewReader("just a string"))
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.TypeParsing))
}

func TestLoadDiscounts(t *testing.T) {
	path := writeFile(t, "discounts.yaml", `
global:
  "5.0": 20
  "10": "15%"
  "3": ""
individual:
  A1: 0
`)
	cfg, err := LoadDiscounts(path)
	require.NoError(t, err)
	assert.Equal(t, "20", cfg.Global["5"].String())
	assert.Equal(t, "15", cfg.Global["10"].String())
	assert.NotContains(t, cfg.Global, "3")
	assert.True(t, cfg.Individual["A1"].IsZero())

	_, err = LoadDiscounts(writeFile(t, "bad.yaml", "global:\n  \"5\": 140\n"))
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.TypeInput))
}

func TestLoadRates(t *testing.T) {
	rates, err := LoadRates(writeFile(t, "rates.yaml", "base: USD\nrates:\n  eur: 0.9\n  JPY: 150\n"))
	require.NoError(t, err)
	assert.Equal(t, "0.9", rates["EUR"].String())
	assert.Equal(t, "150", rates["JPY"].String())

	_, err = LoadRates(writeFile(t, "rates.yaml", "base: EUR\nrates:\n  USD: 1.1\n"))
	assert.True(t, perrors.IsType(err, perrors.TypeInput))

	rates, err = LoadRates(writeFile(t, "rates.yaml", "rates:\n  XXX: 0\n"))
	require.NoError(t, err, "zero rates load and price 1:1")
	assert.True(t, rates["XXX"].IsZero())

	_, err = LoadRates(writeFile(t, "rates.yaml", "rates:\n  EUR: -0.9\n"))
	assert.True(t, perrors.IsType(err, perrors.TypeInput))
}

func TestMissingFile(t *testing.T) {
	_, err := LoadPlans(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.TypeNotFound))
}
