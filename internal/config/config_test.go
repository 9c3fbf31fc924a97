package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esim-pricing/core/catalog"
	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	ec := cfg.EngineConfig()
	assert.Equal(t, catalog.TiebreakPackageCode, ec.Tiebreak)
	assert.Equal(t, types.CurrencyUSD, ec.DefaultCurrency)
	assert.Equal(t, 1, ec.DefaultDays)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "esim.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[pricing]
default_currency = "EUR"
default_days = 7

[catalog]
dedup_tiebreak = "input_order"
`), 0o600))
	t.Setenv("ESIM_PRICING__DEFAULT_DAYS", "10")
	t.Setenv("ESIM_SERVER__ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Pricing.DefaultCurrency)
	assert.Equal(t, 10, cfg.Pricing.DefaultDays, "env wins over file")
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "input_order", cfg.Catalog.DedupTiebreak)
	assert.Equal(t, "cli", cfg.Output.DefaultFormat, "untouched keys keep defaults")
}

func TestLoadDefaultPath(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("esim-pricing.toml", []byte("[output]\ndefault_format = \"json\"\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.TypeConfig))

	t.Setenv("ESIM_CATALOG__DEDUP_TIEBREAK", "random")
	_, err = Load("")
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.TypeConfig))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Pricing.DefaultDays = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Output.DefaultFormat = "html"
	assert.Error(t, cfg.Validate())
}

func TestTOMLRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Pricing.DefaultCurrency = "JPY"

	data, err := cfg.TOML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_currency")

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGlobalConfig(t *testing.T) {
	orig := Get()
	t.Cleanup(func() { Set(orig) })

	cfg := Default()
	cfg.Server.Addr = ":1"
	Set(cfg)
	assert.Equal(t, ":1", Get().Server.Addr)
}
