// Package config provides configuration management.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// ESIM_ environment variables. Environment keys use a double underscore
// between sections, e.g. ESIM_PRICING__DEFAULT_CURRENCY=EUR.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"esim-pricing/core/catalog"
	"esim-pricing/core/engine"
	"esim-pricing/core/types"
	perrors "esim-pricing/internal/errors"
	"esim-pricing/internal/logging"
)

// EnvPrefix is the prefix of environment overrides
const EnvPrefix = "ESIM_"

// DefaultPaths are searched in order when no config file is given
var DefaultPaths = []string{"./esim-pricing.toml", "$HOME/.config/esim-pricing/config.toml"}

// Config is the main application configuration
type Config struct {
	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing" koanf:"pricing"`

	// Catalog contains catalog handling configuration
	Catalog CatalogConfig `json:"catalog" koanf:"catalog"`

	// Output contains output configuration
	Output OutputConfig `json:"output" koanf:"output"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" koanf:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" koanf:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// DefaultCurrency is used when a request names no currency
	DefaultCurrency string `json:"default_currency" koanf:"default_currency"`

	// DefaultDays prices daily-unlimited plans when no day count is given
	DefaultDays int `json:"default_days" koanf:"default_days"`
}

// CatalogConfig contains catalog-related settings
type CatalogConfig struct {
	// DedupTiebreak is input_order or package_code
	DedupTiebreak string `json:"dedup_tiebreak" koanf:"dedup_tiebreak"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" koanf:"default_format"`

	// NoColor disables styled terminal output
	NoColor bool `json:"no_color" koanf:"no_color"`

	// Verbose lists every hidden plan and collapsed duplicate group
	Verbose bool `json:"verbose" koanf:"verbose"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr string `json:"addr" koanf:"addr"`

	// ReadTimeoutSeconds bounds request reads
	ReadTimeoutSeconds int `json:"read_timeout_seconds" koanf:"read_timeout_seconds"`

	// MaxBodyBytes bounds request bodies
	MaxBodyBytes int64 `json:"max_body_bytes" koanf:"max_body_bytes"`

	// StoreBackend keeps resolved runs: memory, file or none
	StoreBackend string `json:"store_backend" koanf:"store_backend"`

	// StorePath is the directory used by the file backend
	StorePath string `json:"store_path" koanf:"store_path"`

	// MaxRuns bounds the memory backend
	MaxRuns int `json:"max_runs" koanf:"max_runs"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Pricing: PricingConfig{
			DefaultCurrency: string(types.CurrencyUSD),
			DefaultDays:     1,
		},
		Catalog: CatalogConfig{
			DedupTiebreak: catalog.TiebreakPackageCode.String(),
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Server: ServerConfig{
			Addr:               ":8080",
			ReadTimeoutSeconds: 10,
			MaxBodyBytes:       4 << 20,
			StoreBackend:       "memory",
			MaxRuns:            256,
		},
		Logging: logging.DefaultConfig(),
	}
}

// flatten renders c as dotted keys for koanf
func (c *Config) flatten() map[string]interface{} {
	return map[string]interface{}{
		"pricing.default_currency":    c.Pricing.DefaultCurrency,
		"pricing.default_days":        c.Pricing.DefaultDays,
		"catalog.dedup_tiebreak":      c.Catalog.DedupTiebreak,
		"output.default_format":       c.Output.DefaultFormat,
		"output.no_color":             c.Output.NoColor,
		"output.verbose":              c.Output.Verbose,
		"server.addr":                 c.Server.Addr,
		"server.read_timeout_seconds": c.Server.ReadTimeoutSeconds,
		"server.max_body_bytes":       c.Server.MaxBodyBytes,
		"server.store_backend":        c.Server.StoreBackend,
		"server.store_path":           c.Server.StorePath,
		"server.max_runs":             c.Server.MaxRuns,
		"logging.level":               c.Logging.Level,
		"logging.format":              c.Logging.Format,
		"logging.output":              c.Logging.Output,
		"logging.development":         c.Logging.Development,
	}
}

// Load builds configuration from defaults, the TOML file at path (or the
// first of DefaultPaths that exists when path is empty) and the environment.
// An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Default().flatten(), "."), nil); err != nil {
		return nil, perrors.Config("load defaults", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, perrors.Config("load config file", err).WithContext("path", path)
		}
	} else {
		for _, p := range DefaultPaths {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, perrors.Config("load config file", err).WithContext("path", p)
			}
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, perrors.Config("load environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, perrors.Config("unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps ESIM_PRICING__DEFAULT_CURRENCY to pricing.default_currency
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := catalog.ParseTiebreak(c.Catalog.DedupTiebreak); err != nil {
		return perrors.Config("catalog.dedup_tiebreak", err)
	}
	if c.Pricing.DefaultDays < 1 {
		return perrors.Config("pricing.default_days", fmt.Errorf("must be at least 1, got %d", c.Pricing.DefaultDays))
	}
	switch c.Server.StoreBackend {
	case "memory", "file", "none":
	default:
		return perrors.Config("server.store_backend", fmt.Errorf("unknown backend %q", c.Server.StoreBackend))
	}
	switch c.Output.DefaultFormat {
	case "cli", "json":
	default:
		return perrors.Config("output.default_format", fmt.Errorf("unknown format %q", c.Output.DefaultFormat))
	}
	return nil
}

// EngineConfig derives the engine settings from c
func (c *Config) EngineConfig() engine.EngineConfig {
	tiebreak, _ := catalog.ParseTiebreak(c.Catalog.DedupTiebreak)
	return engine.EngineConfig{
		Tiebreak:        tiebreak,
		DefaultCurrency: types.Currency(c.Pricing.DefaultCurrency).Normalize(),
		DefaultDays:     c.Pricing.DefaultDays,
	}
}

// TOML renders c in config file form
func (c *Config) TOML() ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(c.flatten(), "."), nil); err != nil {
		return nil, err
	}
	return k.Marshal(toml.Parser())
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
