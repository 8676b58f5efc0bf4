// Package config loads splitbill settings.
//
// Settings come from, in increasing priority:
//  1. Default()
//  2. a TOML file (optional)
//  3. SPLITBILL_* environment variables
//
// Example file:
//
//	[rates]
//	tax = 11
//	service = 5
//
//	[calculator]
//	tax_base = "subtotal_and_service"
//	stale_policy = "exclude"
//
//	[ingest]
//	backend = "text"
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/ingest"
)

// Accepted policy names.
const (
	TaxBaseSubtotalAndService = "subtotal_and_service"
	TaxBaseSubtotal           = "subtotal"
	StaleExclude              = "exclude"
	StaleRedistribute         = "redistribute"
)

// ErrInvalidValue is returned for unrecognized policy names or malformed numbers.
var ErrInvalidValue = errors.New("invalid config value")

// Config is the complete splitbill configuration.
type Config struct {
	Rates      RatesConfig      `toml:"rates"`
	Calculator CalculatorConfig `toml:"calculator"`
	Ingest     IngestConfig     `toml:"ingest"`
	Log        LogConfig        `toml:"log"`
}

// RatesConfig holds the default percentages.
type RatesConfig struct {
	Tax     float64 `toml:"tax"`
	Service float64 `toml:"service"`
}

// CalculatorConfig selects allocation policies.
type CalculatorConfig struct {
	TaxBase     string `toml:"tax_base"`
	StalePolicy string `toml:"stale_policy"`
}

// IngestConfig selects the receipt extraction backend.
type IngestConfig struct {
	Backend string `toml:"backend"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Rates:      RatesConfig{Tax: 10, Service: 5},
		Calculator: CalculatorConfig{TaxBase: TaxBaseSubtotalAndService, StalePolicy: StaleExclude},
		Ingest:     IngestConfig{Backend: ingest.TextBackend},
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	floats := map[string]*float64{
		"SPLITBILL_TAX_RATE":     &c.Rates.Tax,
		"SPLITBILL_SERVICE_RATE": &c.Rates.Service,
	}
	for key, dst := range floats {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
		}
		*dst = f
	}

	strs := map[string]*string{
		"SPLITBILL_TAX_BASE":       &c.Calculator.TaxBase,
		"SPLITBILL_STALE_POLICY":   &c.Calculator.StalePolicy,
		"SPLITBILL_INGEST_BACKEND": &c.Ingest.Backend,
		"LOG_LEVEL":                &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks policy names.
func (c Config) Validate() error {
	_, err := c.CalculatorOptions()
	return err
}

// DefaultRates returns the configured rates.
func (c Config) DefaultRates() calculator.Rates {
	return calculator.Rates{Tax: c.Rates.Tax, Service: c.Rates.Service}
}

// CalculatorOptions converts the policy names into calculator options.
func (c Config) CalculatorOptions() ([]calculator.Option, error) {
	var opts []calculator.Option

	switch c.Calculator.TaxBase {
	case "", TaxBaseSubtotalAndService:
		opts = append(opts, calculator.WithTaxBase(calculator.TaxOnSubtotalAndService))
	case TaxBaseSubtotal:
		opts = append(opts, calculator.WithTaxBase(calculator.TaxOnSubtotal))
	default:
		return nil, fmt.Errorf("%w: tax_base %q", ErrInvalidValue, c.Calculator.TaxBase)
	}

	switch c.Calculator.StalePolicy {
	case "", StaleExclude:
		opts = append(opts, calculator.WithStalePolicy(calculator.StaleExclude))
	case StaleRedistribute:
		opts = append(opts, calculator.WithStalePolicy(calculator.StaleRedistribute))
	default:
		return nil, fmt.Errorf("%w: stale_policy %q", ErrInvalidValue, c.Calculator.StalePolicy)
	}

	return opts, nil
}
