// Package config holds the tunable parameters of the engines.
//
// A Config is built once at startup (defaults, then an optional YAML file,
// then ACTUS_* environment variables) and passed explicitly to the engines.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds engine and kernel parameters.
type Config struct {
	// MaxDurationYears bounds every schedule to the status date plus this many
	// years; contracts without a maturity stop there.
	MaxDurationYears int `yaml:"max_duration_years"`

	// StateTolerance is the numeric slack of transition validation and state comparison.
	StateTolerance float64 `yaml:"state_tolerance"`

	// StrictEventCoverage turns events without a payoff function into errors
	// instead of no-ops.
	StrictEventCoverage bool `yaml:"strict_event_coverage"`

	// KernelLength is the padded step count of array-mode programs.
	// 0 sizes each batch to its longest contract.
	KernelLength int `yaml:"kernel_length"`

	// KernelWorkers is the number of goroutines folding batch lanes.
	KernelWorkers int `yaml:"kernel_workers"`

	// PortfolioWorkers bounds concurrent contracts in SimulatePortfolio.
	PortfolioWorkers int `yaml:"portfolio_workers"`

	// EquivalenceTolerance is the accepted gap, in currency units, between
	// kernel and engine payoff totals.
	EquivalenceTolerance float64 `yaml:"equivalence_tolerance"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// DatabaseURL is the Postgres connection string of the history store.
	// Empty keeps histories in memory.
	DatabaseURL string `yaml:"database_url"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	MaxDurationYears:     100,
	StateTolerance:       1e-9,
	StrictEventCoverage:  false,
	KernelLength:         0,
	KernelWorkers:        4,
	PortfolioWorkers:     4,
	EquivalenceTolerance: 1.0,
	LogLevel:             "info",
}

// Default returns a copy of DefaultConfig.
func Default() Config { return DefaultConfig }

// Load reads a YAML file over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config.Load: parse %s: %w", path, err)
		}
	}
	cfg = cfg.WithEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// WithEnv returns c with ACTUS_* overrides applied. Unparseable values are ignored.
func (c Config) WithEnv(lookup func(string) (string, bool)) Config {
	c.MaxDurationYears = getEnvInt(lookup, "ACTUS_MAX_DURATION_YEARS", c.MaxDurationYears)
	c.StateTolerance = getEnvFloat(lookup, "ACTUS_STATE_TOLERANCE", c.StateTolerance)
	c.StrictEventCoverage = getEnvBool(lookup, "ACTUS_STRICT_EVENT_COVERAGE", c.StrictEventCoverage)
	c.KernelLength = getEnvInt(lookup, "ACTUS_KERNEL_LENGTH", c.KernelLength)
	c.KernelWorkers = getEnvInt(lookup, "ACTUS_KERNEL_WORKERS", c.KernelWorkers)
	c.PortfolioWorkers = getEnvInt(lookup, "ACTUS_PORTFOLIO_WORKERS", c.PortfolioWorkers)
	c.EquivalenceTolerance = getEnvFloat(lookup, "ACTUS_EQUIVALENCE_TOLERANCE", c.EquivalenceTolerance)
	c.LogLevel = getEnv(lookup, "ACTUS_LOG_LEVEL", c.LogLevel)
	c.DatabaseURL = getEnv(lookup, "ACTUS_DATABASE_URL", c.DatabaseURL)
	return c
}

// Validate checks ranges.
func (c Config) Validate() error {
	switch {
	case c.MaxDurationYears <= 0:
		return fmt.Errorf("max_duration_years must be positive, got %d", c.MaxDurationYears)
	case c.StateTolerance < 0:
		return fmt.Errorf("state_tolerance must be non-negative, got %g", c.StateTolerance)
	case c.KernelLength < 0:
		return fmt.Errorf("kernel_length must be non-negative, got %d", c.KernelLength)
	case c.KernelWorkers <= 0:
		return fmt.Errorf("kernel_workers must be positive, got %d", c.KernelWorkers)
	case c.PortfolioWorkers <= 0:
		return fmt.Errorf("portfolio_workers must be positive, got %d", c.PortfolioWorkers)
	case c.EquivalenceTolerance <= 0:
		return fmt.Errorf("equivalence_tolerance must be positive, got %g", c.EquivalenceTolerance)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

func getEnv(lookup func(string) (string, bool), key, defaultValue string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(lookup func(string) (string, bool), key string, defaultValue int) int {
	if value, ok := lookup(key); ok && value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(lookup func(string) (string, bool), key string, defaultValue float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(lookup func(string) (string, bool), key string, defaultValue bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
