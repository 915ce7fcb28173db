// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional .env file, an optional YAML file and
//   COURTPRIOR_* environment variables, then validates the result.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Input tables. Either ShotsPath or ObservationsPath must be set for a run.
	ShotsPath        string `koanf:"shots_path"`
	RosterPath       string `koanf:"roster_path"`
	ObservationsPath string `koanf:"observations_path"`
	PriorsPath       string `koanf:"priors_path"`

	// OutputDir receives exported tables in each of OutputFormats.
	OutputDir     string   `koanf:"output_dir"`
	OutputFormats []string `koanf:"output_formats"`

	// StoreDriver is "sqlite", "postgres", or empty to skip persistence.
	StoreDriver string `koanf:"store_driver"`
	StoreDSN    string `koanf:"store_dsn"`

	// CredibleLevel is the central interval mass, e.g. 0.95.
	CredibleLevel float64 `koanf:"credible_level"`

	// MinAttempts drops (player, zone) groups with fewer attempts.
	MinAttempts int64 `koanf:"min_attempts"`

	// WorkerCount sets the number of posterior workers.
	WorkerCount int `koanf:"worker_count"`

	// Quantile solver bounds.
	QuantileTolerance     float64 `koanf:"quantile_tolerance"`
	QuantileMaxIterations int     `koanf:"quantile_max_iterations"`

	// LeagueFallback substitutes the league zone prior for a missing
	// position-zone prior.
	LeagueFallback bool `koanf:"league_fallback"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RateLimitRPS and RateLimitBurst bound read API traffic; 0 disables.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		OutputDir:             "out",
		OutputFormats:         []string{"csv", "json"},
		StoreDriver:           "",
		StoreDSN:              "courtprior.db",
		CredibleLevel:         0.95,
		MinAttempts:           5,
		WorkerCount:           runtime.NumCPU(),
		QuantileTolerance:     1e-10,
		QuantileMaxIterations: 200,
		LeagueFallback:        false,
		MaxLeaderboardLimit:   100,
		RateLimitRPS:          0,
		RateLimitBurst:        20,
		MetricsEnabled:        true,
	}
}

var knownFormats = map[string]bool{"csv": true, "json": true, "xlsx": true}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !(c.CredibleLevel > 0 && c.CredibleLevel < 1):
		return fmt.Errorf("%w: credible_level must be in (0, 1), got %v", ErrInvalidConfig, c.CredibleLevel)
	case c.MinAttempts < 0:
		return fmt.Errorf("%w: min_attempts must not be negative", ErrInvalidConfig)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative", ErrInvalidConfig)
	case !(c.QuantileTolerance > 0 && c.QuantileTolerance <= 1e-6):
		return fmt.Errorf("%w: quantile_tolerance must be in (0, 1e-6], got %v", ErrInvalidConfig, c.QuantileTolerance)
	case c.QuantileMaxIterations <= 0:
		return fmt.Errorf("%w: quantile_max_iterations must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	for _, f := range c.OutputFormats {
		if !knownFormats[f] {
			return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, f)
		}
	}
	switch c.StoreDriver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
