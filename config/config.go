package config

import (
	"time"

	"lendrisk/core"
	"lendrisk/internal/looping"
	"lendrisk/pkg/bisection"
	"lendrisk/pkg/number"

	"github.com/fox-one/pkg/store/db"
)

// Config lendrisk config
type Config struct {
	App         App             `json:"app"`
	DB          db.Config       `json:"db"`
	Redis       Redis           `json:"redis"`
	Chain       Chain           `json:"chain"`
	PriceOracle PriceOracle     `json:"price_oracle"`
	Poller      Poller          `json:"poller"`
	Solver      Solver          `json:"solver"`
	Staleness   Staleness       `json:"staleness"`
	RateLimiter RateLimiter     `json:"rate_limiter"`
	LoopGroups  []looping.Group `json:"loop_groups"`
}

// App app config
type App struct {
	Location string `json:"location"`
}

// Redis optional read model mirror, disabled when Addr is empty
type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// TTLS expiry of the mirrored read model, zero keeps it forever
	TTLS int64 `json:"ttl_s"`
}

// Chain chain indexer config
type Chain struct {
	EndPoint string `json:"end_point"`
	MarketID string `json:"market_id"`
}

// PriceOracle price oracle config
type PriceOracle struct {
	EndPoint         string `json:"end_point"`
	MaxConfidenceBps uint64 `json:"max_confidence_bps"`
}

// Poller poll loop config
type Poller struct {
	IntervalS     int64 `json:"interval_s"`
	FetchTimeoutS int64 `json:"fetch_timeout_s"`
	// MetadataSpec cron spec of the reserve config refresh
	MetadataSpec    string `json:"metadata_spec"`
	PriceRetentionH int64  `json:"price_retention_h"`
}

// Solver bisection knobs
type Solver struct {
	MaxIterations int    `json:"max_iterations"`
	Tolerance     string `json:"tolerance"`
}

// Staleness max age of reserve inputs, zero disables the check
type Staleness struct {
	MaxPriceAgeS    uint64 `json:"max_price_age_s"`
	MaxInterestAgeS uint64 `json:"max_interest_age_s"`
}

// RateLimiter outflow limiter, only built when enabled
type RateLimiter struct {
	Enabled         bool   `json:"enabled"`
	Unlimited       bool   `json:"unlimited"`
	MaxOutflow      uint64 `json:"max_outflow"`
	WindowDurationS uint64 `json:"window_duration_s"`
}

// Location app time zone, UTC when unknown
func (c *Config) Location() *time.Location {
	l, err := time.LoadLocation(c.App.Location)
	if err != nil {
		return time.UTC
	}

	return l
}

// Bound staleness bound of valuations
func (c *Config) Bound() core.StalenessBound {
	return core.StalenessBound{
		MaxPriceAgeS:    c.Staleness.MaxPriceAgeS,
		MaxInterestAgeS: c.Staleness.MaxInterestAgeS,
	}
}

// SolverConfig bisection config
func (c *Config) SolverConfig() (bisection.Config, error) {
	tolerance, err := number.FromString(c.Solver.Tolerance)
	if err != nil {
		return bisection.Config{}, err
	}

	return bisection.Config{
		MaxIterations: c.Solver.MaxIterations,
		Tolerance:     tolerance,
	}, nil
}

// RateLimiterConfig limiter config
func (c *Config) RateLimiterConfig() core.RateLimiterConfig {
	cfg := core.RateLimiterConfig{
		MaxOutflow:      c.RateLimiter.MaxOutflow,
		WindowDurationS: c.RateLimiter.WindowDurationS,
	}
	if c.RateLimiter.Unlimited {
		cfg.MaxOutflow = core.UnlimitedOutflow
	}

	return cfg
}

// PollInterval poll interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalS) * time.Second
}

// FetchTimeout timeout of one tick's fetch
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Poller.FetchTimeoutS) * time.Second
}

// PriceRetention how long archived quotes are kept
func (c *Config) PriceRetention() time.Duration {
	return time.Duration(c.Poller.PriceRetentionH) * time.Hour
}
