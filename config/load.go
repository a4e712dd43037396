package config

import (
	"fmt"

	"lendrisk/core"
	"lendrisk/internal/looping"
	"lendrisk/internal/ratelimit"
	"lendrisk/pkg/bisection"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/config"
)

// Load load config file, env vars prefixed LENDRISK override it
func Load(cfgFile string, cfg *Config) error {
	config.AutomaticLoadEnv("LENDRISK")
	if err := config.LoadYaml(cfgFile, cfg); err != nil {
		return err
	}

	defaults(cfg)
	return Validate(cfg)
}

func defaults(cfg *Config) {
	if cfg.App.Location == "" {
		cfg.App.Location = "UTC"
	}

	if cfg.Poller.IntervalS <= 0 {
		cfg.Poller.IntervalS = 30
	}
	if cfg.Poller.FetchTimeoutS <= 0 {
		cfg.Poller.FetchTimeoutS = cfg.Poller.IntervalS / 2
	}
	if cfg.Poller.MetadataSpec == "" {
		cfg.Poller.MetadataSpec = "@every 60m"
	}
	if cfg.Poller.PriceRetentionH <= 0 {
		cfg.Poller.PriceRetentionH = 48
	}

	if cfg.Solver.MaxIterations <= 0 {
		cfg.Solver.MaxIterations = bisection.DefaultMaxIterations
	}
	if cfg.Solver.Tolerance == "" {
		cfg.Solver.Tolerance = bisection.DefaultTolerance
	}

	if cfg.Staleness.MaxPriceAgeS == 0 && cfg.Staleness.MaxInterestAgeS == 0 {
		cfg.Staleness.MaxPriceAgeS = 60
		cfg.Staleness.MaxInterestAgeS = 60
	}
}

// Validate checks endpoints and the engine settings
func Validate(cfg *Config) error {
	if !govalidator.IsURL(cfg.Chain.EndPoint) {
		return fmt.Errorf("%w: chain.end_point %q", core.ErrInvalidConfiguration, cfg.Chain.EndPoint)
	}
	if govalidator.IsNull(cfg.Chain.MarketID) {
		return fmt.Errorf("%w: chain.market_id is empty", core.ErrInvalidConfiguration)
	}
	if !govalidator.IsURL(cfg.PriceOracle.EndPoint) {
		return fmt.Errorf("%w: price_oracle.end_point %q", core.ErrInvalidConfiguration, cfg.PriceOracle.EndPoint)
	}
	if cfg.PriceOracle.MaxConfidenceBps > 10000 {
		return fmt.Errorf("%w: price_oracle.max_confidence_bps %d", core.ErrInvalidConfiguration, cfg.PriceOracle.MaxConfidenceBps)
	}
	if cfg.Redis.Addr != "" && !govalidator.IsDialString(cfg.Redis.Addr) {
		return fmt.Errorf("%w: redis.addr %q", core.ErrInvalidConfiguration, cfg.Redis.Addr)
	}

	if _, err := cfg.SolverConfig(); err != nil {
		return fmt.Errorf("%w: solver.tolerance: %v", core.ErrInvalidConfiguration, err)
	}

	if cfg.RateLimiter.Enabled {
		if err := ratelimit.Validate(cfg.RateLimiterConfig()); err != nil {
			return err
		}
	}

	if _, err := looping.New(cfg.LoopGroups); err != nil {
		return err
	}

	return nil
}
