// Package ratelimit caps the aggregate outflow of a market over a sliding window.
//
// Only three numbers are kept: the start of the current window, the quantity that
// left during it and the quantity that left during the window before. The outflow
// observed over the trailing window is estimated by weighting the previous window by
// the share of it that is still inside the trailing interval.
package ratelimit

import (
	"fmt"
	"math"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

// Validate a limited config needs a non zero window
func Validate(cfg core.RateLimiterConfig) error {
	if !cfg.Unlimited() && cfg.WindowDurationS == 0 {
		return fmt.Errorf("%w: rate limiter window is zero", core.ErrInvalidConfiguration)
	}

	return nil
}

// Process applies an outflow of q at time t.
//
// On rejection the returned error wraps core.ErrRateLimitExceeded and the input
// state is returned unchanged.
func Process(cfg core.RateLimiterConfig, s core.RateLimiterState, t, q uint64) (core.RateLimiterState, error) {
	if err := Validate(cfg); err != nil {
		return s, err
	}

	next := roll(cfg, s, t)
	if cfg.Unlimited() {
		next.CurQty = saturatingAdd(next.CurQty, q)
		return next, nil
	}

	observed, err := Effective(cfg, next, t)
	if err != nil {
		return s, err
	}

	total, err := observed.Add(number.FromUint64(q))
	if err != nil {
		return s, err
	}

	if total.Gt(number.FromUint64(cfg.MaxOutflow)) {
		return s, fmt.Errorf("%w: outflow %d over window %ds, observed %s of %d",
			core.ErrRateLimitExceeded, q, cfg.WindowDurationS, observed, cfg.MaxOutflow)
	}

	// q <= MaxOutflow - CurQty here, so no overflow
	next.CurQty += q
	return next, nil
}

// Remaining largest outflow Process would accept at t
func Remaining(cfg core.RateLimiterConfig, s core.RateLimiterState, t uint64) (uint64, error) {
	if err := Validate(cfg); err != nil {
		return 0, err
	}

	if cfg.Unlimited() {
		return math.MaxUint64, nil
	}

	observed, err := Effective(cfg, roll(cfg, s, t), t)
	if err != nil {
		return 0, err
	}

	return number.FromUint64(cfg.MaxOutflow).SaturatingSub(observed).FloorUint64()
}

// Effective prevQty * (window - elapsed) / window + curQty, rounded up.
// s must already be rolled to t.
func Effective(cfg core.RateLimiterConfig, s core.RateLimiterState, t uint64) (number.Decimal, error) {
	cur := number.FromUint64(s.CurQty)
	if cfg.WindowDurationS == 0 || s.PrevQty == 0 {
		return cur, nil
	}

	elapsed := uint64(0)
	if t > s.WindowStart {
		elapsed = t - s.WindowStart
	}
	if elapsed >= cfg.WindowDurationS {
		return cur, nil
	}

	weighted, err := number.FromUint64(s.PrevQty).Mul(number.FromUint64(cfg.WindowDurationS - elapsed))
	if err != nil {
		return number.Zero(), err
	}
	if weighted, err = weighted.DivCeil(number.FromUint64(cfg.WindowDurationS)); err != nil {
		return number.Zero(), err
	}

	return weighted.Add(cur)
}

// roll moves the window forward when t is past its end. The new window start stays
// aligned to the old window grid. A t before the window start is treated as the start.
func roll(cfg core.RateLimiterConfig, s core.RateLimiterState, t uint64) core.RateLimiterState {
	window := cfg.WindowDurationS
	if window == 0 || t <= s.WindowStart {
		return s
	}

	elapsed := t - s.WindowStart
	if elapsed < window {
		return s
	}

	if elapsed/window >= 2 {
		// the whole previous window was empty
		s.PrevQty = 0
	} else {
		s.PrevQty = s.CurQty
	}
	s.CurQty = 0
	s.WindowStart = t - elapsed%window

	return s
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}

	return a + b
}
