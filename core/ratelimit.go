package core

import (
	"context"
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ErrStateConflict the stored limiter state changed between load and save
var ErrStateConflict = errors.New("rate limiter state changed concurrently")

// UnlimitedOutflow sentinel MaxOutflow that disables the limiter
const UnlimitedOutflow uint64 = math.MaxUint64

// RateLimiterConfig sliding window outflow cap
type RateLimiterConfig struct {
	MaxOutflow      uint64 `json:"max_outflow"`
	WindowDurationS uint64 `json:"window_duration_s"`
}

// Unlimited whether MaxOutflow is the unlimited sentinel
func (c RateLimiterConfig) Unlimited() bool {
	return c.MaxOutflow == UnlimitedOutflow
}

// RateLimiterState window bookkeeping, all zero at market genesis
type RateLimiterState struct {
	WindowStart uint64 `json:"window_start"`
	CurQty      uint64 `json:"cur_qty"`
	PrevQty     uint64 `json:"prev_qty"`
}

// RateLimiter persisted limiter state of a market
type RateLimiter struct {
	ID          int64           `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID    string          `sql:"size:255;unique_index:idx_rate_limiters_market" json:"market_id"`
	WindowStart int64           `json:"window_start"`
	CurQty      decimal.Decimal `sql:"type:decimal(20,0)" json:"cur_qty"`
	PrevQty     decimal.Decimal `sql:"type:decimal(20,0)" json:"prev_qty"`
	Version     int64           `sql:"default:0" json:"version"`
	CreatedAt   time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// State limiter state as engine values
func (r *RateLimiter) State() RateLimiterState {
	return RateLimiterState{
		WindowStart: uint64(r.WindowStart),
		CurQty:      r.CurQty.BigInt().Uint64(),
		PrevQty:     r.PrevQty.BigInt().Uint64(),
	}
}

// SetState copies engine values into the record
func (r *RateLimiter) SetState(s RateLimiterState) {
	r.WindowStart = int64(s.WindowStart)
	r.CurQty = decimal.NewFromBigInt(new(big.Int).SetUint64(s.CurQty), 0)
	r.PrevQty = decimal.NewFromBigInt(new(big.Int).SetUint64(s.PrevQty), 0)
}

// OutflowDecision result of consulting the limiter
type OutflowDecision struct {
	Allowed   bool             `json:"allowed"`
	Requested uint64           `json:"requested"`
	Remaining uint64           `json:"remaining"`
	State     RateLimiterState `json:"state"`
}

// IRateLimiterStore rate limiter store interface
type IRateLimiterStore interface {
	// Find returns a zero state record when the market has none yet
	Find(ctx context.Context, marketID string) (*RateLimiter, error)
	// Save creates or version-checks and updates, ErrStateConflict on a stale version
	Save(ctx context.Context, limiter *RateLimiter) error
}

// IRateLimiterService rate limiter service interface
type IRateLimiterService interface {
	Consume(ctx context.Context, amount uint64, now uint64) (*OutflowDecision, error)
	Remaining(ctx context.Context, now uint64) (uint64, error)
	Config() RateLimiterConfig
}
