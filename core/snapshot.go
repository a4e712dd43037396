package core

import (
	"context"
	"time"
)

// MarketState raw market read from chain, one per poll
type MarketState struct {
	MarketID    string             `json:"market_id"`
	Reserves    []Reserve          `json:"reserves"`
	Obligations []Obligation       `json:"obligations"`
	Campaigns   []RewardCampaign   `json:"campaigns"`
	RateLimiter *RateLimiterConfig `json:"rate_limiter,omitempty"`
}

// IChainReader reads raw market state from the chain indexer
type IChainReader interface {
	ReadMarket(ctx context.Context) (*MarketState, error)
	ReadReserveConfigs(ctx context.Context) ([]ReserveConfig, error)
}

// ReserveReport reserve entry of the read model
type ReserveReport struct {
	Reserve Reserve       `json:"reserve"`
	Rates   *ReserveRates `json:"rates,omitempty"`
	Error   string        `json:"error,omitempty"`
	// publish time of the newest archived quote, set when the oracle had none this tick
	LastQuoteS uint64 `json:"last_quote_s,omitempty"`
}

// Position a deposit or borrow of one asset
type Position struct {
	AssetID AssetID `json:"asset_id"`
	Side    Side    `json:"side"`
}

// ObligationReport obligation entry of the read model
type ObligationReport struct {
	Obligation Obligation         `json:"obligation"`
	Summary    *ObligationSummary `json:"summary,omitempty"`
	Looping    bool               `json:"looping"`
	WasLooping bool               `json:"was_looping"`
	// positions that need a deposit, withdraw, borrow or repay to earn rewards again
	NeedsTouch []Position       `json:"needs_touch,omitempty"`
	Claimable  ClaimableRewards `json:"claimable,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// RateLimiterReport rate limiter entry of the read model
type RateLimiterReport struct {
	Config    RateLimiterConfig `json:"config"`
	Remaining uint64            `json:"remaining"`
	Error     string            `json:"error,omitempty"`
}

// ReadModel immutable snapshot produced by one poll tick
type ReadModel struct {
	MarketID    string                      `json:"market_id"`
	Tick        int64                       `json:"tick"`
	TimestampS  uint64                      `json:"timestamp_s"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Reserves    map[AssetID]ReserveReport   `json:"reserves"`
	Obligations map[string]ObligationReport `json:"obligations"`
	Campaigns   []RewardCampaign            `json:"campaigns"`
	RateLimiter RateLimiterReport           `json:"rate_limiter"`
}

// RefreshedReserves reserves that refreshed without error
func (m *ReadModel) RefreshedReserves() Reserves {
	reserves := make(Reserves, len(m.Reserves))
	for id, r := range m.Reserves {
		if r.Error == "" {
			reserves[id] = r.Reserve
		}
	}

	return reserves
}

// ISnapshotStore publishes read models by replacement
type ISnapshotStore interface {
	Publish(ctx context.Context, model *ReadModel) error
	// Current last published read model, ErrNoSnapshot before the first publish
	Current(ctx context.Context) (*ReadModel, error)
}
