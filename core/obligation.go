package core

import (
	"context"
	"encoding/json"

	"lendrisk/pkg/number"
)

// Deposit collateral position, amount in receipt-token (ctoken) units
type Deposit struct {
	AssetID         AssetID `json:"asset_id"`
	DepositedAmount uint64  `json:"deposited_amount"`
	RewardShare     uint64  `json:"reward_share"`
}

// Borrow debt position
type Borrow struct {
	AssetID                      AssetID        `json:"asset_id"`
	BorrowedAmount               number.Decimal `json:"borrowed_amount"`
	CumulativeBorrowRateSnapshot number.Decimal `json:"cumulative_borrow_rate_snapshot"`
	RewardShare                  uint64         `json:"reward_share"`
}

// Obligation one user's position within one market, rebuilt on every poll
type Obligation struct {
	ID       string               `json:"id"`
	Owner    string               `json:"owner"`
	Deposits []Deposit            `json:"deposits"`
	Borrows  []Borrow             `json:"borrows"`
	Rewards  []UserRewardSnapshot `json:"rewards"`
}

// Utilization percent, or N/A when the borrow limit is zero
type Utilization struct {
	Percent   number.Decimal
	Unbounded bool
}

// MarshalJSON "N/A" when unbounded
func (u Utilization) MarshalJSON() ([]byte, error) {
	if u.Unbounded {
		return json.Marshal("N/A")
	}

	return json.Marshal(u.Percent)
}

// UnmarshalJSON accepts "N/A" or a decimal
func (u *Utilization) UnmarshalJSON(data []byte) error {
	if string(data) == `"N/A"` {
		*u = Utilization{Percent: number.Zero(), Unbounded: true}
		return nil
	}

	*u = Utilization{}
	return json.Unmarshal(data, &u.Percent)
}

// Exceeds utilization strictly above pct percent
func (u Utilization) Exceeds(pct uint64) bool {
	return u.Unbounded || u.Percent.Gt(number.FromUint64(pct))
}

// DepositValue valuation of one deposit
type DepositValue struct {
	AssetID AssetID `json:"asset_id"`
	// underlying base units
	Amount         number.Decimal `json:"amount"`
	AmountUsd      number.Decimal `json:"amount_usd"`
	MinPriceAmount number.Decimal `json:"min_price_amount_usd"`
}

// BorrowValue valuation of one borrow
type BorrowValue struct {
	AssetID AssetID `json:"asset_id"`
	// compounded debt, base units
	Amount            number.Decimal `json:"amount"`
	AmountUsd         number.Decimal `json:"amount_usd"`
	WeightedAmountUsd number.Decimal `json:"weighted_amount_usd"`
}

// ObligationSummary risk figures derived from an obligation and its reserves
type ObligationSummary struct {
	ObligationID              string         `json:"obligation_id"`
	DepositedAmountUsd        number.Decimal `json:"deposited_amount_usd"`
	BorrowedAmountUsd         number.Decimal `json:"borrowed_amount_usd"`
	WeightedBorrowedAmountUsd number.Decimal `json:"weighted_borrowed_amount_usd"`
	// Σ deposit@minPrice * openLtv
	MinPriceBorrowLimitUsd number.Decimal `json:"min_price_borrow_limit_usd"`
	// Σ deposit@minPrice * liquidationThreshold
	MaxPriceBorrowLimitUsd                       number.Decimal `json:"max_price_borrow_limit_usd"`
	WeightedConservativeBorrowUtilizationPercent Utilization    `json:"weighted_conservative_borrow_utilization_percent"`
	LiquidationUtilizationPercent                Utilization    `json:"liquidation_utilization_percent"`
	Unhealthy                                    bool           `json:"unhealthy"`
	Deposits                                     []DepositValue `json:"deposits"`
	Borrows                                      []BorrowValue  `json:"borrows"`
}

// StalenessBound max accepted age of reserve inputs, zero disables a check
type StalenessBound struct {
	MaxPriceAgeS    uint64 `json:"max_price_age_s"`
	MaxInterestAgeS uint64 `json:"max_interest_age_s"`
}

// IObligationService obligation service interface
type IObligationService interface {
	Valuate(ctx context.Context, obligation Obligation, reserves Reserves, now uint64) (*ObligationSummary, error)
	ValuateAll(ctx context.Context, obligations []Obligation, reserves Reserves, now uint64) (map[string]*ObligationSummary, map[string]error)
	MaxBorrow(ctx context.Context, obligation Obligation, reserves Reserves, asset AssetID, now uint64) (uint64, error)
	MaxWithdraw(ctx context.Context, obligation Obligation, reserves Reserves, asset AssetID, now uint64) (uint64, error)
}
