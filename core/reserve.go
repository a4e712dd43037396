package core

import (
	"context"
	"fmt"

	"lendrisk/pkg/number"
)

// InterestRatePoint one vertex of the borrow APR curve
type InterestRatePoint struct {
	// UtilPercent utilization in [0, 100]
	UtilPercent uint64 `json:"util_percent"`
	// AprBps borrow APR at this utilization, basis points
	AprBps uint64 `json:"apr_bps"`
}

// ReserveConfig slow-changing risk parameters of a reserve
type ReserveConfig struct {
	AssetID AssetID `json:"asset_id"`
	Symbol  string  `json:"symbol"`
	// Decimals of the underlying coin, raw amounts are in 10^-Decimals units
	Decimals uint8 `json:"decimals"`
	// 可借贷价值 / 抵押资产价值
	OpenLtvBps uint64 `json:"open_ltv_bps"`
	// 触发清算
	LiquidationThresholdBps uint64 `json:"liquidation_threshold_bps"`
	// risk multiplier on borrowed value, 10000 == 1x
	BorrowWeightBps uint64              `json:"borrow_weight_bps"`
	DepositLimit    uint64              `json:"deposit_limit"`
	BorrowLimit     uint64              `json:"borrow_limit"`
	SpreadFeeBps    uint64              `json:"spread_fee_bps"`
	InterestRate    []InterestRatePoint `json:"interest_rate"`
}

// Validate checks bps ranges and the interest curve shape
func (c ReserveConfig) Validate() error {
	if c.AssetID == "" {
		return fmt.Errorf("%w: reserve without asset id", ErrInvalidConfiguration)
	}
	if c.OpenLtvBps > c.LiquidationThresholdBps || c.LiquidationThresholdBps > 10000 {
		return fmt.Errorf("%w: %s ltv %d / liquidation threshold %d", ErrInvalidConfiguration, c.AssetID, c.OpenLtvBps, c.LiquidationThresholdBps)
	}
	if c.BorrowWeightBps < 10000 {
		return fmt.Errorf("%w: %s borrow weight %d below 1x", ErrInvalidConfiguration, c.AssetID, c.BorrowWeightBps)
	}
	if c.SpreadFeeBps > 10000 {
		return fmt.Errorf("%w: %s spread fee %d", ErrInvalidConfiguration, c.AssetID, c.SpreadFeeBps)
	}

	if err := ValidateInterestRate(c.InterestRate); err != nil {
		return fmt.Errorf("%s: %w", c.AssetID, err)
	}

	return nil
}

// ValidateInterestRate curve must have at least two points spanning 0..100%,
// strictly increasing utilization and non-decreasing apr
func ValidateInterestRate(pts []InterestRatePoint) error {
	if len(pts) < 2 || pts[0].UtilPercent != 0 || pts[len(pts)-1].UtilPercent != 100 {
		return fmt.Errorf("%w: interest curve must span 0..100%%", ErrInvalidConfiguration)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].UtilPercent <= pts[i-1].UtilPercent || pts[i].AprBps < pts[i-1].AprBps {
			return fmt.Errorf("%w: interest curve not monotonic at point %d", ErrInvalidConfiguration, i)
		}
	}

	return nil
}

// Reserve one asset market, as read from chain and refreshed locally.
// Amounts are raw base units of the underlying coin.
type Reserve struct {
	AssetID       AssetID        `json:"asset_id"`
	Price         number.Decimal `json:"price"`
	SmoothedPrice number.Decimal `json:"smoothed_price"`
	// conservative oracle bounds over the smoothing window
	MinPrice                  number.Decimal `json:"min_price"`
	MaxPrice                  number.Decimal `json:"max_price"`
	PriceLastUpdateTimestampS uint64         `json:"price_last_update_timestamp_s"`

	AvailableAmount uint64         `json:"available_amount"`
	BorrowedAmount  number.Decimal `json:"borrowed_amount"`
	// receipt token (ctoken) supply
	DepositedShareSupply uint64         `json:"deposited_share_supply"`
	UnclaimedSpreadFees  number.Decimal `json:"unclaimed_spread_fees"`

	// monotonic accrual index, starts at 1.0
	CumulativeBorrowRate         number.Decimal `json:"cumulative_borrow_rate"`
	InterestLastUpdateTimestampS uint64         `json:"interest_last_update_timestamp_s"`

	Config ReserveConfig `json:"config"`
}

// Reserves reserves keyed by asset
type Reserves map[AssetID]Reserve

// NewReserves indexes reserves, rejecting duplicates
func NewReserves(list []Reserve) (Reserves, error) {
	reserves := make(Reserves, len(list))
	for _, r := range list {
		if _, dup := reserves[r.AssetID]; dup {
			return nil, fmt.Errorf("%w: duplicated reserve %s", ErrInvalidConfiguration, r.AssetID)
		}
		reserves[r.AssetID] = r
	}

	return reserves, nil
}

// IReserveConfigStore reserve config store interface
type IReserveConfigStore interface {
	Find(ctx context.Context, asset AssetID) (*ReserveConfig, error)
	All(ctx context.Context) (map[AssetID]ReserveConfig, error)
	Purge(ctx context.Context)
}

// IReserveService reserve service interface
type IReserveService interface {
	// Refresh accrues interest on every reserve up to now, reserves that fail are
	// left out of the result and reported in the error map
	Refresh(ctx context.Context, reserves Reserves, now uint64) (Reserves, map[AssetID]error)
	Rates(ctx context.Context, reserve Reserve) (*ReserveRates, error)
}

// ReserveRates derived utilization and interest figures
type ReserveRates struct {
	Utilization number.Decimal `json:"utilization"`
	BorrowAPR   number.Decimal `json:"borrow_apr"`
	DepositAPR  number.Decimal `json:"deposit_apr"`
	BorrowAPY   number.Decimal `json:"borrow_apy"`
	DepositAPY  number.Decimal `json:"deposit_apy"`
	CTokenRatio number.Decimal `json:"ctoken_ratio"`
	// available + borrowed - unclaimed spread fees
	TotalDeposited number.Decimal `json:"total_deposited"`
}
