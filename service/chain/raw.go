package chain

import (
	"fmt"
	"strconv"
	"strings"

	"lendrisk/core"
	"lendrisk/pkg/number"

	"github.com/spf13/cast"
)

// rawUint u64 sent as a json number or a decimal string
type rawUint uint64

func (u *rawUint) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}

	v, err := cast.ToUint64E(s)
	if err != nil {
		// cast stops at MaxInt64
		if v, err = strconv.ParseUint(s, 10, 64); err != nil {
			return fmt.Errorf("parse u64 %q: %w", s, err)
		}
	}

	*u = rawUint(v)
	return nil
}

type rawInterestRatePoint struct {
	Utilization rawUint `json:"utilization_percent"`
	AprBps      rawUint `json:"apr_bps"`
}

type rawReserveConfig struct {
	CoinType        string                 `json:"coin_type"`
	Symbol          string                 `json:"symbol"`
	Decimals        rawUint                `json:"mint_decimals"`
	OpenLtvPct      rawUint                `json:"open_ltv_pct"`
	CloseLtvPct     rawUint                `json:"close_ltv_pct"`
	BorrowWeightBps rawUint                `json:"borrow_weight_bps"`
	DepositLimit    rawUint                `json:"deposit_limit"`
	BorrowLimit     rawUint                `json:"borrow_limit"`
	SpreadFeeBps    rawUint                `json:"spread_fee_bps"`
	InterestRate    []rawInterestRatePoint `json:"interest_rate"`
}

func (r rawReserveConfig) toConfig() (core.ReserveConfig, error) {
	asset, err := core.NewAssetID(r.CoinType)
	if err != nil {
		return core.ReserveConfig{}, err
	}

	if r.Decimals > 18 {
		return core.ReserveConfig{}, fmt.Errorf("%w: %s has %d decimals", core.ErrInvalidConfiguration, asset, r.Decimals)
	}

	cfg := core.ReserveConfig{
		AssetID:                 asset,
		Symbol:                  r.Symbol,
		Decimals:                uint8(r.Decimals),
		OpenLtvBps:              uint64(r.OpenLtvPct) * 100,
		LiquidationThresholdBps: uint64(r.CloseLtvPct) * 100,
		BorrowWeightBps:         uint64(r.BorrowWeightBps),
		DepositLimit:            uint64(r.DepositLimit),
		BorrowLimit:             uint64(r.BorrowLimit),
		SpreadFeeBps:            uint64(r.SpreadFeeBps),
	}

	for _, p := range r.InterestRate {
		cfg.InterestRate = append(cfg.InterestRate, core.InterestRatePoint{
			UtilPercent: uint64(p.Utilization),
			AprBps:      uint64(p.AprBps),
		})
	}

	return cfg, cfg.Validate()
}

type rawReserve struct {
	Config                       rawReserveConfig `json:"config"`
	Price                        number.Decimal   `json:"price"`
	SmoothedPrice                number.Decimal   `json:"smoothed_price"`
	PriceLastUpdateTimestampS    rawUint          `json:"price_last_update_timestamp_s"`
	AvailableAmount              rawUint          `json:"available_amount"`
	BorrowedAmount               number.Decimal   `json:"borrowed_amount"`
	CTokenSupply                 rawUint          `json:"ctoken_supply"`
	UnclaimedSpreadFees          number.Decimal   `json:"unclaimed_spread_fees"`
	CumulativeBorrowRate         number.Decimal   `json:"cumulative_borrow_rate"`
	InterestLastUpdateTimestampS rawUint          `json:"interest_last_update_timestamp_s"`
}

func (r rawReserve) toReserve() (core.Reserve, error) {
	cfg, err := r.Config.toConfig()
	if err != nil {
		return core.Reserve{}, err
	}

	smoothed := r.SmoothedPrice
	if smoothed.IsZero() {
		smoothed = r.Price
	}

	quote := core.PriceQuote{Price: r.Price, SmoothedPrice: smoothed}
	lo, hi := quote.Bounds()

	return core.Reserve{
		AssetID:                      cfg.AssetID,
		Price:                        r.Price,
		SmoothedPrice:                smoothed,
		MinPrice:                     lo,
		MaxPrice:                     hi,
		PriceLastUpdateTimestampS:    uint64(r.PriceLastUpdateTimestampS),
		AvailableAmount:              uint64(r.AvailableAmount),
		BorrowedAmount:               r.BorrowedAmount,
		DepositedShareSupply:         uint64(r.CTokenSupply),
		UnclaimedSpreadFees:          r.UnclaimedSpreadFees,
		CumulativeBorrowRate:         r.CumulativeBorrowRate,
		InterestLastUpdateTimestampS: uint64(r.InterestLastUpdateTimestampS),
		Config:                       cfg,
	}, nil
}

type rawDeposit struct {
	CoinType              string  `json:"coin_type"`
	DepositedCTokenAmount rawUint `json:"deposited_ctoken_amount"`
	RewardShare           rawUint `json:"reward_share"`
}

type rawBorrow struct {
	CoinType                     string         `json:"coin_type"`
	BorrowedAmount               number.Decimal `json:"borrowed_amount"`
	CumulativeBorrowRateSnapshot number.Decimal `json:"cumulative_borrow_rate"`
	RewardShare                  rawUint        `json:"reward_share"`
}

type rawUserReward struct {
	CampaignID             string         `json:"campaign_id"`
	Share                  rawUint        `json:"share"`
	RewardPerShareSnapshot number.Decimal `json:"reward_per_share_snapshot"`
	EarnedRewards          number.Decimal `json:"earned_rewards"`
	ClaimedAmount          number.Decimal `json:"claimed_amount"`
}

type rawObligation struct {
	ID       string          `json:"id"`
	Owner    string          `json:"owner"`
	Deposits []rawDeposit    `json:"deposits"`
	Borrows  []rawBorrow     `json:"borrows"`
	Rewards  []rawUserReward `json:"user_rewards"`
}

func (o rawObligation) toObligation() core.Obligation {
	ob := core.Obligation{
		ID:       o.ID,
		Owner:    o.Owner,
		Deposits: make([]core.Deposit, 0, len(o.Deposits)),
		Borrows:  make([]core.Borrow, 0, len(o.Borrows)),
		Rewards:  make([]core.UserRewardSnapshot, 0, len(o.Rewards)),
	}

	for _, d := range o.Deposits {
		ob.Deposits = append(ob.Deposits, core.Deposit{
			AssetID:         core.AssetID(d.CoinType),
			DepositedAmount: uint64(d.DepositedCTokenAmount),
			RewardShare:     uint64(d.RewardShare),
		})
	}

	for _, b := range o.Borrows {
		ob.Borrows = append(ob.Borrows, core.Borrow{
			AssetID:                      core.AssetID(b.CoinType),
			BorrowedAmount:               b.BorrowedAmount,
			CumulativeBorrowRateSnapshot: b.CumulativeBorrowRateSnapshot,
			RewardShare:                  uint64(b.RewardShare),
		})
	}

	for _, r := range o.Rewards {
		ob.Rewards = append(ob.Rewards, core.UserRewardSnapshot{
			CampaignID:             r.CampaignID,
			Share:                  uint64(r.Share),
			RewardPerShareSnapshot: r.RewardPerShareSnapshot,
			EarnedRewards:          r.EarnedRewards,
			ClaimedAmount:          r.ClaimedAmount,
		})
	}

	return ob
}

type rawCampaign struct {
	ID                       string         `json:"id"`
	CoinType                 string         `json:"coin_type"`
	Side                     string         `json:"side"`
	RewardCoinType           string         `json:"reward_coin_type"`
	StartTimeS               rawUint        `json:"start_time_s"`
	EndTimeS                 rawUint        `json:"end_time_s"`
	TotalRewards             number.Decimal `json:"total_rewards"`
	CumulativeRewardPerShare number.Decimal `json:"cumulative_rewards_per_share"`
	LastUpdateTimeS          rawUint        `json:"last_update_time_s"`
	TotalShares              rawUint        `json:"total_shares"`
	AllocatedRewards         number.Decimal `json:"allocated_rewards"`
	CarriedRewards           number.Decimal `json:"carried_rewards"`
}

func (c rawCampaign) toCampaign() core.RewardCampaign {
	return core.RewardCampaign{
		ID:                       c.ID,
		ReserveAssetID:           core.AssetID(c.CoinType),
		Side:                     core.Side(strings.ToLower(c.Side)),
		RewardAsset:              core.AssetID(c.RewardCoinType),
		StartTimeS:               uint64(c.StartTimeS),
		EndTimeS:                 uint64(c.EndTimeS),
		TotalAllocated:           c.TotalRewards,
		CumulativeRewardPerShare: c.CumulativeRewardPerShare,
		LastUpdateS:              uint64(c.LastUpdateTimeS),
		TotalShares:              uint64(c.TotalShares),
		AllocatedRewards:         c.AllocatedRewards,
		CarriedRewards:           c.CarriedRewards,
	}
}

type rawRateLimiter struct {
	MaxOutflow      rawUint `json:"max_outflow"`
	WindowDurationS rawUint `json:"window_duration_s"`
}

type rawMarket struct {
	ID          string          `json:"id"`
	Reserves    []rawReserve    `json:"reserves"`
	Obligations []rawObligation `json:"obligations"`
	Campaigns   []rawCampaign   `json:"reward_campaigns"`
	RateLimiter *rawRateLimiter `json:"rate_limiter"`
}

func (m rawMarket) toState() (*core.MarketState, error) {
	state := &core.MarketState{
		MarketID:    m.ID,
		Reserves:    make([]core.Reserve, 0, len(m.Reserves)),
		Obligations: make([]core.Obligation, 0, len(m.Obligations)),
		Campaigns:   make([]core.RewardCampaign, 0, len(m.Campaigns)),
	}

	for _, r := range m.Reserves {
		reserve, err := r.toReserve()
		if err != nil {
			return nil, fmt.Errorf("market %s reserve %s: %w", m.ID, r.Config.CoinType, err)
		}
		state.Reserves = append(state.Reserves, reserve)
	}

	for _, o := range m.Obligations {
		state.Obligations = append(state.Obligations, o.toObligation())
	}

	for _, c := range m.Campaigns {
		state.Campaigns = append(state.Campaigns, c.toCampaign())
	}

	if m.RateLimiter != nil {
		state.RateLimiter = &core.RateLimiterConfig{
			MaxOutflow:      uint64(m.RateLimiter.MaxOutflow),
			WindowDurationS: uint64(m.RateLimiter.WindowDurationS),
		}
	}

	return state, nil
}
