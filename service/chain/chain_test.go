package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

const marketJSON = `{
  "id": "main",
  "reserves": [{
    "config": {
      "coin_type": "0x2::sui::SUI",
      "symbol": "SUI",
      "mint_decimals": 9,
      "open_ltv_pct": 70,
      "close_ltv_pct": "80",
      "borrow_weight_bps": "10000",
      "deposit_limit": "18446744073709551615",
      "borrow_limit": 1000000,
      "spread_fee_bps": 2000,
      "interest_rate": [
        {"utilization_percent": 0, "apr_bps": 0},
        {"utilization_percent": 100, "apr_bps": "10000"}
      ]
    },
    "price": "1.5",
    "smoothed_price": "1.4",
    "price_last_update_timestamp_s": "1700000000",
    "available_amount": 1000,
    "borrowed_amount": "250.5",
    "ctoken_supply": 1200,
    "unclaimed_spread_fees": "0",
    "cumulative_borrow_rate": "1.01",
    "interest_last_update_timestamp_s": 1700000000
  }],
  "obligations": [{
    "id": "ob-1",
    "owner": "0xabc",
    "deposits": [{"coin_type": "0x2::sui::SUI", "deposited_ctoken_amount": "100", "reward_share": 100}],
    "borrows": [{"coin_type": "0x2::sui::SUI", "borrowed_amount": "10", "cumulative_borrow_rate": "1", "reward_share": 10}],
    "user_rewards": [{"campaign_id": "c1", "share": 100, "reward_per_share_snapshot": "0.5", "earned_rewards": "3", "claimed_amount": "0"}]
  }],
  "reward_campaigns": [{
    "id": "c1",
    "coin_type": "0x2::sui::SUI",
    "side": "Deposit",
    "reward_coin_type": "0xdeep::deep::DEEP",
    "start_time_s": 1600000000,
    "end_time_s": "1800000000",
    "total_rewards": "100000",
    "cumulative_rewards_per_share": "0.5",
    "last_update_time_s": 1700000000,
    "total_shares": 100,
    "allocated_rewards": "50",
    "carried_rewards": "0"
  }],
  "rate_limiter": {"max_outflow": "18446744073709551615", "window_duration_s": 3600}
}`

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/markets/main", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(marketJSON))
	})
	mux.HandleFunc("/api/markets/main/reserve-configs", func(w http.ResponseWriter, r *http.Request) {
		var market struct {
			Reserves []struct {
				Config json.RawMessage `json:"config"`
			} `json:"reserves"`
		}
		require.NoError(t, json.Unmarshal([]byte(marketJSON), &market))

		configs := []json.RawMessage{market.Reserves[0].Config}
		_ = json.NewEncoder(w).Encode(configs)
	})
	mux.HandleFunc("/api/markets/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reserves": [{"config": {"coin_type": "X", "interest_rate": []}}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestReadMarket(t *testing.T) {
	srv := newServer(t)
	r := New(Config{EndPoint: srv.URL, MarketID: "main"})

	state, err := r.ReadMarket(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "main", state.MarketID)
	require.Len(t, state.Reserves, 1)

	sui := state.Reserves[0]
	assert.Equal(t, core.AssetID("0x2::sui::SUI"), sui.AssetID)
	assert.EqualValues(t, 9, sui.Config.Decimals)
	assert.EqualValues(t, 7000, sui.Config.OpenLtvBps)
	assert.EqualValues(t, 8000, sui.Config.LiquidationThresholdBps)
	assert.EqualValues(t, uint64(18446744073709551615), sui.Config.DepositLimit)
	assert.Equal(t, "1.4", sui.MinPrice.String())
	assert.Equal(t, "1.5", sui.MaxPrice.String())
	assert.EqualValues(t, 1700000000, sui.PriceLastUpdateTimestampS)
	assert.Equal(t, "250.5", sui.BorrowedAmount.String())
	assert.EqualValues(t, 1200, sui.DepositedShareSupply)

	require.Len(t, state.Obligations, 1)
	ob := state.Obligations[0]
	assert.EqualValues(t, 100, ob.Deposits[0].DepositedAmount)
	assert.True(t, ob.Borrows[0].CumulativeBorrowRateSnapshot.Eq(number.One()))
	assert.Equal(t, "3", ob.Rewards[0].EarnedRewards.String())

	require.Len(t, state.Campaigns, 1)
	assert.Equal(t, core.SideDeposit, state.Campaigns[0].Side)
	assert.EqualValues(t, 1800000000, state.Campaigns[0].EndTimeS)

	require.NotNil(t, state.RateLimiter)
	assert.True(t, state.RateLimiter.Unlimited())
}

func TestReadReserveConfigs(t *testing.T) {
	srv := newServer(t)
	r := New(Config{EndPoint: srv.URL, MarketID: "main"})

	configs, err := r.ReadReserveConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "SUI", configs[0].Symbol)
	assert.Len(t, configs[0].InterestRate, 2)
}

func TestReadMarketInvalidReserve(t *testing.T) {
	srv := newServer(t)
	r := New(Config{EndPoint: srv.URL, MarketID: "broken"})

	_, err := r.ReadMarket(context.Background())
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration))
}

func TestRawUint(t *testing.T) {
	for input, want := range map[string]uint64{
		`12`:                     12,
		`"34"`:                   34,
		`"18446744073709551615"`: 18446744073709551615,
		`null`:                   0,
	} {
		var u rawUint
		require.NoError(t, json.Unmarshal([]byte(input), &u), input)
		assert.Equal(t, want, uint64(u), input)
	}

	var u rawUint
	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &u))
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &u))
}
