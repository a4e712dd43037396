package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendrisk/core"
	"lendrisk/pkg/number"
	"lendrisk/service/obligation"
	"lendrisk/service/ratelimit"
	"lendrisk/store/snapshot"
)

type limiterStore struct {
	mu      sync.Mutex
	limiter core.RateLimiter
}

func (s *limiterStore) Find(ctx context.Context, marketID string) (*core.RateLimiter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.limiter
	l.MarketID = marketID
	return &l, nil
}

func (s *limiterStore) Save(ctx context.Context, limiter *core.RateLimiter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limiter.ID == 0 {
		limiter.ID = 1
	} else {
		limiter.Version++
	}
	s.limiter = *limiter
	return nil
}

func newReserve(asset core.AssetID, available uint64) core.Reserve {
	return core.Reserve{
		AssetID:                      asset,
		Price:                        number.One(),
		SmoothedPrice:                number.One(),
		MinPrice:                     number.One(),
		MaxPrice:                     number.One(),
		PriceLastUpdateTimestampS:    1000,
		AvailableAmount:              available,
		DepositedShareSupply:         available,
		CumulativeBorrowRate:         number.One(),
		InterestLastUpdateTimestampS: 1000,
		Config: core.ReserveConfig{
			AssetID:                 asset,
			Symbol:                  asset.String(),
			OpenLtvBps:              8000,
			LiquidationThresholdBps: 8500,
			BorrowWeightBps:         10000,
			DepositLimit:            1000000,
			BorrowLimit:             1000000,
			InterestRate: []core.InterestRatePoint{
				{UtilPercent: 0, AprBps: 0},
				{UtilPercent: 100, AprBps: 10000},
			},
		},
	}
}

func newModel() *core.ReadModel {
	ob := core.Obligation{
		ID:       "ob-1",
		Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}},
	}

	return &core.ReadModel{
		MarketID:   "main",
		Tick:       1,
		TimestampS: 1000,
		Reserves: map[core.AssetID]core.ReserveReport{
			"USDC": {Reserve: newReserve("USDC", 1000)},
			"SUI":  {Reserve: newReserve("SUI", 100)},
		},
		Obligations: map[string]core.ObligationReport{
			"ob-1": {
				Obligation: ob,
				Summary:    &core.ObligationSummary{ObligationID: "ob-1", MinPriceBorrowLimitUsd: number.FromUint64(80)},
			},
		},
		RateLimiter: core.RateLimiterReport{
			Config:    core.RateLimiterConfig{MaxOutflow: 1000, WindowDurationS: 1000000000},
			Remaining: 1000,
		},
	}
}

type response struct {
	Data json.RawMessage `json:"data"`
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, response) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}

	return rec.Code, resp
}

func newHandler(t *testing.T) (http.Handler, core.ISnapshotStore) {
	srv, snapshots := newServer(t, obligation.Config{})
	return srv.Handler(), snapshots
}

func newServer(t *testing.T, cfg obligation.Config) (Server, core.ISnapshotStore) {
	snapshots := snapshot.New()
	limiter, err := ratelimit.New("main", core.RateLimiterConfig{MaxOutflow: 1000, WindowDurationS: 1000000000}, &limiterStore{})
	require.NoError(t, err)

	return New("test", snapshots, obligation.New(cfg), limiter), snapshots
}

func TestReadModelEndpoints(t *testing.T) {
	h, snapshots := newHandler(t)

	code, resp := do(t, h, http.MethodGet, "/api/reserves", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.EqualValues(t, core.ErrCodeNoSnapshot, resp.Code)

	require.NoError(t, snapshots.Publish(context.Background(), newModel()))

	code, resp = do(t, h, http.MethodGet, "/api/reserves", "")
	require.Equal(t, http.StatusOK, code)
	var reserves []struct {
		AssetID core.AssetID `json:"asset_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &reserves))
	require.Len(t, reserves, 2)
	assert.Equal(t, core.AssetID("SUI"), reserves[0].AssetID)

	code, resp = do(t, h, http.MethodGet, "/api/reserves/DEEP", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.EqualValues(t, core.ErrCodeReserveNotFound, resp.Code)

	code, resp = do(t, h, http.MethodGet, "/api/obligations/ob-1", "")
	require.Equal(t, http.StatusOK, code)
	var ob struct {
		Summary struct {
			MinPriceBorrowLimitUsd string `json:"min_price_borrow_limit_usd"`
		} `json:"summary"`
		TimestampS uint64 `json:"timestamp_s"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ob))
	assert.Equal(t, "80", ob.Summary.MinPriceBorrowLimitUsd)
	assert.EqualValues(t, 1000, ob.TimestampS)

	code, resp = do(t, h, http.MethodGet, "/api/obligations/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.EqualValues(t, core.ErrCodeObligationNotFound, resp.Code)

	code, _ = do(t, h, http.MethodGet, "/hc", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestMaxActionEndpoints(t *testing.T) {
	h, snapshots := newHandler(t)
	require.NoError(t, snapshots.Publish(context.Background(), newModel()))

	var action struct {
		Amount    uint64 `json:"amount"`
		Converged bool   `json:"converged"`
	}

	code, resp := do(t, h, http.MethodGet, "/api/obligations/ob-1/max-borrow?asset=USDC", "")
	require.Equal(t, http.StatusOK, code, resp.Msg)
	require.NoError(t, json.Unmarshal(resp.Data, &action))
	assert.EqualValues(t, 80, action.Amount)
	assert.True(t, action.Converged)

	code, resp = do(t, h, http.MethodGet, "/api/obligations/ob-1/max-withdraw?asset=SUI", "")
	require.Equal(t, http.StatusOK, code, resp.Msg)
	require.NoError(t, json.Unmarshal(resp.Data, &action))
	assert.EqualValues(t, 100, action.Amount)

	code, _ = do(t, h, http.MethodGet, "/api/obligations/ob-1/max-borrow", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, h, http.MethodGet, "/api/obligations/ob-1/max-borrow?asset=DEEP", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.EqualValues(t, core.ErrCodeReserveNotFound, resp.Code)
}

func TestMaxActionsUseWallClock(t *testing.T) {
	srv, snapshots := newServer(t, obligation.Config{Bound: core.StalenessBound{MaxPriceAgeS: 60, MaxInterestAgeS: 60}})
	require.NoError(t, snapshots.Publish(context.Background(), newModel()))

	// prices and interest were updated at 1000
	fresh := srv.WithClock(func() time.Time { return time.Unix(1030, 0) }).Handler()
	code, resp := do(t, fresh, http.MethodGet, "/api/obligations/ob-1/max-borrow?asset=USDC", "")
	require.Equal(t, http.StatusOK, code, resp.Msg)

	// the poller stopped and the snapshot kept being served
	stale := srv.WithClock(func() time.Time { return time.Unix(1000+3600, 0) }).Handler()
	for _, path := range []string{
		"/api/obligations/ob-1/max-borrow?asset=USDC",
		"/api/obligations/ob-1/max-withdraw?asset=SUI",
	} {
		code, resp = do(t, stale, http.MethodGet, path, "")
		assert.Equal(t, http.StatusConflict, code, path)
		assert.EqualValues(t, core.ErrCodeStaleData, resp.Code, path)
	}

	// the wall clock is far past 1000 as well
	code, resp = do(t, srv.Handler(), http.MethodGet, "/api/obligations/ob-1/max-borrow?asset=USDC", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.EqualValues(t, core.ErrCodeStaleData, resp.Code)
}

func TestObligationViewIsRounded(t *testing.T) {
	h, snapshots := newHandler(t)

	model := newModel()
	report := model.Obligations["ob-1"]
	report.Summary.DepositedAmountUsd = number.MustFromString("99.995")
	report.Claimable = core.ClaimableRewards{"DEEP": number.MustFromString("12.5")}
	model.Obligations["ob-1"] = report
	require.NoError(t, snapshots.Publish(context.Background(), model))

	code, resp := do(t, h, http.MethodGet, "/api/obligations/ob-1", "")
	require.Equal(t, http.StatusOK, code)

	var ob struct {
		Summary struct {
			DepositedAmountUsd string `json:"deposited_amount_usd"`
		} `json:"summary"`
		Claimable map[string]string `json:"claimable"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &ob))
	assert.Equal(t, "100", ob.Summary.DepositedAmountUsd)
	assert.Equal(t, "13", ob.Claimable["DEEP"])
}

func TestOutflowEndpoints(t *testing.T) {
	h, _ := newHandler(t)

	code, resp := do(t, h, http.MethodPost, "/api/rate-limiter/outflows", `{"amount": 600}`)
	require.Equal(t, http.StatusOK, code, resp.Msg)

	var decision struct {
		Allowed   bool   `json:"allowed"`
		Remaining uint64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &decision))
	assert.True(t, decision.Allowed)
	assert.EqualValues(t, 400, decision.Remaining)

	code, resp = do(t, h, http.MethodPost, "/api/rate-limiter/outflows", `{"amount": "500"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.EqualValues(t, core.ErrCodeRateLimited, resp.Code)

	code, _ = do(t, h, http.MethodPost, "/api/rate-limiter/outflows", `{"amount": "-1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, h, http.MethodGet, "/api/rate-limiter", "")
	require.Equal(t, http.StatusOK, code)
	var limiter struct {
		MaxOutflow uint64 `json:"max_outflow"`
		Remaining  uint64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &limiter))
	assert.EqualValues(t, 1000, limiter.MaxOutflow)
	assert.EqualValues(t, 400, limiter.Remaining)
}
