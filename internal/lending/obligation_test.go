package lending

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendrisk/core"
	"lendrisk/pkg/bisection"
	"lendrisk/pkg/number"
)

const now uint64 = 1000

func testReserves(t *testing.T) core.Reserves {
	sui := newReserve("SUI", 100, 0)
	usdc := newReserve("USDC", 1000, 0)

	reserves, err := core.NewReserves([]core.Reserve{sui, usdc})
	require.NoError(t, err)
	return reserves
}

func borrowUSDC(amount uint64) core.Borrow {
	return core.Borrow{
		AssetID:                      "USDC",
		BorrowedAmount:               number.FromUint64(amount),
		CumulativeBorrowRateSnapshot: number.One(),
	}
}

func TestValuateBorrowLimitAtFullUtilization(t *testing.T) {
	ob := core.Obligation{
		ID:       "ob-1",
		Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}},
		Borrows:  []core.Borrow{borrowUSDC(80)},
	}

	s, err := Valuate(ob, testReserves(t), now, core.StalenessBound{})
	require.NoError(t, err)

	assert.Equal(t, "100", s.DepositedAmountUsd.String())
	assert.Equal(t, "80", s.MinPriceBorrowLimitUsd.String())
	assert.Equal(t, "85", s.MaxPriceBorrowLimitUsd.String())
	assert.Equal(t, "80", s.BorrowedAmountUsd.String())
	assert.Equal(t, "80", s.WeightedBorrowedAmountUsd.String())
	assert.Equal(t, "100", s.WeightedConservativeBorrowUtilizationPercent.Percent.String())
	assert.False(t, s.WeightedConservativeBorrowUtilizationPercent.Exceeds(100))
	assert.False(t, s.Unhealthy)
	assert.Len(t, s.Deposits, 1)
	assert.Len(t, s.Borrows, 1)
}

func TestValuateUsesConservativePrices(t *testing.T) {
	reserves := testReserves(t)

	sui := reserves["SUI"]
	sui.Price = number.FromUint64(2)
	sui.MinPrice = number.MustFromString("1.5")
	sui.MaxPrice = number.FromUint64(3)
	reserves["SUI"] = sui

	usdc := reserves["USDC"]
	usdc.MinPrice = number.MustFromString("0.5")
	usdc.MaxPrice = number.FromUint64(2)
	usdc.Config.BorrowWeightBps = 15000
	reserves["USDC"] = usdc

	ob := core.Obligation{
		Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 10}},
		Borrows:  []core.Borrow{borrowUSDC(4)},
	}

	s, err := Valuate(ob, reserves, now, core.StalenessBound{})
	require.NoError(t, err)

	assert.Equal(t, "20", s.DepositedAmountUsd.String())
	// 10 * 1.5 * 0.8
	assert.Equal(t, "12", s.MinPriceBorrowLimitUsd.String())
	assert.Equal(t, "4", s.BorrowedAmountUsd.String())
	// 4 * 2 * 1.5
	assert.Equal(t, "12", s.WeightedBorrowedAmountUsd.String())
	assert.Equal(t, "100", s.WeightedConservativeBorrowUtilizationPercent.Percent.String())
}

func TestValuateDecimalsAndInterest(t *testing.T) {
	reserves := testReserves(t)

	usdc := reserves["USDC"]
	usdc.Config.Decimals = 6
	usdc.AvailableAmount = 1_000_000_000
	usdc.DepositedShareSupply = 1_000_000_000
	usdc.CumulativeBorrowRate = number.MustFromString("1.25")
	reserves["USDC"] = usdc

	ob := core.Obligation{
		Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}},
		// 40 USDC borrowed at index 1.0 is 50 USDC of debt at 1.25
		Borrows: []core.Borrow{borrowUSDC(40_000_000)},
	}

	s, err := Valuate(ob, reserves, now, core.StalenessBound{})
	require.NoError(t, err)

	assert.Equal(t, "50", s.WeightedBorrowedAmountUsd.String())
	assert.Equal(t, "50000000", s.Borrows[0].Amount.String())
	assert.Equal(t, "62.5", s.WeightedConservativeBorrowUtilizationPercent.Percent.String())
}

func TestValuateNoBorrowLimit(t *testing.T) {
	ob := core.Obligation{Borrows: []core.Borrow{borrowUSDC(10)}}

	s, err := Valuate(ob, testReserves(t), now, core.StalenessBound{})
	require.NoError(t, err)

	assert.True(t, s.WeightedConservativeBorrowUtilizationPercent.Unbounded)
	assert.True(t, s.Unhealthy)

	data, err := json.Marshal(s.WeightedConservativeBorrowUtilizationPercent)
	require.NoError(t, err)
	assert.Equal(t, `"N/A"`, string(data))
}

func TestValuateNoBorrows(t *testing.T) {
	ob := core.Obligation{Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}}}

	s, err := Valuate(ob, testReserves(t), now, core.StalenessBound{})
	require.NoError(t, err)

	assert.False(t, s.WeightedConservativeBorrowUtilizationPercent.Unbounded)
	assert.True(t, s.WeightedConservativeBorrowUtilizationPercent.Percent.IsZero())
}

func TestValuateStaleData(t *testing.T) {
	ob := core.Obligation{
		Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}},
		Borrows:  []core.Borrow{borrowUSDC(10)},
	}

	reserves := testReserves(t)
	bound := core.StalenessBound{MaxPriceAgeS: 60, MaxInterestAgeS: 120}

	_, err := Valuate(ob, reserves, now+60, bound)
	require.NoError(t, err)

	_, err = Valuate(ob, reserves, now+61, bound)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStaleData))

	var stale *core.StaleDataError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, "price", stale.Field)
	assert.EqualValues(t, 61, stale.AgeS)

	usdc := reserves["USDC"]
	usdc.PriceLastUpdateTimestampS = now + 100
	reserves["USDC"] = usdc
	sui := reserves["SUI"]
	sui.PriceLastUpdateTimestampS = now + 100
	sui.InterestLastUpdateTimestampS = now + 100
	reserves["SUI"] = sui

	_, err = Valuate(ob, reserves, now+121, bound)
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, core.AssetID("USDC"), stale.AssetID)
	assert.Equal(t, "interest", stale.Field)
}

func TestValuateUnknownReserve(t *testing.T) {
	ob := core.Obligation{Deposits: []core.Deposit{{AssetID: "ETH", DepositedAmount: 1}}}

	_, err := Valuate(ob, testReserves(t), now, core.StalenessBound{})
	assert.True(t, errors.Is(err, core.ErrReserveNotFound))
}

func TestMaxBorrow(t *testing.T) {
	q := Query{
		Obligation: core.Obligation{Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}}},
		Reserves:   testReserves(t),
		Asset:      "USDC",
		Now:        now,
		Solver:     bisection.DefaultConfig(),
	}

	amount, err := MaxBorrow(q)
	require.NoError(t, err)
	assert.EqualValues(t, 80, amount)

	q.Obligation.Borrows = []core.Borrow{borrowUSDC(30)}
	amount, err = MaxBorrow(q)
	require.NoError(t, err)
	assert.EqualValues(t, 50, amount)

	usdc := q.Reserves["USDC"]
	usdc.Config.BorrowLimit = 20
	q.Reserves["USDC"] = usdc
	amount, err = MaxBorrow(q)
	require.NoError(t, err)
	assert.EqualValues(t, 20, amount)
}

func TestMaxBorrowOverLimit(t *testing.T) {
	q := Query{
		Obligation: core.Obligation{
			Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}},
			Borrows:  []core.Borrow{borrowUSDC(90)},
		},
		Reserves: testReserves(t),
		Asset:    "USDC",
		Now:      now,
		Solver:   bisection.DefaultConfig(),
	}

	amount, err := MaxBorrow(q)
	require.NoError(t, err)
	assert.EqualValues(t, 0, amount)
}

func TestMaxWithdraw(t *testing.T) {
	q := Query{
		Obligation: core.Obligation{
			Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}},
			Borrows:  []core.Borrow{borrowUSDC(40)},
		},
		Reserves: testReserves(t),
		Asset:    "SUI",
		Now:      now,
		Solver:   bisection.DefaultConfig(),
	}

	amount, err := MaxWithdraw(q)
	require.NoError(t, err)
	assert.EqualValues(t, 50, amount)

	// without debt the whole deposit can leave
	q.Obligation.Borrows = nil
	amount, err = MaxWithdraw(q)
	require.NoError(t, err)
	assert.EqualValues(t, 100, amount)

	// nothing deposited
	q.Asset = "USDC"
	amount, err = MaxWithdraw(q)
	require.NoError(t, err)
	assert.EqualValues(t, 0, amount)
}

func TestMaxActionStaleData(t *testing.T) {
	q := Query{
		Obligation: core.Obligation{Deposits: []core.Deposit{{AssetID: "SUI", DepositedAmount: 100}}},
		Reserves:   testReserves(t),
		Asset:      "USDC",
		Now:        now + 3600,
		Bound:      core.StalenessBound{MaxPriceAgeS: 60},
		Solver:     bisection.DefaultConfig(),
	}

	_, err := MaxBorrow(q)
	assert.True(t, errors.Is(err, core.ErrStaleData))
}
