package lending

import (
	"errors"
	"fmt"

	"lendrisk/core"
	"lendrisk/pkg/bisection"
	"lendrisk/pkg/number"
)

// Query inputs shared by the max action solvers
type Query struct {
	Obligation core.Obligation
	Reserves   core.Reserves
	Asset      core.AssetID
	Now        uint64
	Bound      core.StalenessBound
	Solver     bisection.Config
}

// simulate returns the obligation after acting on amount base units
type simulate func(ob core.Obligation, r core.Reserve, amount uint64) (core.Obligation, error)

// MaxBorrow largest extra borrow of q.Asset, in base units, that keeps the
// conservative utilization at or below 100%.
//
// The search is bounded by the reserve's available liquidity and by what is left
// under its borrow limit.
func MaxBorrow(q Query) (uint64, error) {
	r, err := lookup(q.Reserves, q.Asset, q.Now, q.Bound)
	if err != nil {
		return 0, err
	}

	borrowed, err := r.BorrowedAmount.CeilUint64()
	if err != nil {
		return 0, err
	}

	upper := r.AvailableAmount
	if room := saturatingSub(r.Config.BorrowLimit, borrowed); room < upper {
		upper = room
	}

	return solve(q, r, upper, withBorrow)
}

// MaxWithdraw largest withdrawal of q.Asset's underlying, in base units, that keeps
// the conservative utilization at or below 100%
func MaxWithdraw(q Query) (uint64, error) {
	r, err := lookup(q.Reserves, q.Asset, q.Now, q.Bound)
	if err != nil {
		return 0, err
	}

	var ctokens uint64
	for _, d := range q.Obligation.Deposits {
		if d.AssetID == q.Asset {
			ctokens += d.DepositedAmount
		}
	}

	underlying, err := DepositedUnderlying(r, ctokens)
	if err != nil {
		return 0, err
	}

	// withdrawals are paid out of available liquidity, which always fits a u64
	upper := r.AvailableAmount
	if held, err := underlying.FloorUint64(); err == nil && held < upper {
		upper = held
	}

	return solve(q, r, upper, withWithdraw)
}

func solve(q Query, r core.Reserve, upper uint64, sim simulate) (uint64, error) {
	scale, err := number.Pow10(r.Config.Decimals)
	if err != nil {
		return 0, err
	}

	safe := func(amount uint64) (bool, error) {
		next, err := sim(q.Obligation, r, amount)
		if err != nil {
			return false, err
		}

		s, err := Valuate(next, q.Reserves, q.Now, q.Bound)
		if err != nil {
			return false, err
		}

		return !s.WeightedConservativeBorrowUtilizationPercent.Exceeds(100), nil
	}

	// the solver works in whole tokens so the tolerance keeps its meaning for any decimals
	toBase := func(x number.Decimal) (uint64, error) {
		v, err := x.Mul(scale)
		if err != nil {
			return 0, err
		}
		return v.FloorUint64()
	}

	right, err := number.FromUint64(upper).Div(scale)
	if err != nil {
		return 0, err
	}

	res, err := q.Solver.Search(number.Zero(), right, func(x number.Decimal) (bool, error) {
		amount, err := toBase(x)
		if err != nil {
			return false, err
		}
		return safe(amount)
	})
	if err != nil && !errors.Is(err, bisection.ErrDidNotConverge) {
		return 0, err
	}

	amount, cerr := toBase(res.Value)
	if cerr != nil {
		return 0, cerr
	}

	ok, verr := safe(amount)
	if verr != nil {
		return 0, verr
	}
	if !ok {
		return 0, err
	}

	return amount, err
}

func withBorrow(ob core.Obligation, r core.Reserve, amount uint64) (core.Obligation, error) {
	next := cloneObligation(ob)
	cbr := cumulativeBorrowRate(r)

	for i, b := range next.Borrows {
		if b.AssetID != r.AssetID {
			continue
		}

		debt, err := CompoundedDebt(r, b)
		if err != nil {
			return next, err
		}
		if debt, err = debt.Add(number.FromUint64(amount)); err != nil {
			return next, err
		}

		next.Borrows[i].BorrowedAmount = debt
		next.Borrows[i].CumulativeBorrowRateSnapshot = cbr
		return next, nil
	}

	next.Borrows = append(next.Borrows, core.Borrow{
		AssetID:                      r.AssetID,
		BorrowedAmount:               number.FromUint64(amount),
		CumulativeBorrowRateSnapshot: cbr,
	})

	return next, nil
}

func withWithdraw(ob core.Obligation, r core.Reserve, amount uint64) (core.Obligation, error) {
	next := cloneObligation(ob)

	ratio, err := CTokenRatio(r)
	if err != nil {
		return next, err
	}
	if ratio.IsZero() {
		return next, fmt.Errorf("%w: reserve %s has a zero ctoken ratio", core.ErrInvalidConfiguration, r.AssetID)
	}

	burn, err := number.FromUint64(amount).DivCeil(ratio)
	if err != nil {
		return next, err
	}
	remaining, err := burn.CeilUint64()
	if err != nil {
		return next, err
	}

	for i, d := range next.Deposits {
		if d.AssetID != r.AssetID || remaining == 0 {
			continue
		}

		taken := d.DepositedAmount
		if remaining < taken {
			taken = remaining
		}
		next.Deposits[i].DepositedAmount -= taken
		remaining -= taken
	}

	return next, nil
}

func cloneObligation(ob core.Obligation) core.Obligation {
	next := ob
	next.Deposits = append([]core.Deposit(nil), ob.Deposits...)
	next.Borrows = append([]core.Borrow(nil), ob.Borrows...)
	next.Rewards = append([]core.UserRewardSnapshot(nil), ob.Rewards...)
	return next
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}

	return a - b
}
