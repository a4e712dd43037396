package lending

import (
	"fmt"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

// Utilization utilization_rate = borrowed / (borrowed + available), zero for an empty reserve
func Utilization(r core.Reserve) (number.Decimal, error) {
	total, err := r.BorrowedAmount.Add(number.FromUint64(r.AvailableAmount))
	if err != nil {
		return number.Zero(), err
	}

	if total.IsZero() {
		return number.Zero(), nil
	}

	return r.BorrowedAmount.Div(total)
}

// TotalDeposited available + borrowed - unclaimed spread fees
func TotalDeposited(r core.Reserve) (number.Decimal, error) {
	total, err := r.BorrowedAmount.Add(number.FromUint64(r.AvailableAmount))
	if err != nil {
		return number.Zero(), err
	}

	return total.SaturatingSub(r.UnclaimedSpreadFees), nil
}

// CTokenRatio underlying per receipt token, 1 when nothing is deposited
func CTokenRatio(r core.Reserve) (number.Decimal, error) {
	if r.DepositedShareSupply == 0 {
		return number.One(), nil
	}

	total, err := TotalDeposited(r)
	if err != nil {
		return number.Zero(), err
	}

	return total.Div(number.FromUint64(r.DepositedShareSupply))
}

// DepositedUnderlying underlying base units behind ctokens, rounded down
func DepositedUnderlying(r core.Reserve, ctokens uint64) (number.Decimal, error) {
	ratio, err := CTokenRatio(r)
	if err != nil {
		return number.Zero(), err
	}

	return number.FromUint64(ctokens).Mul(ratio)
}

// CompoundedDebt borrowed * cbr / snapshot, rounded up
func CompoundedDebt(r core.Reserve, b core.Borrow) (number.Decimal, error) {
	cbr := cumulativeBorrowRate(r)
	snapshot := b.CumulativeBorrowRateSnapshot
	if snapshot.IsZero() || snapshot.Eq(cbr) {
		return b.BorrowedAmount, nil
	}

	debt, err := b.BorrowedAmount.MulCeil(cbr)
	if err != nil {
		return number.Zero(), err
	}

	return debt.DivCeil(snapshot)
}

func cumulativeBorrowRate(r core.Reserve) number.Decimal {
	if r.CumulativeBorrowRate.IsZero() {
		return number.One()
	}

	return r.CumulativeBorrowRate
}

// Refresh accrues interest from InterestLastUpdateTimestampS to now.
//
// cbr' = cbr * (1 + apr * elapsed / SecondsPerYear), the borrowed amount grows by the
// same factor and the spread fee share of the new debt goes to UnclaimedSpreadFees.
// A reserve whose timestamp is not behind now is returned unchanged.
func Refresh(r core.Reserve, now uint64) (core.Reserve, error) {
	if now <= r.InterestLastUpdateTimestampS {
		return r, nil
	}

	model, err := NewInterestRateModel(r.Config.InterestRate)
	if err != nil {
		return r, fmt.Errorf("reserve %s: %w", r.AssetID, err)
	}

	next, err := accrue(r, model, now-r.InterestLastUpdateTimestampS)
	if err != nil {
		return r, fmt.Errorf("accrue reserve %s: %w", r.AssetID, err)
	}

	next.InterestLastUpdateTimestampS = now
	return next, nil
}

func accrue(r core.Reserve, model *InterestRateModel, elapsed uint64) (core.Reserve, error) {
	util, err := Utilization(r)
	if err != nil {
		return r, err
	}

	apr, err := model.BorrowAPR(util)
	if err != nil {
		return r, err
	}

	growth, err := apr.Mul(number.FromUint64(elapsed))
	if err != nil {
		return r, err
	}
	if growth, err = growth.Div(number.FromUint64(SecondsPerYear)); err != nil {
		return r, err
	}

	factor, err := number.One().Add(growth)
	if err != nil {
		return r, err
	}

	cbr := cumulativeBorrowRate(r)
	newCbr, err := cbr.Mul(factor)
	if err != nil {
		return r, err
	}

	compounded, err := r.BorrowedAmount.Mul(newCbr)
	if err != nil {
		return r, err
	}
	if compounded, err = compounded.Div(cbr); err != nil {
		return r, err
	}
	netNewDebt := compounded.SaturatingSub(r.BorrowedAmount)

	fees, err := netNewDebt.Mul(number.FromBps(r.Config.SpreadFeeBps))
	if err != nil {
		return r, err
	}

	if r.BorrowedAmount, err = r.BorrowedAmount.Add(netNewDebt); err != nil {
		return r, err
	}
	if r.UnclaimedSpreadFees, err = r.UnclaimedSpreadFees.Add(fees); err != nil {
		return r, err
	}
	r.CumulativeBorrowRate = newCbr

	return r, nil
}

// Rates derived utilization, apr, apy and exchange figures of a reserve
func Rates(r core.Reserve) (*core.ReserveRates, error) {
	model, err := NewInterestRateModel(r.Config.InterestRate)
	if err != nil {
		return nil, fmt.Errorf("reserve %s: %w", r.AssetID, err)
	}

	rates := &core.ReserveRates{}
	if rates.Utilization, err = Utilization(r); err != nil {
		return nil, err
	}
	if rates.BorrowAPR, err = model.BorrowAPR(rates.Utilization); err != nil {
		return nil, err
	}
	if rates.DepositAPR, err = DepositAPR(rates.BorrowAPR, rates.Utilization, r.Config.SpreadFeeBps); err != nil {
		return nil, err
	}
	if rates.BorrowAPY, err = APY(rates.BorrowAPR); err != nil {
		return nil, err
	}
	if rates.DepositAPY, err = APY(rates.DepositAPR); err != nil {
		return nil, err
	}
	if rates.CTokenRatio, err = CTokenRatio(r); err != nil {
		return nil, err
	}
	if rates.TotalDeposited, err = TotalDeposited(r); err != nil {
		return nil, err
	}

	return rates, nil
}
