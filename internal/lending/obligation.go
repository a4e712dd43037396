package lending

import (
	"fmt"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

// CheckFresh rejects reserves whose price or interest timestamp is older than bound
func CheckFresh(r core.Reserve, now uint64, bound core.StalenessBound) error {
	if age := ageOf(now, r.PriceLastUpdateTimestampS); bound.MaxPriceAgeS > 0 && age > bound.MaxPriceAgeS {
		return &core.StaleDataError{AssetID: r.AssetID, Field: "price", AgeS: age, MaxAgeS: bound.MaxPriceAgeS}
	}

	if age := ageOf(now, r.InterestLastUpdateTimestampS); bound.MaxInterestAgeS > 0 && age > bound.MaxInterestAgeS {
		return &core.StaleDataError{AssetID: r.AssetID, Field: "interest", AgeS: age, MaxAgeS: bound.MaxInterestAgeS}
	}

	return nil
}

func ageOf(now, ts uint64) uint64 {
	if ts >= now {
		return 0
	}

	return now - ts
}

func lookup(reserves core.Reserves, asset core.AssetID, now uint64, bound core.StalenessBound) (core.Reserve, error) {
	r, ok := reserves[asset]
	if !ok {
		return r, fmt.Errorf("%w: %s", core.ErrReserveNotFound, asset)
	}

	return r, CheckFresh(r, now, bound)
}

// Valuate folds the obligation's positions into borrow limits and utilization.
//
// Deposits are priced at MinPrice and borrows at MaxPrice times the borrow weight, so
// every figure errs against the position holder. Positions are summed per asset
// without netting.
func Valuate(ob core.Obligation, reserves core.Reserves, now uint64, bound core.StalenessBound) (*core.ObligationSummary, error) {
	s := &core.ObligationSummary{
		ObligationID: ob.ID,
		Deposits:     make([]core.DepositValue, 0, len(ob.Deposits)),
		Borrows:      make([]core.BorrowValue, 0, len(ob.Borrows)),
	}

	for _, d := range ob.Deposits {
		r, err := lookup(reserves, d.AssetID, now, bound)
		if err != nil {
			return nil, err
		}

		v, err := valuateDeposit(s, r, d)
		if err != nil {
			return nil, fmt.Errorf("deposit %s: %w", d.AssetID, err)
		}
		s.Deposits = append(s.Deposits, *v)
	}

	for _, b := range ob.Borrows {
		r, err := lookup(reserves, b.AssetID, now, bound)
		if err != nil {
			return nil, err
		}

		v, err := valuateBorrow(s, r, b)
		if err != nil {
			return nil, fmt.Errorf("borrow %s: %w", b.AssetID, err)
		}
		s.Borrows = append(s.Borrows, *v)
	}

	var err error
	if s.WeightedConservativeBorrowUtilizationPercent, err = utilizationOf(s.WeightedBorrowedAmountUsd, s.MinPriceBorrowLimitUsd); err != nil {
		return nil, err
	}
	if s.LiquidationUtilizationPercent, err = utilizationOf(s.WeightedBorrowedAmountUsd, s.MaxPriceBorrowLimitUsd); err != nil {
		return nil, err
	}
	s.Unhealthy = s.LiquidationUtilizationPercent.Exceeds(100)

	return s, nil
}

func valuateDeposit(s *core.ObligationSummary, r core.Reserve, d core.Deposit) (*core.DepositValue, error) {
	underlying, err := DepositedUnderlying(r, d.DepositedAmount)
	if err != nil {
		return nil, err
	}

	scale, err := number.Pow10(r.Config.Decimals)
	if err != nil {
		return nil, err
	}
	human, err := underlying.Div(scale)
	if err != nil {
		return nil, err
	}

	v := &core.DepositValue{AssetID: d.AssetID, Amount: underlying}
	if v.AmountUsd, err = human.Mul(r.Price); err != nil {
		return nil, err
	}
	if v.MinPriceAmount, err = human.Mul(r.MinPrice); err != nil {
		return nil, err
	}

	limit, err := v.MinPriceAmount.Mul(number.FromBps(r.Config.OpenLtvBps))
	if err != nil {
		return nil, err
	}
	liquidation, err := v.MinPriceAmount.Mul(number.FromBps(r.Config.LiquidationThresholdBps))
	if err != nil {
		return nil, err
	}

	if s.DepositedAmountUsd, err = s.DepositedAmountUsd.Add(v.AmountUsd); err != nil {
		return nil, err
	}
	if s.MinPriceBorrowLimitUsd, err = s.MinPriceBorrowLimitUsd.Add(limit); err != nil {
		return nil, err
	}
	if s.MaxPriceBorrowLimitUsd, err = s.MaxPriceBorrowLimitUsd.Add(liquidation); err != nil {
		return nil, err
	}

	return v, nil
}

func valuateBorrow(s *core.ObligationSummary, r core.Reserve, b core.Borrow) (*core.BorrowValue, error) {
	debt, err := CompoundedDebt(r, b)
	if err != nil {
		return nil, err
	}

	scale, err := number.Pow10(r.Config.Decimals)
	if err != nil {
		return nil, err
	}
	human, err := debt.DivCeil(scale)
	if err != nil {
		return nil, err
	}

	v := &core.BorrowValue{AssetID: b.AssetID, Amount: debt}
	if v.AmountUsd, err = human.MulCeil(r.Price); err != nil {
		return nil, err
	}

	weighted, err := human.MulCeil(r.MaxPrice)
	if err != nil {
		return nil, err
	}
	if v.WeightedAmountUsd, err = weighted.MulCeil(number.FromBps(r.Config.BorrowWeightBps)); err != nil {
		return nil, err
	}

	if s.BorrowedAmountUsd, err = s.BorrowedAmountUsd.Add(v.AmountUsd); err != nil {
		return nil, err
	}
	if s.WeightedBorrowedAmountUsd, err = s.WeightedBorrowedAmountUsd.Add(v.WeightedAmountUsd); err != nil {
		return nil, err
	}

	return v, nil
}

// utilizationOf borrowed / limit * 100, N/A when there is debt but no limit
func utilizationOf(borrowed, limit number.Decimal) (core.Utilization, error) {
	if borrowed.IsZero() {
		return core.Utilization{}, nil
	}

	if limit.IsZero() {
		return core.Utilization{Unbounded: true}, nil
	}

	ratio, err := borrowed.DivCeil(limit)
	if err != nil {
		return core.Utilization{}, err
	}

	pct, err := ratio.Mul(number.FromUint64(100))
	if err != nil {
		return core.Utilization{}, err
	}

	return core.Utilization{Percent: pct}, nil
}
