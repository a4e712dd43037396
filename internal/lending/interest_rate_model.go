package lending

import (
	"lendrisk/core"
	"lendrisk/pkg/number"
)

const (
	// SecondsPerYear seconds per year, 365 days
	SecondsPerYear uint64 = 365 * 24 * 60 * 60
	// CompoundingPeriodsPerYear periods used to turn an apr into the displayed apy
	CompoundingPeriodsPerYear uint64 = 365
)

// InterestRateModel piecewise linear borrow apr over utilization
type InterestRateModel struct {
	points []core.InterestRatePoint
}

// NewInterestRateModel validates the curve
func NewInterestRateModel(points []core.InterestRatePoint) (*InterestRateModel, error) {
	if err := core.ValidateInterestRate(points); err != nil {
		return nil, err
	}

	pts := make([]core.InterestRatePoint, len(points))
	copy(pts, points)
	return &InterestRateModel{points: pts}, nil
}

// BorrowAPR borrow apr at utilization (a fraction, clamped to 1.0)
//
// apr = apr_i + (apr_i+1 - apr_i) * (util% - util_i) / (util_i+1 - util_i)
func (m *InterestRateModel) BorrowAPR(utilization number.Decimal) (number.Decimal, error) {
	pct, err := number.Min(utilization, number.One()).Mul(number.FromUint64(100))
	if err != nil {
		return number.Zero(), err
	}

	for i := 1; i < len(m.points); i++ {
		lo, hi := m.points[i-1], m.points[i]
		hiUtil := number.FromUint64(hi.UtilPercent)
		if pct.Gt(hiUtil) {
			continue
		}

		loUtil := number.FromUint64(lo.UtilPercent)
		loApr := number.FromBps(lo.AprBps)
		rise := number.FromBps(hi.AprBps).SaturatingSub(loApr)

		delta, err := rise.Mul(pct.SaturatingSub(loUtil))
		if err != nil {
			return number.Zero(), err
		}
		if delta, err = delta.Div(hiUtil.SaturatingSub(loUtil)); err != nil {
			return number.Zero(), err
		}

		return loApr.Add(delta)
	}

	return number.FromBps(m.points[len(m.points)-1].AprBps), nil
}

// DepositAPR borrowAPR * utilization * (1 - spread fee)
func DepositAPR(borrowAPR, utilization number.Decimal, spreadFeeBps uint64) (number.Decimal, error) {
	apr, err := borrowAPR.Mul(utilization)
	if err != nil {
		return number.Zero(), err
	}

	return apr.Mul(number.One().SaturatingSub(number.FromBps(spreadFeeBps)))
}

// APY (1 + apr/n)^n - 1 with daily compounding
func APY(apr number.Decimal) (number.Decimal, error) {
	periodic, err := apr.Div(number.FromUint64(CompoundingPeriodsPerYear))
	if err != nil {
		return number.Zero(), err
	}

	base, err := number.One().Add(periodic)
	if err != nil {
		return number.Zero(), err
	}

	grown, err := base.Pow(CompoundingPeriodsPerYear)
	if err != nil {
		return number.Zero(), err
	}

	return grown.SaturatingSub(number.One()), nil
}
