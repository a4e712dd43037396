package views

import (
	"lendrisk/core"
	"lendrisk/pkg/number"
)

// display precision, rounded half up
const (
	UsdPlaces     = 2
	PercentPlaces = 2
	RatePlaces    = 6
)

// Reserve reserve view
type Reserve struct {
	core.Reserve
	Rates      *core.ReserveRates `json:"rates,omitempty"`
	Error      string             `json:"error,omitempty"`
	LastQuoteS uint64             `json:"last_quote_s,omitempty"`
}

// NewReserve reserve view with display-rounded rates
func NewReserve(report core.ReserveReport) Reserve {
	view := Reserve{
		Reserve:    report.Reserve,
		Error:      report.Error,
		LastQuoteS: report.LastQuoteS,
	}

	if r := report.Rates; r != nil {
		view.Rates = &core.ReserveRates{
			Utilization:    round(r.Utilization, RatePlaces),
			BorrowAPR:      round(r.BorrowAPR, RatePlaces),
			DepositAPR:     round(r.DepositAPR, RatePlaces),
			BorrowAPY:      round(r.BorrowAPY, RatePlaces),
			DepositAPY:     round(r.DepositAPY, RatePlaces),
			CTokenRatio:    r.CTokenRatio,
			TotalDeposited: round(r.TotalDeposited, 0),
		}
	}

	return view
}

// Obligation obligation view
type Obligation struct {
	core.ObligationReport
	TimestampS uint64 `json:"timestamp_s"`
}

// NewObligation obligation view, usd totals in cents and amounts in whole base units
func NewObligation(report core.ObligationReport, timestampS uint64) Obligation {
	if s := report.Summary; s != nil {
		report.Summary = roundSummary(*s)
	}

	if len(report.Claimable) > 0 {
		claimable := make(core.ClaimableRewards, len(report.Claimable))
		for asset, amount := range report.Claimable {
			claimable[asset] = round(amount, 0)
		}
		report.Claimable = claimable
	}

	return Obligation{
		ObligationReport: report,
		TimestampS:       timestampS,
	}
}

func roundSummary(s core.ObligationSummary) *core.ObligationSummary {
	s.DepositedAmountUsd = round(s.DepositedAmountUsd, UsdPlaces)
	s.BorrowedAmountUsd = round(s.BorrowedAmountUsd, UsdPlaces)
	s.WeightedBorrowedAmountUsd = round(s.WeightedBorrowedAmountUsd, UsdPlaces)
	s.MinPriceBorrowLimitUsd = round(s.MinPriceBorrowLimitUsd, UsdPlaces)
	s.MaxPriceBorrowLimitUsd = round(s.MaxPriceBorrowLimitUsd, UsdPlaces)
	s.WeightedConservativeBorrowUtilizationPercent = roundUtilization(s.WeightedConservativeBorrowUtilizationPercent)
	s.LiquidationUtilizationPercent = roundUtilization(s.LiquidationUtilizationPercent)

	deposits := make([]core.DepositValue, len(s.Deposits))
	for i, d := range s.Deposits {
		d.Amount = round(d.Amount, 0)
		d.AmountUsd = round(d.AmountUsd, UsdPlaces)
		d.MinPriceAmount = round(d.MinPriceAmount, UsdPlaces)
		deposits[i] = d
	}
	s.Deposits = deposits

	borrows := make([]core.BorrowValue, len(s.Borrows))
	for i, b := range s.Borrows {
		b.Amount = round(b.Amount, 0)
		b.AmountUsd = round(b.AmountUsd, UsdPlaces)
		b.WeightedAmountUsd = round(b.WeightedAmountUsd, UsdPlaces)
		borrows[i] = b
	}
	s.Borrows = borrows

	return &s
}

func roundUtilization(u core.Utilization) core.Utilization {
	if u.Unbounded {
		return u
	}

	u.Percent = round(u.Percent, PercentPlaces)
	return u
}

// round keeps the raw value when rounding up would overflow
func round(d number.Decimal, places int32) number.Decimal {
	r, err := d.Round(places)
	if err != nil {
		return d
	}

	return r
}

// MaxAction max borrow or withdraw result
type MaxAction struct {
	ObligationID string       `json:"obligation_id"`
	AssetID      core.AssetID `json:"asset_id"`
	Amount       uint64       `json:"amount"`
	// false when the solver ran out of iterations, Amount is then a safe lower bound
	Converged  bool   `json:"converged"`
	TimestampS uint64 `json:"timestamp_s"`
}

// RateLimiter rate limiter view
type RateLimiter struct {
	core.RateLimiterConfig
	Unlimited bool   `json:"unlimited"`
	Remaining uint64 `json:"remaining"`
}

// Outflow outflow decision view
type Outflow struct {
	core.OutflowDecision
	Code int    `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
}
