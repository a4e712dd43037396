package rewards

import (
	"fmt"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

// ValidateCampaign checks identity, side and time range
func ValidateCampaign(c core.RewardCampaign) error {
	if c.ID == "" {
		return fmt.Errorf("%w: campaign without id", core.ErrInvalidConfiguration)
	}
	if !c.Side.Valid() {
		return fmt.Errorf("%w: campaign %s has side %q", core.ErrInvalidConfiguration, c.ID, c.Side)
	}
	if c.EndTimeS <= c.StartTimeS {
		return fmt.Errorf("%w: campaign %s ends at %d before it starts at %d", core.ErrInvalidConfiguration, c.ID, c.EndTimeS, c.StartTimeS)
	}

	return nil
}

// EmittedAt total emission of the campaign from its start up to t, rounded down
func EmittedAt(c core.RewardCampaign, t uint64) (number.Decimal, error) {
	t = clamp(t, c.StartTimeS, c.EndTimeS)
	if t == c.EndTimeS {
		return c.TotalAllocated, nil
	}

	emitted, err := c.TotalAllocated.Mul(number.FromUint64(t - c.StartTimeS))
	if err != nil {
		return number.Zero(), err
	}

	return emitted.Div(number.FromUint64(c.EndTimeS - c.StartTimeS))
}

// RefreshCampaign advances the campaign's per share index to now.
//
// With no shares outstanding the emission is carried and handed to the holders of the
// next distribution. Rounding dust of the per share division is carried the same way.
func RefreshCampaign(c core.RewardCampaign, now uint64) (core.RewardCampaign, error) {
	if err := ValidateCampaign(c); err != nil {
		return c, err
	}

	last := clamp(c.LastUpdateS, c.StartTimeS, c.EndTimeS)
	until := clamp(now, c.StartTimeS, c.EndTimeS)
	if until <= last {
		return c, nil
	}

	before, err := EmittedAt(c, last)
	if err != nil {
		return c, err
	}
	after, err := EmittedAt(c, until)
	if err != nil {
		return c, err
	}

	pending, err := c.CarriedRewards.Add(after.SaturatingSub(before))
	if err != nil {
		return c, err
	}

	c.LastUpdateS = until
	if c.TotalShares == 0 {
		c.CarriedRewards = pending
		return c, nil
	}

	shares := number.FromUint64(c.TotalShares)
	perShare, err := pending.Div(shares)
	if err != nil {
		return c, err
	}
	distributed, err := perShare.Mul(shares)
	if err != nil {
		return c, err
	}

	if c.CumulativeRewardPerShare, err = c.CumulativeRewardPerShare.Add(perShare); err != nil {
		return c, err
	}
	if c.AllocatedRewards, err = c.AllocatedRewards.Add(distributed); err != nil {
		return c, err
	}
	c.CarriedRewards = pending.SaturatingSub(distributed)

	return c, nil
}

// Claimable earned + share * (cumulative - snapshot), rounded down
func Claimable(c core.RewardCampaign, snap core.UserRewardSnapshot) (number.Decimal, error) {
	delta := c.CumulativeRewardPerShare.SaturatingSub(snap.RewardPerShareSnapshot)

	accrued, err := number.FromUint64(snap.Share).Mul(delta)
	if err != nil {
		return number.Zero(), err
	}

	return snap.EarnedRewards.Add(accrued)
}

// Settle moves accrued rewards into EarnedRewards and resets the snapshot to the
// campaign index
func Settle(c core.RewardCampaign, snap core.UserRewardSnapshot) (core.UserRewardSnapshot, error) {
	earned, err := Claimable(c, snap)
	if err != nil {
		return snap, err
	}

	snap.EarnedRewards = earned
	snap.RewardPerShareSnapshot = c.CumulativeRewardPerShare
	return snap, nil
}

// Claim pays out the whole units of the claimable amount, the fraction stays earned.
// The campaign index is never touched.
func Claim(c core.RewardCampaign, snap core.UserRewardSnapshot) (core.UserRewardSnapshot, number.Decimal, error) {
	settled, err := Settle(c, snap)
	if err != nil {
		return snap, number.Zero(), err
	}

	paid := settled.EarnedRewards.Floor()
	if settled.ClaimedAmount, err = settled.ClaimedAmount.Add(paid); err != nil {
		return snap, number.Zero(), err
	}
	settled.EarnedRewards = settled.EarnedRewards.SaturatingSub(paid)

	return settled, paid, nil
}

// UpdateShare refreshes the campaign to now, settles the user and swaps the share
func UpdateShare(c core.RewardCampaign, snap core.UserRewardSnapshot, share, now uint64) (core.RewardCampaign, core.UserRewardSnapshot, error) {
	c, err := RefreshCampaign(c, now)
	if err != nil {
		return c, snap, err
	}

	if snap, err = Settle(c, snap); err != nil {
		return c, snap, err
	}

	if c.TotalShares < snap.Share {
		return c, snap, fmt.Errorf("%w: campaign %s total shares %d below user share %d", core.ErrInvalidConfiguration, c.ID, c.TotalShares, snap.Share)
	}

	total := c.TotalShares - snap.Share
	if total > ^uint64(0)-share {
		return c, snap, fmt.Errorf("campaign %s shares: %w", c.ID, core.ErrArithmeticOverflow)
	}

	c.TotalShares = total + share
	snap.Share = share
	snap.CampaignID = c.ID
	return c, snap, nil
}

func clamp(t, lo, hi uint64) uint64 {
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}

	return t
}
