package rewards

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendrisk/core"
	"lendrisk/pkg/number"
)

func newCampaign(id string, total uint64) core.RewardCampaign {
	return core.RewardCampaign{
		ID:             id,
		ReserveAssetID: "SUI",
		Side:           core.SideDeposit,
		RewardAsset:    "DEEP",
		StartTimeS:     100,
		EndTimeS:       200,
		TotalAllocated: number.FromUint64(total),
	}
}

func TestRefreshCampaignLinearEmission(t *testing.T) {
	c := newCampaign("c1", 1000)
	c.TotalShares = 10

	c, err := RefreshCampaign(c, 150)
	require.NoError(t, err)
	assert.Equal(t, "50", c.CumulativeRewardPerShare.String())
	assert.Equal(t, "500", c.AllocatedRewards.String())
	assert.EqualValues(t, 150, c.LastUpdateS)

	// nothing emits past the end
	c, err = RefreshCampaign(c, 10_000)
	require.NoError(t, err)
	assert.Equal(t, "100", c.CumulativeRewardPerShare.String())
	assert.Equal(t, "1000", c.AllocatedRewards.String())

	again, err := RefreshCampaign(c, 20_000)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestRefreshCampaignBeforeStart(t *testing.T) {
	c := newCampaign("c1", 1000)
	c.TotalShares = 10

	next, err := RefreshCampaign(c, 50)
	require.NoError(t, err)
	assert.Equal(t, c, next)
}

func TestCarriedRewardsGoToLaterHolders(t *testing.T) {
	c := newCampaign("c1", 1000)

	c, err := RefreshCampaign(c, 150)
	require.NoError(t, err)
	assert.Equal(t, "500", c.CarriedRewards.String())
	assert.True(t, c.CumulativeRewardPerShare.IsZero())

	var snap core.UserRewardSnapshot
	c, snap, err = UpdateShare(c, snap, 10, 150)
	require.NoError(t, err)

	c, err = RefreshCampaign(c, 200)
	require.NoError(t, err)

	claimable, err := Claimable(c, snap)
	require.NoError(t, err)
	assert.Equal(t, "1000", claimable.String())
	assert.True(t, c.CarriedRewards.IsZero())
}

func TestClaimKeepsFraction(t *testing.T) {
	c := newCampaign("c1", 10)
	c.TotalShares = 3

	c, err := RefreshCampaign(c, 200)
	require.NoError(t, err)

	snap := core.UserRewardSnapshot{CampaignID: "c1", Share: 1}
	snap, paid, err := Claim(c, snap)
	require.NoError(t, err)
	assert.Equal(t, "3", paid.String())
	assert.Equal(t, "3", snap.ClaimedAmount.String())
	assert.True(t, snap.EarnedRewards.Gt(number.Zero()))
	assert.True(t, snap.EarnedRewards.Lt(number.One()))
	assert.Equal(t, c.CumulativeRewardPerShare, snap.RewardPerShareSnapshot)

	// claiming again pays nothing new and leaves the campaign alone
	before := c.CumulativeRewardPerShare
	snap, paid, err = Claim(c, snap)
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
	assert.Equal(t, before, c.CumulativeRewardPerShare)
}

func TestInvalidCampaigns(t *testing.T) {
	c := newCampaign("c1", 10)
	c.EndTimeS = c.StartTimeS

	_, err := RefreshCampaign(c, 150)
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration))

	c = newCampaign("c1", 10)
	c.Side = "lend"
	_, err = NewBook([]core.RewardCampaign{c})
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration))

	_, err = NewBook([]core.RewardCampaign{newCampaign("c1", 1), newCampaign("c1", 2)})
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration))
}

// users join, leave, resize and claim at random; nobody can ever be owed more than
// the campaign allocated
func TestRewardConservation(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		c := newCampaign(fmt.Sprintf("c%d", round), uint64(rnd.Intn(1_000_000)+1))
		users := make([]core.UserRewardSnapshot, 4)
		now := uint64(90)

		for step := 0; step < 200; step++ {
			now += uint64(rnd.Intn(3))
			u := rnd.Intn(len(users))

			var err error
			switch rnd.Intn(3) {
			case 0:
				c, users[u], err = UpdateShare(c, users[u], uint64(rnd.Intn(1000)), now)
			case 1:
				c, err = RefreshCampaign(c, now)
				if err == nil {
					users[u], _, err = Claim(c, users[u])
				}
			default:
				c, err = RefreshCampaign(c, now)
			}
			require.NoError(t, err)

			owed := number.Zero()
			for _, snap := range users {
				claimable, err := Claimable(c, snap)
				require.NoError(t, err)
				owed, err = owed.Add(claimable)
				require.NoError(t, err)
				owed, err = owed.Add(snap.ClaimedAmount)
				require.NoError(t, err)
			}

			assert.True(t, owed.Lte(c.TotalAllocated), "owed %s of %s", owed, c.TotalAllocated)
			assert.True(t, owed.Lte(c.AllocatedRewards))
		}
	}
}

func TestBookClaimableFor(t *testing.T) {
	a := newCampaign("a", 1000)
	a.TotalShares = 10
	b := newCampaign("b", 500)
	b.Side = core.SideBorrow
	b.TotalShares = 10
	c := newCampaign("c", 100)
	c.RewardAsset = "SUI"
	c.TotalShares = 10

	book, err := NewBook([]core.RewardCampaign{a, b, c})
	require.NoError(t, err)
	assert.Len(t, book.Campaigns("SUI", core.SideDeposit), 2)
	assert.Len(t, book.Campaigns("SUI", core.SideBorrow), 1)

	book, err = book.Refresh(200)
	require.NoError(t, err)

	ob := core.Obligation{
		ID: "ob-1",
		Rewards: []core.UserRewardSnapshot{
			{CampaignID: "a", Share: 5},
			{CampaignID: "b", Share: 10, EarnedRewards: number.FromUint64(7)},
			{CampaignID: "c", Share: 1},
		},
	}

	claimable, err := book.ClaimableFor(ob, true)
	require.NoError(t, err)
	assert.Equal(t, "1007", claimable["DEEP"].String())
	assert.Equal(t, "10", claimable["SUI"].String())

	gated, err := book.ClaimableFor(ob, false)
	require.NoError(t, err)
	assert.Equal(t, "7", gated["DEEP"].String())
	_, ok := gated["SUI"]
	assert.False(t, ok)

	ob.Rewards = append(ob.Rewards, core.UserRewardSnapshot{CampaignID: "missing"})
	_, err = book.ClaimableFor(ob, true)
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration))
}
