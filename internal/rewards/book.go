package rewards

import (
	"fmt"

	"lendrisk/core"
)

// Key a reserve side campaigns emit to
type Key struct {
	AssetID core.AssetID
	Side    core.Side
}

// Book campaigns indexed by reserve side and by id
type Book struct {
	list  []core.RewardCampaign
	byKey map[Key][]int
	byID  map[string]int
}

// NewBook validates every campaign and rejects duplicated ids
func NewBook(campaigns []core.RewardCampaign) (*Book, error) {
	b := &Book{
		list:  make([]core.RewardCampaign, 0, len(campaigns)),
		byKey: make(map[Key][]int),
		byID:  make(map[string]int, len(campaigns)),
	}

	for _, c := range campaigns {
		if err := ValidateCampaign(c); err != nil {
			return nil, err
		}
		if _, dup := b.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicated campaign %s", core.ErrInvalidConfiguration, c.ID)
		}

		idx := len(b.list)
		b.list = append(b.list, c)
		b.byID[c.ID] = idx
		key := Key{AssetID: c.ReserveAssetID, Side: c.Side}
		b.byKey[key] = append(b.byKey[key], idx)
	}

	return b, nil
}

// Campaigns campaigns of one reserve side, in book order
func (b *Book) Campaigns(asset core.AssetID, side core.Side) []core.RewardCampaign {
	idx := b.byKey[Key{AssetID: asset, Side: side}]
	out := make([]core.RewardCampaign, 0, len(idx))
	for _, i := range idx {
		out = append(out, b.list[i])
	}

	return out
}

// Find campaign by id
func (b *Book) Find(id string) (core.RewardCampaign, bool) {
	i, ok := b.byID[id]
	if !ok {
		return core.RewardCampaign{}, false
	}

	return b.list[i], true
}

// All campaigns in book order
func (b *Book) All() []core.RewardCampaign {
	return append([]core.RewardCampaign(nil), b.list...)
}

// Refresh a new book with every campaign advanced to now
func (b *Book) Refresh(now uint64) (*Book, error) {
	refreshed := make([]core.RewardCampaign, len(b.list))
	for i, c := range b.list {
		next, err := RefreshCampaign(c, now)
		if err != nil {
			return nil, fmt.Errorf("refresh campaign %s: %w", c.ID, err)
		}
		refreshed[i] = next
	}

	return NewBook(refreshed)
}

// ClaimableFor sums the obligation's claimable rewards per reward asset.
//
// When eligible is false only the already earned rewards count, the projected share
// of a looping obligation is zero.
func (b *Book) ClaimableFor(ob core.Obligation, eligible bool) (core.ClaimableRewards, error) {
	out := core.ClaimableRewards{}
	for _, snap := range ob.Rewards {
		c, ok := b.Find(snap.CampaignID)
		if !ok {
			return nil, fmt.Errorf("%w: obligation %s references campaign %s", core.ErrInvalidConfiguration, ob.ID, snap.CampaignID)
		}

		if !eligible {
			snap.Share = 0
		}

		amount, err := Claimable(c, snap)
		if err != nil {
			return nil, fmt.Errorf("campaign %s: %w", c.ID, err)
		}
		if amount.IsZero() {
			continue
		}

		sum, err := out[c.RewardAsset].Add(amount)
		if err != nil {
			return nil, err
		}
		out[c.RewardAsset] = sum
	}

	return out, nil
}
