// Package looping flags obligations that deposit and borrow correlated assets.
package looping

import (
	"fmt"
	"strings"

	"lendrisk/core"
)

// Group correlated assets, e.g. every stablecoin variant
type Group struct {
	Name   string         `json:"name" yaml:"name"`
	Assets []core.AssetID `json:"assets" yaml:"assets"`
}

// Detector classifies obligations against a fixed set of groups
type Detector struct {
	groupOf map[core.AssetID]string
}

// New validates the groups, an asset may belong to one group only
func New(groups []Group) (*Detector, error) {
	d := &Detector{groupOf: make(map[core.AssetID]string)}
	names := make(map[string]bool, len(groups))

	for _, g := range groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: loop group without name", core.ErrInvalidConfiguration)
		}
		if names[name] {
			return nil, fmt.Errorf("%w: duplicated loop group %s", core.ErrInvalidConfiguration, name)
		}
		names[name] = true

		for _, asset := range g.Assets {
			if other, ok := d.groupOf[asset]; ok {
				return nil, fmt.Errorf("%w: asset %s in loop groups %s and %s", core.ErrInvalidConfiguration, asset, other, name)
			}
			d.groupOf[asset] = "group:" + name
		}
	}

	return d, nil
}

// group assets without a configured group form their own
func (d *Detector) group(asset core.AssetID) string {
	if g, ok := d.groupOf[asset]; ok {
		return g
	}

	return "asset:" + string(asset)
}

// IsLooping some group holds both a non zero deposit and a non zero borrow
func (d *Detector) IsLooping(ob core.Obligation) bool {
	deposited := make(map[string]bool, len(ob.Deposits))
	for _, dep := range ob.Deposits {
		if dep.DepositedAmount > 0 {
			deposited[d.group(dep.AssetID)] = true
		}
	}

	for _, b := range ob.Borrows {
		if !b.BorrowedAmount.IsZero() && deposited[d.group(b.AssetID)] {
			return true
		}
	}

	return false
}

// WasLooping the obligation no longer loops but still has funded positions whose
// reward share was zeroed. The returned positions need a touch (any non zero
// deposit, withdraw, borrow or repay) to earn rewards again.
func (d *Detector) WasLooping(ob core.Obligation) (bool, []core.Position) {
	if d.IsLooping(ob) {
		return false, nil
	}

	var stale []core.Position
	for _, dep := range ob.Deposits {
		if dep.DepositedAmount > 0 && dep.RewardShare == 0 {
			stale = append(stale, core.Position{AssetID: dep.AssetID, Side: core.SideDeposit})
		}
	}
	for _, b := range ob.Borrows {
		if !b.BorrowedAmount.IsZero() && b.RewardShare == 0 {
			stale = append(stale, core.Position{AssetID: b.AssetID, Side: core.SideBorrow})
		}
	}

	return len(stale) > 0, stale
}
