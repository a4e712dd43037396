package core

import (
	"fmt"
	"strings"
)

// AssetID coin type of a reserve or a reward, e.g. "0x2::sui::SUI"
type AssetID string

// NewAssetID trims and validates an asset identifier
func NewAssetID(s string) (AssetID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty asset id", ErrInvalidConfiguration)
	}

	return AssetID(s), nil
}

func (a AssetID) String() string {
	return string(a)
}

// Side which side of a reserve a position or campaign belongs to
type Side string

const (
	// SideDeposit deposit side
	SideDeposit Side = "deposit"
	// SideBorrow borrow side
	SideBorrow Side = "borrow"
)

// Valid side is deposit or borrow
func (s Side) Valid() bool {
	return s == SideDeposit || s == SideBorrow
}
