package reward

import (
	"context"

	"lendrisk/core"
	"lendrisk/internal/rewards"

	"github.com/fox-one/pkg/logger"
)

type service struct{}

// New new reward service
func New() core.IRewardService {
	return &service{}
}

// Refresh advance every campaign to now
func (s *service) Refresh(ctx context.Context, campaigns []core.RewardCampaign, now uint64) ([]core.RewardCampaign, error) {
	book, err := rewards.NewBook(campaigns)
	if err != nil {
		return nil, err
	}

	if book, err = book.Refresh(now); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("refresh reward campaigns")
		return nil, err
	}

	return book.All(), nil
}

// Claimable rewards of one obligation against already refreshed campaigns,
// looping obligations (eligible false) keep only what they had earned
func (s *service) Claimable(ctx context.Context, campaigns []core.RewardCampaign, obligation core.Obligation, eligible bool) (core.ClaimableRewards, error) {
	book, err := rewards.NewBook(campaigns)
	if err != nil {
		return nil, err
	}

	return book.ClaimableFor(obligation, eligible)
}
