package core

import (
	"context"

	"lendrisk/pkg/number"
)

// RewardCampaign linear emission of TotalAllocated between StartTimeS and EndTimeS
// to the share holders of one side of one reserve
type RewardCampaign struct {
	ID             string         `json:"id"`
	ReserveAssetID AssetID        `json:"reserve_asset_id"`
	Side           Side           `json:"side"`
	RewardAsset    AssetID        `json:"reward_asset"`
	StartTimeS     uint64         `json:"start_time_s"`
	EndTimeS       uint64         `json:"end_time_s"`
	TotalAllocated number.Decimal `json:"total_allocated"`

	CumulativeRewardPerShare number.Decimal `json:"cumulative_reward_per_share"`
	LastUpdateS              uint64         `json:"last_update_s"`
	// sum of all users' shares on this side
	TotalShares uint64 `json:"total_shares"`
	// emitted and distributed so far
	AllocatedRewards number.Decimal `json:"allocated_rewards"`
	// emitted while nobody held a share, released to the next holders
	CarriedRewards number.Decimal `json:"carried_rewards"`
}

// UserRewardSnapshot a user's position in one campaign
type UserRewardSnapshot struct {
	CampaignID             string         `json:"campaign_id"`
	Share                  uint64         `json:"share"`
	RewardPerShareSnapshot number.Decimal `json:"reward_per_share_snapshot"`
	// settled but unclaimed
	EarnedRewards number.Decimal `json:"earned_rewards"`
	ClaimedAmount number.Decimal `json:"claimed_amount"`
}

// ClaimableRewards claimable amounts per reward asset
type ClaimableRewards map[AssetID]number.Decimal

// IRewardService reward service interface
type IRewardService interface {
	Refresh(ctx context.Context, campaigns []RewardCampaign, now uint64) ([]RewardCampaign, error)
	Claimable(ctx context.Context, campaigns []RewardCampaign, obligation Obligation, eligible bool) (ClaimableRewards, error)
}
