package models

import (
	"time"

	"goflare.io/redemption/models/enum"
)

// RewardRedemption is one member's claim on a reward. PointsSpent snapshots
// the cost at redemption time and never changes afterwards, even if the
// reward is repriced.
type RewardRedemption struct {
	ID          uint64                `json:"id"`
	MemberID    uint64                `json:"member_id"`
	RewardID    uint64                `json:"reward_id"`
	PointsSpent int64                 `json:"points_spent"`
	Code        string                `json:"code"`
	Status      enum.RedemptionStatus `json:"status"`
	RedeemedAt  time.Time             `json:"redeemed_at"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
	UsedAt      *time.Time            `json:"used_at,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func NewRewardRedemption() *RewardRedemption {
	return &RewardRedemption{}
}

// Lapsed reports whether an ACTIVE redemption has outlived its window.
func (r *RewardRedemption) Lapsed(now time.Time) bool {
	return r.Status == enum.RedemptionStatusActive && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
