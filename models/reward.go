package models

import (
	"errors"
	"time"

	"goflare.io/redemption/models/enum"
)

// Reward is a catalog item purchasable with loyalty points.
type Reward struct {
	ID              uint64              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	Category        enum.RewardCategory `json:"category"`
	PointsCost      int64               `json:"points_cost"`
	Type            enum.RewardType     `json:"reward_type"`
	PercentOffBps   *int32              `json:"percent_off_bps,omitempty"`
	AmountOff       *int64              `json:"amount_off,omitempty"`
	StockQuantity   *int32              `json:"stock_quantity,omitempty"`
	RedemptionLimit *int32              `json:"redemption_limit,omitempty"`
	RedemptionCount int32               `json:"redemption_count"`
	ValidFrom       *time.Time          `json:"valid_from,omitempty"`
	ValidUntil      *time.Time          `json:"valid_until,omitempty"`
	ValidityDays    *int32              `json:"validity_days,omitempty"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func NewReward() *Reward {
	return &Reward{}
}

var ErrAmbiguousDiscount = errors.New("reward cannot set both percent_off and amount_off")

// Validate enforces the structural invariants of a reward record.
func (r *Reward) Validate() error {
	if r.PointsCost <= 0 {
		return errors.New("points_cost must be positive")
	}
	if r.PercentOffBps != nil && r.AmountOff != nil {
		return ErrAmbiguousDiscount
	}
	if r.PercentOffBps != nil && (*r.PercentOffBps <= 0 || *r.PercentOffBps > 10000) {
		return errors.New("percent_off must be within (0, 100]")
	}
	if r.AmountOff != nil && *r.AmountOff <= 0 {
		return errors.New("amount_off must be positive")
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && !r.ValidFrom.Before(*r.ValidUntil) {
		return errors.New("valid_from must precede valid_until")
	}
	return nil
}

// EffectiveCap is the tighter of stock and redemption limit, nil when the
// reward is uncapped.
func (r *Reward) EffectiveCap() *int32 {
	cap := r.StockQuantity
	if r.RedemptionLimit != nil && (cap == nil || *r.RedemptionLimit < *cap) {
		cap = r.RedemptionLimit
	}
	return cap
}

type PartialReward struct {
	ID              uint64
	Title           *string
	Description     *string
	Category        *enum.RewardCategory
	PointsCost      *int64
	Type            *enum.RewardType
	PercentOffBps   *int32
	AmountOff       *int64
	StockQuantity   *int32
	RedemptionLimit *int32
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	ValidityDays    *int32
	IsActive        *bool
}
