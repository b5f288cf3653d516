package models

import (
	"time"

	"github.com/stripe/stripe-go/v79"

	"goflare.io/redemption/models/enum"
)

// DiscountCode is a promotional code applied against an order amount.
// Monetary fields are integer minor units; percentages are basis points
// (10000 = 100%) so repeated calculations never drift.
type DiscountCode struct {
	ID                  uint64            `json:"id"`
	Code                string            `json:"code"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	Type                enum.DiscountType `json:"type"`
	PercentOffBps       int32             `json:"percent_off_bps,omitempty"`
	AmountOff           int64             `json:"amount_off,omitempty"`
	Currency            stripe.Currency   `json:"currency,omitempty"`
	MaxDiscount         *int64            `json:"max_discount,omitempty"`
	MinimumAmount       *int64            `json:"minimum_amount,omitempty"`
	UsageLimit          *int32            `json:"usage_limit,omitempty"`
	UsageLimitPerMember *int32            `json:"usage_limit_per_member,omitempty"`
	ValidFrom           *time.Time        `json:"valid_from,omitempty"`
	ValidUntil          *time.Time        `json:"valid_until,omitempty"`
	IsActive            bool              `json:"is_active"`
	FirstTimeOnly       bool              `json:"first_time_only"`
	ApplicablePlans     []string          `json:"applicable_plans,omitempty"`
	UsageCount          int32             `json:"usage_count"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func NewDiscountCode() *DiscountCode {
	return &DiscountCode{}
}

type PartialDiscountCode struct {
	ID                  uint64
	Code                *string
	Name                *string
	Description         *string
	Type                *enum.DiscountType
	PercentOffBps       *int32
	AmountOff           *int64
	Currency            *stripe.Currency
	MaxDiscount         *int64
	MinimumAmount       *int64
	UsageLimit          *int32
	UsageLimitPerMember *int32
	ValidFrom           *time.Time
	ValidUntil          *time.Time
	IsActive            *bool
	FirstTimeOnly       *bool
	ApplicablePlans     []string
}
