package models

import (
	"time"

	"github.com/stripe/stripe-go/v79"
)

// DiscountUsage is one append-only ledger entry: a member consumed a discount
// code once. Entries are never deleted; a refund marks the entry reversed and
// compensates the parent counter.
type DiscountUsage struct {
	ID               uint64          `json:"id"`
	DiscountCodeID   uint64          `json:"discount_code_id"`
	MemberID         uint64          `json:"member_id"`
	AmountDiscounted int64           `json:"amount_discounted"`
	Currency         stripe.Currency `json:"currency,omitempty"`
	SubscriptionID   *uint64         `json:"subscription_id,omitempty"`
	UsedAt           time.Time       `json:"used_at"`
	Reversed         bool            `json:"reversed"`
	ReversedAt       *time.Time      `json:"reversed_at,omitempty"`
	ReversalReason   string          `json:"reversal_reason,omitempty"`
}

func NewDiscountUsage() *DiscountUsage {
	return &DiscountUsage{}
}
