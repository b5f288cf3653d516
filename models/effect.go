package models

import (
	"github.com/stripe/stripe-go/v79"

	"goflare.io/redemption/models/enum"
)

// Effect describes what applying a code or reward does. AmountOff is only
// meaningful for monetary kinds, so callers can tell "zero discount" apart
// from a categorical benefit.
type Effect struct {
	Kind      enum.EffectKind `json:"kind"`
	AmountOff int64           `json:"amount_off,omitempty"`
	Currency  stripe.Currency `json:"currency,omitempty"`
}

// Monetary reports whether the effect reduces a charged amount.
func (e Effect) Monetary() bool {
	return e.Kind == enum.EffectKindAmountOff || e.Kind == enum.EffectKindCashback
}
