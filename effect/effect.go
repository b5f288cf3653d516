// Package effect computes what an accepted code or reward is worth. All
// monetary arithmetic is int64 minor units; percentages are basis points.
package effect

import (
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

// percentOff is amount * bps / 10000, floored, safe in int64 for any
// realistic order amount.
func percentOff(amount int64, bps int32) int64 {
	return amount * int64(bps) / 10000
}

// ForDiscountCode computes the effect of a discount code on an order amount.
// Categorical types return a descriptor with no amount so callers never
// mistake them for a zero discount.
func ForDiscountCode(dc *models.DiscountCode, amount int64) (models.Effect, error) {
	if amount < 0 {
		return models.Effect{}, errs.NewValidationError("amount", "must not be negative")
	}

	switch dc.Type {
	case enum.DiscountTypePercentage:
		off := percentOff(amount, dc.PercentOffBps)
		if dc.MaxDiscount != nil && off > *dc.MaxDiscount {
			off = *dc.MaxDiscount
		}
		return models.Effect{Kind: enum.EffectKindAmountOff, AmountOff: off, Currency: dc.Currency}, nil
	case enum.DiscountTypeFixedAmount:
		off := dc.AmountOff
		if off > amount {
			off = amount
		}
		return models.Effect{Kind: enum.EffectKindAmountOff, AmountOff: off, Currency: dc.Currency}, nil
	case enum.DiscountTypeFreeTrial:
		return models.Effect{Kind: enum.EffectKindFreeTrial}, nil
	case enum.DiscountTypeFirstMonthFree:
		return models.Effect{Kind: enum.EffectKindFirstMonthFree}, nil
	}
	return models.Effect{}, errs.NewValidationError("type", "unknown discount type")
}

// ForReward computes the effect of a reward against an amount. Monetary
// reward types mirror the discount-code branches via percent_off/amount_off.
func ForReward(rw *models.Reward, amount int64) (models.Effect, error) {
	if amount < 0 {
		return models.Effect{}, errs.NewValidationError("amount", "must not be negative")
	}

	switch rw.Type {
	case enum.RewardTypePercentage:
		if rw.PercentOffBps == nil {
			return models.Effect{}, errs.NewValidationError("percent_off", "required for percentage rewards")
		}
		return models.Effect{Kind: enum.EffectKindAmountOff, AmountOff: percentOff(amount, *rw.PercentOffBps)}, nil
	case enum.RewardTypeFixedAmount:
		if rw.AmountOff == nil {
			return models.Effect{}, errs.NewValidationError("amount_off", "required for fixed-amount rewards")
		}
		off := *rw.AmountOff
		if off > amount {
			off = amount
		}
		return models.Effect{Kind: enum.EffectKindAmountOff, AmountOff: off}, nil
	case enum.RewardTypeCashback:
		if rw.AmountOff == nil {
			return models.Effect{}, errs.NewValidationError("amount_off", "required for cashback rewards")
		}
		return models.Effect{Kind: enum.EffectKindCashback, AmountOff: *rw.AmountOff}, nil
	case enum.RewardTypeFreeTrial:
		return models.Effect{Kind: enum.EffectKindFreeTrial}, nil
	case enum.RewardTypeFirstMonthFree:
		return models.Effect{Kind: enum.EffectKindFirstMonthFree}, nil
	case enum.RewardTypeFreeItem:
		return models.Effect{Kind: enum.EffectKindFreeItem}, nil
	case enum.RewardTypeMembershipUpgrade:
		return models.Effect{Kind: enum.EffectKindMembershipUpgrade}, nil
	case enum.RewardTypePremiumFeatureAccess:
		return models.Effect{Kind: enum.EffectKindPremiumFeatureAccess}, nil
	case enum.RewardTypeOther:
		return models.Effect{Kind: enum.EffectKindOther}, nil
	}
	return models.Effect{}, errs.NewValidationError("reward_type", "unknown reward type")
}
