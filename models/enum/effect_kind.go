package enum

// EffectKind classifies what applying a code or reward does. Monetary kinds
// carry an amount in minor units; categorical kinds do not, so a zero amount
// is never confused with "no effect".
type EffectKind string

const (
	EffectKindAmountOff            EffectKind = "AMOUNT_OFF"
	EffectKindFreeTrial            EffectKind = "FREE_TRIAL"
	EffectKindFirstMonthFree       EffectKind = "FIRST_MONTH_FREE"
	EffectKindFreeItem             EffectKind = "FREE_ITEM"
	EffectKindMembershipUpgrade    EffectKind = "MEMBERSHIP_UPGRADE"
	EffectKindPremiumFeatureAccess EffectKind = "PREMIUM_FEATURE_ACCESS"
	EffectKindCashback             EffectKind = "CASHBACK"
	EffectKindOther                EffectKind = "OTHER"
)
