package enum

type RewardType string

const (
	RewardTypePercentage           RewardType = "PERCENTAGE"
	RewardTypeFixedAmount          RewardType = "FIXED_AMOUNT"
	RewardTypeFreeTrial            RewardType = "FREE_TRIAL"
	RewardTypeFirstMonthFree       RewardType = "FIRST_MONTH_FREE"
	RewardTypeFreeItem             RewardType = "FREE_ITEM"
	RewardTypeMembershipUpgrade    RewardType = "MEMBERSHIP_UPGRADE"
	RewardTypePremiumFeatureAccess RewardType = "PREMIUM_FEATURE_ACCESS"
	RewardTypeCashback             RewardType = "CASHBACK"
	RewardTypeOther                RewardType = "OTHER"
)

func (t RewardType) IsMonetary() bool {
	return t == RewardTypePercentage || t == RewardTypeFixedAmount || t == RewardTypeCashback
}
