package enum

type DiscountType string

const (
	DiscountTypePercentage     DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount    DiscountType = "FIXED_AMOUNT"
	DiscountTypeFreeTrial      DiscountType = "FREE_TRIAL"
	DiscountTypeFirstMonthFree DiscountType = "FIRST_MONTH_FREE"
)

func (t DiscountType) IsMonetary() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixedAmount
}
