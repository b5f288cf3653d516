package enum

type RewardCategory string

const (
	RewardCategoryFitness    RewardCategory = "FITNESS"
	RewardCategoryMembership RewardCategory = "MEMBERSHIP"
	RewardCategoryMerch      RewardCategory = "MERCHANDISE"
	RewardCategoryNutrition  RewardCategory = "NUTRITION"
	RewardCategoryPartner    RewardCategory = "PARTNER"
	RewardCategoryOther      RewardCategory = "OTHER"
)
