package effect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

func i64(v int64) *int64 { return &v }

func i32(v int32) *int32 { return &v }

func TestPercentageCappedByMaxDiscount(t *testing.T) {
	dc := &models.DiscountCode{
		Type:          enum.DiscountTypePercentage,
		PercentOffBps: 2000, // 20%
		MaxDiscount:   i64(50000),
	}

	eff, err := ForDiscountCode(dc, 500000)
	require.NoError(t, err)
	require.Equal(t, enum.EffectKindAmountOff, eff.Kind)
	require.Equal(t, int64(50000), eff.AmountOff, "20%% of 500000 is 100000, capped at 50000")

	// Below the cap the raw percentage applies.
	eff, err = ForDiscountCode(dc, 100000)
	require.NoError(t, err)
	require.Equal(t, int64(20000), eff.AmountOff)
}

func TestFixedAmountNeverExceedsAmount(t *testing.T) {
	dc := &models.DiscountCode{Type: enum.DiscountTypeFixedAmount, AmountOff: 30000}

	eff, err := ForDiscountCode(dc, 10000)
	require.NoError(t, err)
	require.Equal(t, int64(10000), eff.AmountOff)

	eff, err = ForDiscountCode(dc, 100000)
	require.NoError(t, err)
	require.Equal(t, int64(30000), eff.AmountOff)
}

func TestCategoricalTypesReturnDescriptorNotZero(t *testing.T) {
	for dt, kind := range map[enum.DiscountType]enum.EffectKind{
		enum.DiscountTypeFreeTrial:      enum.EffectKindFreeTrial,
		enum.DiscountTypeFirstMonthFree: enum.EffectKindFirstMonthFree,
	} {
		eff, err := ForDiscountCode(&models.DiscountCode{Type: dt}, 500000)
		require.NoError(t, err)
		require.Equal(t, kind, eff.Kind)
		require.False(t, eff.Monetary())
	}
}

func TestNegativeAmountRejected(t *testing.T) {
	_, err := ForDiscountCode(&models.DiscountCode{Type: enum.DiscountTypePercentage, PercentOffBps: 1000}, -1)
	require.Error(t, err)
}

func TestPercentageIsIntegerExact(t *testing.T) {
	// 12.5% of 99999 floors to 12499; repeated computation must not drift.
	dc := &models.DiscountCode{Type: enum.DiscountTypePercentage, PercentOffBps: 1250}
	for i := 0; i < 1000; i++ {
		eff, err := ForDiscountCode(dc, 99999)
		require.NoError(t, err)
		require.Equal(t, int64(12499), eff.AmountOff)
	}
}

func TestRewardMonetaryBranches(t *testing.T) {
	eff, err := ForReward(&models.Reward{Type: enum.RewardTypePercentage, PercentOffBps: i32(5000)}, 40000)
	require.NoError(t, err)
	require.Equal(t, int64(20000), eff.AmountOff)

	eff, err = ForReward(&models.Reward{Type: enum.RewardTypeFixedAmount, AmountOff: i64(15000)}, 10000)
	require.NoError(t, err)
	require.Equal(t, int64(10000), eff.AmountOff)

	eff, err = ForReward(&models.Reward{Type: enum.RewardTypeCashback, AmountOff: i64(5000)}, 0)
	require.NoError(t, err)
	require.Equal(t, enum.EffectKindCashback, eff.Kind)
	require.Equal(t, int64(5000), eff.AmountOff)

	eff, err = ForReward(&models.Reward{Type: enum.RewardTypeFreeItem}, 0)
	require.NoError(t, err)
	require.Equal(t, enum.EffectKindFreeItem, eff.Kind)
}

func TestRewardMissingMagnitudeRejected(t *testing.T) {
	_, err := ForReward(&models.Reward{Type: enum.RewardTypePercentage}, 1000)
	require.Error(t, err)

	_, err = ForReward(&models.Reward{Type: enum.RewardTypeFixedAmount}, 1000)
	require.Error(t, err)
}
