// Package validate decides whether a candidate redemption is acceptable.
// Both discount codes and rewards funnel through the same ordered check
// sequence over a shared Rules view, so the two variants cannot drift apart.
package validate

import (
	"slices"
	"time"

	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/status"
)

// Rules is the constraint surface of a redeemable entity.
type Rules struct {
	Snapshot        status.Snapshot
	MinimumAmount   *int64
	FirstTimeOnly   bool
	PerMemberLimit  *int32
	ApplicablePlans []string

	// Reward-only fields; zero values disable the checks.
	PointsCost     int64
	StockQuantity  *int32
	StockRedeemed  int32
}

// Request is the candidate side of the decision.
type Request struct {
	Amount            int64
	PlanID            string
	MemberUsageCount  int32
	PaidSubscriptions int32
	PointsBalance     int64
	Now               time.Time
}

// Check runs the constraint sequence, short-circuiting on the first failure.
// A nil return means accept; otherwise the error is a *errs.ConstraintViolation
// carrying the exact reason.
func Check(r Rules, req Request) error {
	if st := status.Derive(r.Snapshot, req.Now); st != enum.DerivedStatusActive {
		return errs.Violation(enum.FromDerivedStatus(st))
	}
	if r.MinimumAmount != nil && req.Amount < *r.MinimumAmount {
		return errs.Violation(enum.RejectReasonMinimumAmount)
	}
	if r.FirstTimeOnly && req.PaidSubscriptions > 0 {
		return errs.Violation(enum.RejectReasonFirstTimeOnly)
	}
	if r.PerMemberLimit != nil && req.MemberUsageCount >= *r.PerMemberLimit {
		return errs.Violation(enum.RejectReasonMemberLimitReached)
	}
	if len(r.ApplicablePlans) > 0 && !slices.Contains(r.ApplicablePlans, req.PlanID) {
		return errs.Violation(enum.RejectReasonPlanNotEligible)
	}
	if r.PointsCost > 0 && req.PointsBalance < r.PointsCost {
		return errs.Violation(enum.RejectReasonInsufficientPoints)
	}
	if r.StockQuantity != nil && *r.StockQuantity-r.StockRedeemed <= 0 {
		return errs.Violation(enum.RejectReasonOutOfStock)
	}
	return nil
}

// ForDiscountCode builds the rules view of a discount code.
func ForDiscountCode(dc *models.DiscountCode) Rules {
	return Rules{
		Snapshot:        status.ForDiscountCode(dc),
		MinimumAmount:   dc.MinimumAmount,
		FirstTimeOnly:   dc.FirstTimeOnly,
		PerMemberLimit:  dc.UsageLimitPerMember,
		ApplicablePlans: dc.ApplicablePlans,
	}
}

// ForReward builds the rules view of a reward.
func ForReward(rw *models.Reward) Rules {
	return Rules{
		Snapshot:      status.ForReward(rw),
		PointsCost:    rw.PointsCost,
		StockQuantity: rw.StockQuantity,
		StockRedeemed: rw.RedemptionCount,
	}
}
