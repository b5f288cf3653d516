package enum

// RejectReason identifies the exact constraint that blocked a redemption so
// callers can render cause-specific messaging.
type RejectReason string

const (
	RejectReasonDisabled           RejectReason = "DISABLED"
	RejectReasonNotStarted         RejectReason = "NOT_STARTED"
	RejectReasonExpired            RejectReason = "EXPIRED"
	RejectReasonExhausted          RejectReason = "EXHAUSTED"
	RejectReasonMinimumAmount      RejectReason = "MINIMUM_AMOUNT_NOT_MET"
	RejectReasonFirstTimeOnly      RejectReason = "FIRST_TIME_ONLY"
	RejectReasonMemberLimitReached RejectReason = "MEMBER_LIMIT_REACHED"
	RejectReasonPlanNotEligible    RejectReason = "PLAN_NOT_ELIGIBLE"
	RejectReasonInsufficientPoints RejectReason = "INSUFFICIENT_POINTS"
	RejectReasonOutOfStock         RejectReason = "OUT_OF_STOCK"
	RejectReasonAlreadyUsed        RejectReason = "ALREADY_USED"
	RejectReasonRefunded           RejectReason = "REFUNDED"
	RejectReasonCancelled          RejectReason = "CANCELLED"
	RejectReasonNotYetActive       RejectReason = "NOT_YET_ACTIVE"
)

// FromDerivedStatus maps a non-active derived status to its rejection reason.
func FromDerivedStatus(s DerivedStatus) RejectReason {
	switch s {
	case DerivedStatusDisabled:
		return RejectReasonDisabled
	case DerivedStatusNotStarted:
		return RejectReasonNotStarted
	case DerivedStatusExpired:
		return RejectReasonExpired
	case DerivedStatusExhausted:
		return RejectReasonExhausted
	case DerivedStatusUsed:
		return RejectReasonAlreadyUsed
	case DerivedStatusRefunded:
		return RejectReasonRefunded
	case DerivedStatusCancelled:
		return RejectReasonCancelled
	case DerivedStatusPending:
		return RejectReasonNotYetActive
	}
	return RejectReason(s)
}
