package enum

type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "PENDING"
	RedemptionStatusActive    RedemptionStatus = "ACTIVE"
	RedemptionStatusUsed      RedemptionStatus = "USED"
	RedemptionStatusExpired   RedemptionStatus = "EXPIRED"
	RedemptionStatusCancelled RedemptionStatus = "CANCELLED"
	RedemptionStatusRefunded  RedemptionStatus = "REFUNDED"
)

// Terminal reports whether no further transition may leave the status.
func (s RedemptionStatus) Terminal() bool {
	switch s {
	case RedemptionStatusUsed, RedemptionStatusExpired, RedemptionStatusCancelled, RedemptionStatusRefunded:
		return true
	}
	return false
}
