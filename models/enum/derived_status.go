package enum

// DerivedStatus is the effective lifecycle state of a redeemable record at a
// point in time. It is never stored for discount codes and rewards; it is
// recomputed from the record and the clock on every read.
type DerivedStatus string

const (
	DerivedStatusDisabled   DerivedStatus = "DISABLED"
	DerivedStatusNotStarted DerivedStatus = "NOT_STARTED"
	DerivedStatusExpired    DerivedStatus = "EXPIRED"
	DerivedStatusExhausted  DerivedStatus = "EXHAUSTED"
	DerivedStatusActive     DerivedStatus = "ACTIVE"
	DerivedStatusUsed       DerivedStatus = "USED"
	DerivedStatusRefunded   DerivedStatus = "REFUNDED"
	DerivedStatusCancelled  DerivedStatus = "CANCELLED"
	DerivedStatusPending    DerivedStatus = "PENDING"
)
