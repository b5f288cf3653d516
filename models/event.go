package models

import (
	"time"

	"goflare.io/redemption/models/enum"
)

// TransitionEvent records one lifecycle transition of a redemption or one
// ledger movement of a discount code. Observers (audit, notifications)
// consume these asynchronously; the engine only appends them.
type TransitionEvent struct {
	ID           uint64                `json:"id"`
	RedemptionID *uint64               `json:"redemption_id,omitempty"`
	UsageID      *uint64               `json:"usage_id,omitempty"`
	FromStatus   enum.RedemptionStatus `json:"from_status,omitempty"`
	ToStatus     enum.RedemptionStatus `json:"to_status,omitempty"`
	Reason       string                `json:"reason,omitempty"`
	Processed    bool                  `json:"processed"`
	CreatedAt    time.Time             `json:"created_at"`
}
