// Package status derives the effective lifecycle state of a redeemable
// record from the record itself and an injected clock. The same derivation
// backs validation and display so the two can never disagree.
package status

import (
	"time"

	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

// Snapshot is the minimal view of a record the derivation needs.
type Snapshot struct {
	Active     bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	Count      int32
	Cap        *int32
}

// Derive computes the effective status by priority, first match wins:
// disabled, not-started, expired, exhausted, active.
func Derive(s Snapshot, now time.Time) enum.DerivedStatus {
	if !s.Active {
		return enum.DerivedStatusDisabled
	}
	if s.ValidFrom != nil && now.Before(*s.ValidFrom) {
		return enum.DerivedStatusNotStarted
	}
	if s.ValidUntil != nil && now.After(*s.ValidUntil) {
		return enum.DerivedStatusExpired
	}
	if s.Cap != nil && s.Count >= *s.Cap {
		return enum.DerivedStatusExhausted
	}
	return enum.DerivedStatusActive
}

// ForDiscountCode builds the snapshot for a discount code.
func ForDiscountCode(dc *models.DiscountCode) Snapshot {
	return Snapshot{
		Active:     dc.IsActive,
		ValidFrom:  dc.ValidFrom,
		ValidUntil: dc.ValidUntil,
		Count:      dc.UsageCount,
		Cap:        dc.UsageLimit,
	}
}

// ForReward builds the snapshot for a reward. The cap is the tighter of
// stock and redemption limit.
func ForReward(rw *models.Reward) Snapshot {
	return Snapshot{
		Active:     rw.IsActive,
		ValidFrom:  rw.ValidFrom,
		ValidUntil: rw.ValidUntil,
		Count:      rw.RedemptionCount,
		Cap:        rw.EffectiveCap(),
	}
}

// ForRedemption derives the time-consistent status of an issued redemption.
// Stored terminal states win; an ACTIVE redemption past its expires_at reads
// as EXPIRED even if no transition was ever persisted.
func ForRedemption(r *models.RewardRedemption, now time.Time) enum.RedemptionStatus {
	if r.Lapsed(now) {
		return enum.RedemptionStatusExpired
	}
	return r.Status
}
