package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

func tp(t time.Time) *time.Time { return &t }

func i32(v int32) *int32 { return &v }

func TestDerivePriority(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		snap Snapshot
		want enum.DerivedStatus
	}{
		{"disabled wins over everything", Snapshot{Active: false, ValidUntil: tp(before), Cap: i32(0)}, enum.DerivedStatusDisabled},
		{"not started", Snapshot{Active: true, ValidFrom: tp(after)}, enum.DerivedStatusNotStarted},
		{"not started wins over expired window end", Snapshot{Active: true, ValidFrom: tp(after), ValidUntil: tp(before)}, enum.DerivedStatusNotStarted},
		{"expired", Snapshot{Active: true, ValidUntil: tp(before)}, enum.DerivedStatusExpired},
		{"expired wins over exhausted", Snapshot{Active: true, ValidUntil: tp(before), Count: 5, Cap: i32(5)}, enum.DerivedStatusExpired},
		{"exhausted at cap", Snapshot{Active: true, Count: 3, Cap: i32(3)}, enum.DerivedStatusExhausted},
		{"active below cap", Snapshot{Active: true, Count: 2, Cap: i32(3)}, enum.DerivedStatusActive},
		{"active open ended", Snapshot{Active: true}, enum.DerivedStatusActive},
		{"boundary valid_from now is started", Snapshot{Active: true, ValidFrom: tp(now)}, enum.DerivedStatusActive},
		{"boundary valid_until now not yet expired", Snapshot{Active: true, ValidUntil: tp(now)}, enum.DerivedStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Derive(tt.snap, now))
		})
	}
}

// Once a fixed record reads expired, no later clock may read it active again.
func TestDeriveMonotonicInTime(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{Active: true, ValidFrom: tp(base), ValidUntil: tp(base.Add(48 * time.Hour))}

	expiredSeen := false
	for h := 0; h < 24*7; h++ {
		got := Derive(snap, base.Add(time.Duration(h)*time.Hour))
		if expiredSeen {
			require.Equal(t, enum.DerivedStatusExpired, got, "hour %d reverted after expiry", h)
		}
		if got == enum.DerivedStatusExpired {
			expiredSeen = true
		}
	}
	require.True(t, expiredSeen)
}

func TestForRewardUsesTighterCap(t *testing.T) {
	rw := &models.Reward{IsActive: true, StockQuantity: i32(10), RedemptionLimit: i32(4), RedemptionCount: 4}
	require.Equal(t, enum.DerivedStatusExhausted, Derive(ForReward(rw), time.Now()))

	rw.RedemptionLimit = nil
	require.Equal(t, enum.DerivedStatusActive, Derive(ForReward(rw), time.Now()))
}

func TestForRedemptionLazyExpiry(t *testing.T) {
	now := time.Now()
	r := &models.RewardRedemption{Status: enum.RedemptionStatusActive, ExpiresAt: tp(now.Add(-time.Minute))}
	require.Equal(t, enum.RedemptionStatusExpired, ForRedemption(r, now))

	// Stored terminal states are not re-derived.
	r.Status = enum.RedemptionStatusUsed
	require.Equal(t, enum.RedemptionStatusUsed, ForRedemption(r, now))

	r.Status = enum.RedemptionStatusRefunded
	require.Equal(t, enum.RedemptionStatusRefunded, ForRedemption(r, now))

	r.Status = enum.RedemptionStatusActive
	r.ExpiresAt = tp(now.Add(time.Minute))
	require.Equal(t, enum.RedemptionStatusActive, ForRedemption(r, now))
}
