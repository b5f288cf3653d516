package models

import "time"

// Member carries the slice of member state the engine needs: the points
// balance and how many paid subscriptions the member has completed (the
// first_time_only eligibility input). Profile data lives elsewhere.
type Member struct {
	ID                uint64    `json:"id"`
	PointsBalance     int64     `json:"points_balance"`
	PaidSubscriptions int32     `json:"paid_subscriptions"`
	PlanID            string    `json:"plan_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewMember() *Member {
	return &Member{}
}
