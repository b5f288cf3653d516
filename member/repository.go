// Package member exposes the slice of member state the engine consumes: an
// atomically updated points balance and the paid-subscription count behind
// first_time_only eligibility.
package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.Member, error)

	// Debit subtracts points, refusing atomically when the balance is short.
	Debit(ctx context.Context, tx pgx.Tx, memberID uint64, points int64) error

	// Credit adds points back; the restoring half of a refund.
	Credit(ctx context.Context, tx pgx.Tx, memberID uint64, points int64) error

	PaidSubscriptionCount(ctx context.Context, tx pgx.Tx, memberID uint64) (int32, error)
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{conn: conn, logger: logger}
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.Member, error) {
	member := models.NewMember()
	err := tx.QueryRow(ctx, `
        SELECT id, points_balance, paid_subscriptions, COALESCE(plan_id, ''), created_at, updated_at
        FROM members WHERE id = @id`,
		pgx.NamedArgs{"id": id}).Scan(
		&member.ID, &member.PointsBalance, &member.PaidSubscriptions,
		&member.PlanID, &member.CreatedAt, &member.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

func (r *repository) Debit(ctx context.Context, tx pgx.Tx, memberID uint64, points int64) error {
	if points <= 0 {
		return errs.NewValidationError("points", "debit must be positive")
	}

	tag, err := tx.Exec(ctx, `
        UPDATE members
        SET points_balance = points_balance - @points, updated_at = NOW()
        WHERE id = @id AND points_balance >= @points`,
		pgx.NamedArgs{"id": memberID, "points": points})
	if err != nil {
		return fmt.Errorf("failed to debit member %d: %w", memberID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, tx, memberID); getErr != nil {
			return getErr
		}
		return errs.Violation(enum.RejectReasonInsufficientPoints)
	}
	return nil
}

func (r *repository) Credit(ctx context.Context, tx pgx.Tx, memberID uint64, points int64) error {
	if points <= 0 {
		return errs.NewValidationError("points", "credit must be positive")
	}

	tag, err := tx.Exec(ctx, `
        UPDATE members
        SET points_balance = points_balance + @points, updated_at = NOW()
        WHERE id = @id`,
		pgx.NamedArgs{"id": memberID, "points": points})
	if err != nil {
		return fmt.Errorf("failed to credit member %d: %w", memberID, err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) PaidSubscriptionCount(ctx context.Context, tx pgx.Tx, memberID uint64) (int32, error) {
	var count int32
	if err := tx.QueryRow(ctx,
		`SELECT paid_subscriptions FROM members WHERE id = @id`,
		pgx.NamedArgs{"id": memberID}).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get paid subscription count: %w", err)
	}
	return count, nil
}
