// Package ledger is the append-only record of discount-code consumption.
// Entries are immutable; reversal is a compensating flag, never a delete, and
// the denormalized usage_count on the parent code moves in the same
// transaction as the ledger write.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	// Record appends a usage entry and increments the parent code's
	// usage_count, refusing atomically when the global cap is already
	// reached. Returns errs.ErrConflict when the conditional increment loses.
	Record(ctx context.Context, tx pgx.Tx, usage *models.DiscountUsage) error

	// CountForMember counts non-reversed entries of one member for one code.
	CountForMember(ctx context.Context, tx pgx.Tx, codeID, memberID uint64) (int32, error)

	// Reverse marks an entry reversed and decrements the parent counter.
	// Reversing twice is a no-op reported as false; the counter never goes
	// below zero.
	Reverse(ctx context.Context, tx pgx.Tx, entryID uint64, reason string) (bool, error)

	GetByID(ctx context.Context, tx pgx.Tx, entryID uint64) (*models.DiscountUsage, error)
	ListByCode(ctx context.Context, tx pgx.Tx, codeID uint64, limit, offset uint64) ([]*models.DiscountUsage, error)
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{conn: conn, logger: logger}
}

func (r *repository) Record(ctx context.Context, tx pgx.Tx, usage *models.DiscountUsage) error {
	// The check and the increment are one statement; two racing redemptions
	// of a usage_limit=1 code cannot both pass.
	tag, err := tx.Exec(ctx, `
        UPDATE discount_codes
        SET usage_count = usage_count + 1, updated_at = NOW()
        WHERE id = @id AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		pgx.NamedArgs{"id": usage.DiscountCodeID})
	if err != nil {
		return fmt.Errorf("failed to increment usage count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrConflict
	}

	if err = tx.QueryRow(ctx, `
        INSERT INTO discount_usages (discount_code_id, member_id, amount_discounted, currency, subscription_id, used_at)
        VALUES (@discount_code_id, @member_id, @amount_discounted, @currency, @subscription_id, @used_at)
        RETURNING id`,
		pgx.NamedArgs{
			"discount_code_id":  usage.DiscountCodeID,
			"member_id":         usage.MemberID,
			"amount_discounted": usage.AmountDiscounted,
			"currency":          usage.Currency,
			"subscription_id":   usage.SubscriptionID,
			"used_at":           usage.UsedAt,
		}).Scan(&usage.ID); err != nil {
		return fmt.Errorf("failed to insert usage entry: %w", err)
	}

	return nil
}

func (r *repository) CountForMember(ctx context.Context, tx pgx.Tx, codeID, memberID uint64) (int32, error) {
	var count int32
	if err := tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM discount_usages
        WHERE discount_code_id = @code_id AND member_id = @member_id AND NOT reversed`,
		pgx.NamedArgs{"code_id": codeID, "member_id": memberID}).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count member usage: %w", err)
	}
	return count, nil
}

func (r *repository) Reverse(ctx context.Context, tx pgx.Tx, entryID uint64, reason string) (bool, error) {
	var codeID uint64
	err := tx.QueryRow(ctx, `
        UPDATE discount_usages
        SET reversed = TRUE, reversed_at = NOW(), reversal_reason = @reason
        WHERE id = @id AND NOT reversed
        RETURNING discount_code_id`,
		pgx.NamedArgs{"id": entryID, "reason": reason}).Scan(&codeID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already reversed or absent; distinguish so a double reversal stays
		// a no-op instead of a second decrement.
		entry, getErr := r.GetByID(ctx, tx, entryID)
		if getErr != nil {
			return false, getErr
		}
		if entry.Reversed {
			r.logger.Debug("usage entry already reversed", zap.Uint64("entry_id", entryID))
			return false, nil
		}
		return false, fmt.Errorf("failed to reverse usage entry %d: %w", entryID, errs.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to reverse usage entry: %w", err)
	}

	if _, err = tx.Exec(ctx, `
        UPDATE discount_codes
        SET usage_count = usage_count - 1, updated_at = NOW()
        WHERE id = @id AND usage_count > 0`,
		pgx.NamedArgs{"id": codeID}); err != nil {
		return false, fmt.Errorf("failed to decrement usage count: %w", err)
	}

	return true, nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, entryID uint64) (*models.DiscountUsage, error) {
	usage := models.NewDiscountUsage()
	err := tx.QueryRow(ctx, `
        SELECT id, discount_code_id, member_id, amount_discounted, currency, subscription_id,
               used_at, reversed, reversed_at, COALESCE(reversal_reason, '')
        FROM discount_usages WHERE id = @id`,
		pgx.NamedArgs{"id": entryID}).Scan(
		&usage.ID, &usage.DiscountCodeID, &usage.MemberID, &usage.AmountDiscounted,
		&usage.Currency, &usage.SubscriptionID, &usage.UsedAt, &usage.Reversed,
		&usage.ReversedAt, &usage.ReversalReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage entry: %w", err)
	}
	return usage, nil
}

func (r *repository) ListByCode(ctx context.Context, tx pgx.Tx, codeID uint64, limit, offset uint64) ([]*models.DiscountUsage, error) {
	rows, err := tx.Query(ctx, `
        SELECT id, discount_code_id, member_id, amount_discounted, currency, subscription_id,
               used_at, reversed, reversed_at, COALESCE(reversal_reason, '')
        FROM discount_usages
        WHERE discount_code_id = @code_id
        ORDER BY used_at DESC
        LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{"code_id": codeID, "limit": limit, "offset": offset})
	if err != nil {
		return nil, fmt.Errorf("failed to list usage entries: %w", err)
	}
	defer rows.Close()

	var usages []*models.DiscountUsage
	for rows.Next() {
		usage := models.NewDiscountUsage()
		if err = rows.Scan(
			&usage.ID, &usage.DiscountCodeID, &usage.MemberID, &usage.AmountDiscounted,
			&usage.Currency, &usage.SubscriptionID, &usage.UsedAt, &usage.Reversed,
			&usage.ReversedAt, &usage.ReversalReason); err != nil {
			return nil, fmt.Errorf("failed to scan usage entry: %w", err)
		}
		usages = append(usages, usage)
	}
	return usages, rows.Err()
}
