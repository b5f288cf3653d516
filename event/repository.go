// Package event records lifecycle transitions and fans them out to
// observers. The engine appends events inside the same transaction as the
// transition; delivery is asynchronous and never blocks a redemption.
package event

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
	Create(ctx context.Context, tx pgx.Tx, event *models.TransitionEvent) error
	GetByID(ctx context.Context, id uint64) (*models.TransitionEvent, error)
	ListUnprocessed(ctx context.Context, limit uint64) ([]*models.TransitionEvent, error)
	MarkAsProcessed(ctx context.Context, id uint64) error
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{conn: conn, logger: logger}
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, event *models.TransitionEvent) error {
	if err := tx.QueryRow(ctx, `
        INSERT INTO transition_events (redemption_id, usage_id, from_status, to_status, reason)
        VALUES (@redemption_id, @usage_id, @from_status, @to_status, @reason)
        RETURNING id, created_at`,
		pgx.NamedArgs{
			"redemption_id": event.RedemptionID,
			"usage_id":      event.UsageID,
			"from_status":   event.FromStatus,
			"to_status":     event.ToStatus,
			"reason":        event.Reason,
		}).Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("failed to create transition event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint64) (*models.TransitionEvent, error) {
	event := &models.TransitionEvent{}
	err := r.conn.QueryRow(ctx, `
        SELECT id, redemption_id, usage_id, COALESCE(from_status, ''), COALESCE(to_status, ''),
               COALESCE(reason, ''), processed, created_at
        FROM transition_events WHERE id = @id`,
		pgx.NamedArgs{"id": id}).Scan(
		&event.ID, &event.RedemptionID, &event.UsageID, &event.FromStatus,
		&event.ToStatus, &event.Reason, &event.Processed, &event.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transition event: %w", err)
	}
	return event, nil
}

func (r *repository) ListUnprocessed(ctx context.Context, limit uint64) ([]*models.TransitionEvent, error) {
	rows, err := r.conn.Query(ctx, `
        SELECT id, redemption_id, usage_id, COALESCE(from_status, ''), COALESCE(to_status, ''),
               COALESCE(reason, ''), processed, created_at
        FROM transition_events
        WHERE NOT processed
        ORDER BY created_at
        LIMIT @limit`,
		pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*models.TransitionEvent
	for rows.Next() {
		event := &models.TransitionEvent{}
		if err = rows.Scan(
			&event.ID, &event.RedemptionID, &event.UsageID, &event.FromStatus,
			&event.ToStatus, &event.Reason, &event.Processed, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *repository) MarkAsProcessed(ctx context.Context, id uint64) error {
	if _, err := r.conn.Exec(ctx,
		`UPDATE transition_events SET processed = TRUE WHERE id = @id`,
		pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("failed to mark event %d as processed: %w", id, err)
	}
	return nil
}
