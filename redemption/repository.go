package redemption

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/ignite"

	"goflare.io/redemption/codec"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, r *models.RewardRedemption) error
	GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.RewardRedemption, error)
	// GetByIDForUpdate row-locks the redemption for the duration of the
	// transaction so concurrent transitions serialize.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*models.RewardRedemption, error)
	GetByCode(ctx context.Context, tx pgx.Tx, code string) (*models.RewardRedemption, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Transition moves status conditionally on the current value; false means
	// the row was no longer in the expected state.
	Transition(ctx context.Context, tx pgx.Tx, id uint64, from, to enum.RedemptionStatus, usedAt *time.Time, notes string) (bool, error)

	List(ctx context.Context, tx pgx.Tx, filter ListFilter) ([]*models.RewardRedemption, error)

	// ExpireLapsed bulk-persists derived expiry for ACTIVE rows past their
	// window and returns the affected ids.
	ExpireLapsed(ctx context.Context, tx pgx.Tx, now time.Time) ([]uint64, error)
}

type ListFilter struct {
	MemberID uint64
	RewardID uint64
	Status   enum.RedemptionStatus
	Limit    uint64
	Offset   uint64
}

const columns = `id, member_id, reward_id, points_spent, code, status, redeemed_at,
       expires_at, used_at, COALESCE(notes, ''), created_at, updated_at`

type repository struct {
	conn        driver.PostgresPool
	logger      *zap.Logger
	poolManager ignite.Manager
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, poolManager ignite.Manager) (Repository, error) {
	if err := poolManager.RegisterPool(reflect.TypeOf(&models.RewardRedemption{}), ignite.Config[any]{
		InitialSize: 10,
		MaxSize:     100,
		MaxIdleTime: 10 * time.Minute,
		Factory: func() (any, error) {
			return models.NewRewardRedemption(), nil
		},
		Reset: func(obj any) error {
			r := obj.(*models.RewardRedemption)
			*r = models.RewardRedemption{}
			return nil
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register redemption pool: %w", err)
	}

	return &repository{conn: conn, logger: logger, poolManager: poolManager}, nil
}

func (rp *repository) getFromPool(ctx context.Context) (*models.RewardRedemption, func(), error) {
	pool, err := rp.poolManager.GetPool(reflect.TypeOf(&models.RewardRedemption{}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pool: %w", err)
	}

	objWrapper, err := pool.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object from pool: %w", err)
	}

	r := objWrapper.Object.(*models.RewardRedemption)
	release := func() {
		pool.Put(objWrapper)
	}
	return r, release, nil
}

func scanRedemption(row pgx.Row, r *models.RewardRedemption) error {
	return row.Scan(
		&r.ID, &r.MemberID, &r.RewardID, &r.PointsSpent, &r.Code, &r.Status,
		&r.RedeemedAt, &r.ExpiresAt, &r.UsedAt, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
}

func (rp *repository) Create(ctx context.Context, tx pgx.Tx, r *models.RewardRedemption) error {
	if err := tx.QueryRow(ctx, `
        INSERT INTO reward_redemptions (member_id, reward_id, points_spent, code, status, redeemed_at, expires_at, notes)
        VALUES (@member_id, @reward_id, @points_spent, @code, @status, @redeemed_at, @expires_at, @notes)
        RETURNING id, created_at, updated_at`,
		pgx.NamedArgs{
			"member_id":    r.MemberID,
			"reward_id":    r.RewardID,
			"points_spent": r.PointsSpent,
			"code":         r.Code,
			"status":       r.Status,
			"redeemed_at":  r.RedeemedAt,
			"expires_at":   r.ExpiresAt,
			"notes":        r.Notes,
		}).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create redemption: %w", err)
	}
	return nil
}

func (rp *repository) get(ctx context.Context, tx pgx.Tx, query string, args pgx.NamedArgs) (*models.RewardRedemption, error) {
	r, release, err := rp.getFromPool(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = scanRedemption(tx.QueryRow(ctx, query, args), r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	result := *r
	return &result, nil
}

func (rp *repository) GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.RewardRedemption, error) {
	return rp.get(ctx, tx,
		`SELECT `+columns+` FROM reward_redemptions WHERE id = @id`,
		pgx.NamedArgs{"id": id})
}

func (rp *repository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*models.RewardRedemption, error) {
	return rp.get(ctx, tx,
		`SELECT `+columns+` FROM reward_redemptions WHERE id = @id FOR UPDATE`,
		pgx.NamedArgs{"id": id})
}

func (rp *repository) GetByCode(ctx context.Context, tx pgx.Tx, code string) (*models.RewardRedemption, error) {
	return rp.get(ctx, tx,
		`SELECT `+columns+` FROM reward_redemptions WHERE code = @code`,
		pgx.NamedArgs{"code": codec.Normalize(code)})
}

func (rp *repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := rp.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reward_redemptions WHERE code = @code)`,
		pgx.NamedArgs{"code": codec.Normalize(code)}).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check redemption code existence: %w", err)
	}
	return exists, nil
}

func (rp *repository) Transition(ctx context.Context, tx pgx.Tx, id uint64, from, to enum.RedemptionStatus, usedAt *time.Time, notes string) (bool, error) {
	tag, err := tx.Exec(ctx, `
        UPDATE reward_redemptions
        SET status = @to, used_at = COALESCE(@used_at, used_at),
            notes = CASE WHEN @notes = '' THEN notes ELSE @notes END,
            updated_at = NOW()
        WHERE id = @id AND status = @from`,
		pgx.NamedArgs{"id": id, "from": from, "to": to, "used_at": usedAt, "notes": notes})
	if err != nil {
		return false, fmt.Errorf("failed to transition redemption %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (rp *repository) List(ctx context.Context, tx pgx.Tx, filter ListFilter) ([]*models.RewardRedemption, error) {
	rows, err := tx.Query(ctx, `
        SELECT `+columns+` FROM reward_redemptions
        WHERE (@member_id = 0 OR member_id = @member_id)
          AND (@reward_id = 0 OR reward_id = @reward_id)
          AND (@status = '' OR status = @status)
        ORDER BY redeemed_at DESC
        LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{
			"member_id": filter.MemberID,
			"reward_id": filter.RewardID,
			"status":    filter.Status,
			"limit":     filter.Limit,
			"offset":    filter.Offset,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []*models.RewardRedemption
	for rows.Next() {
		r := models.NewRewardRedemption()
		if err = scanRedemption(rows, r); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, r)
	}
	return redemptions, rows.Err()
}

func (rp *repository) ExpireLapsed(ctx context.Context, tx pgx.Tx, now time.Time) ([]uint64, error) {
	rows, err := tx.Query(ctx, `
        UPDATE reward_redemptions
        SET status = @expired, updated_at = NOW()
        WHERE status = @active AND expires_at IS NOT NULL AND expires_at < @now
        RETURNING id`,
		pgx.NamedArgs{
			"expired": enum.RedemptionStatusExpired,
			"active":  enum.RedemptionStatusActive,
			"now":     now,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to expire lapsed redemptions: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired redemption id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
