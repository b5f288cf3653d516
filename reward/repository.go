package reward

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/ember"
	"goflare.io/ignite"

	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, rw *models.Reward) error
	GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.Reward, error)
	Update(ctx context.Context, tx pgx.Tx, rw *models.PartialReward) error
	// Delete hard-deletes a reward, refusing while redemptions reference it.
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	List(ctx context.Context, tx pgx.Tx, filter ListFilter) ([]*models.Reward, error)

	// IncrementRedemptions is the atomic check-and-increment gate: it
	// advances redemption_count only while below both stock and redemption
	// limit, returning errs.ErrConflict when the cap was reached.
	IncrementRedemptions(ctx context.Context, tx pgx.Tx, id uint64) error

	// DecrementRedemptions frees one slot (refund/cancel), never below zero.
	DecrementRedemptions(ctx context.Context, tx pgx.Tx, id uint64) error
}

type ListFilter struct {
	Search      string
	Category    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       uint64
	Offset      uint64
}

const columns = `id, title, COALESCE(description, ''), category, points_cost, reward_type,
       percent_off_bps, amount_off, stock_quantity, redemption_limit, redemption_count,
       valid_from, valid_until, validity_days, is_active, created_at, updated_at`

type repository struct {
	conn        driver.PostgresPool
	logger      *zap.Logger
	cache       *ember.MultiCache
	poolManager ignite.Manager
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, cache *ember.MultiCache, poolManager ignite.Manager) (Repository, error) {
	if err := poolManager.RegisterPool(reflect.TypeOf(&models.Reward{}), ignite.Config[any]{
		InitialSize: 10,
		MaxSize:     100,
		MaxIdleTime: 10 * time.Minute,
		Factory: func() (any, error) {
			return models.NewReward(), nil
		},
		Reset: func(obj any) error {
			rw := obj.(*models.Reward)
			*rw = models.Reward{}
			return nil
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register reward pool: %w", err)
	}

	return &repository{
		conn:        conn,
		logger:      logger,
		cache:       cache,
		poolManager: poolManager,
	}, nil
}

func cacheKey(id uint64) string {
	return fmt.Sprintf("reward:%d", id)
}

func (r *repository) getFromPool(ctx context.Context) (*models.Reward, func(), error) {
	pool, err := r.poolManager.GetPool(reflect.TypeOf(&models.Reward{}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pool: %w", err)
	}

	objWrapper, err := pool.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object from pool: %w", err)
	}

	rw := objWrapper.Object.(*models.Reward)
	release := func() {
		pool.Put(objWrapper)
	}
	return rw, release, nil
}

func scanReward(row pgx.Row, rw *models.Reward) error {
	return row.Scan(
		&rw.ID, &rw.Title, &rw.Description, &rw.Category, &rw.PointsCost, &rw.Type,
		&rw.PercentOffBps, &rw.AmountOff, &rw.StockQuantity, &rw.RedemptionLimit,
		&rw.RedemptionCount, &rw.ValidFrom, &rw.ValidUntil, &rw.ValidityDays,
		&rw.IsActive, &rw.CreatedAt, &rw.UpdatedAt)
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, rw *models.Reward) error {
	err := tx.QueryRow(ctx, `
        INSERT INTO rewards (title, description, category, points_cost, reward_type, percent_off_bps,
            amount_off, stock_quantity, redemption_limit, valid_from, valid_until, validity_days, is_active)
        VALUES (@title, @description, @category, @points_cost, @reward_type, @percent_off_bps,
            @amount_off, @stock_quantity, @redemption_limit, @valid_from, @valid_until, @validity_days, @is_active)
        RETURNING id, redemption_count, created_at, updated_at`,
		pgx.NamedArgs{
			"title":            rw.Title,
			"description":      rw.Description,
			"category":         rw.Category,
			"points_cost":      rw.PointsCost,
			"reward_type":      rw.Type,
			"percent_off_bps":  rw.PercentOffBps,
			"amount_off":       rw.AmountOff,
			"stock_quantity":   rw.StockQuantity,
			"redemption_limit": rw.RedemptionLimit,
			"valid_from":       rw.ValidFrom,
			"valid_until":      rw.ValidUntil,
			"validity_days":    rw.ValidityDays,
			"is_active":        rw.IsActive,
		}).Scan(&rw.ID, &rw.RedemptionCount, &rw.CreatedAt, &rw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}

	if err = r.cache.Set(ctx, cacheKey(rw.ID), rw); err != nil {
		r.logger.Warn("failed to cache reward", zap.Error(err), zap.Uint64("id", rw.ID))
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.Reward, error) {
	rw, release, err := r.getFromPool(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	found, err := r.cache.Get(ctx, cacheKey(id), rw)
	if err != nil {
		r.logger.Warn("failed to get reward from cache", zap.Error(err), zap.Uint64("id", id))
	} else if found {
		result := *rw
		return &result, nil
	}

	result := models.NewReward()
	err = scanReward(tx.QueryRow(ctx,
		`SELECT `+columns+` FROM rewards WHERE id = @id`,
		pgx.NamedArgs{"id": id}), result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	if err = r.cache.Set(ctx, cacheKey(id), result); err != nil {
		r.logger.Warn("failed to cache reward", zap.Error(err), zap.Uint64("id", id))
	}
	return result, nil
}

func (r *repository) Update(ctx context.Context, tx pgx.Tx, rw *models.PartialReward) error {
	tag, err := tx.Exec(ctx, `
        UPDATE rewards SET
            title = COALESCE(@title, title),
            description = COALESCE(@description, description),
            category = COALESCE(@category, category),
            points_cost = COALESCE(@points_cost, points_cost),
            reward_type = COALESCE(@reward_type, reward_type),
            percent_off_bps = COALESCE(@percent_off_bps, percent_off_bps),
            amount_off = COALESCE(@amount_off, amount_off),
            stock_quantity = COALESCE(@stock_quantity, stock_quantity),
            redemption_limit = COALESCE(@redemption_limit, redemption_limit),
            valid_from = COALESCE(@valid_from, valid_from),
            valid_until = COALESCE(@valid_until, valid_until),
            validity_days = COALESCE(@validity_days, validity_days),
            is_active = COALESCE(@is_active, is_active),
            updated_at = NOW()
        WHERE id = @id`,
		pgx.NamedArgs{
			"id":               rw.ID,
			"title":            rw.Title,
			"description":      rw.Description,
			"category":         rw.Category,
			"points_cost":      rw.PointsCost,
			"reward_type":      rw.Type,
			"percent_off_bps":  rw.PercentOffBps,
			"amount_off":       rw.AmountOff,
			"stock_quantity":   rw.StockQuantity,
			"redemption_limit": rw.RedemptionLimit,
			"valid_from":       rw.ValidFrom,
			"valid_until":      rw.ValidUntil,
			"validity_days":    rw.ValidityDays,
			"is_active":        rw.IsActive,
		})
	if err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	r.refreshCache(ctx, tx, rw.ID)
	return nil
}

func (r *repository) refreshCache(ctx context.Context, tx pgx.Tx, id uint64) {
	rw := models.NewReward()
	if err := scanReward(tx.QueryRow(ctx,
		`SELECT `+columns+` FROM rewards WHERE id = @id`,
		pgx.NamedArgs{"id": id}), rw); err != nil {
		r.logger.Warn("failed to refresh reward cache", zap.Error(err), zap.Uint64("id", id))
		return
	}
	if err := r.cache.Set(ctx, cacheKey(id), rw); err != nil {
		r.logger.Warn("failed to cache reward", zap.Error(err), zap.Uint64("id", id))
	}
}

func (r *repository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	var referenced bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reward_redemptions WHERE reward_id = @id)`,
		pgx.NamedArgs{"id": id}).Scan(&referenced); err != nil {
		return fmt.Errorf("failed to check reward references: %w", err)
	}
	if referenced {
		return fmt.Errorf("reward %d has redemptions: %w", id, errs.ErrConflict)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM rewards WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, tx pgx.Tx, filter ListFilter) ([]*models.Reward, error) {
	rows, err := tx.Query(ctx, `
        SELECT `+columns+` FROM rewards
        WHERE (@search = '' OR title ILIKE '%' || @search || '%')
          AND (@category = '' OR category = @category)
          AND (@created_from::timestamptz IS NULL OR created_at >= @created_from)
          AND (@created_to::timestamptz IS NULL OR created_at <= @created_to)
        ORDER BY created_at DESC
        LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{
			"search":       filter.Search,
			"category":     filter.Category,
			"created_from": filter.CreatedFrom,
			"created_to":   filter.CreatedTo,
			"limit":        filter.Limit,
			"offset":       filter.Offset,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*models.Reward
	for rows.Next() {
		rw := models.NewReward()
		if err = scanReward(rows, rw); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

func (r *repository) IncrementRedemptions(ctx context.Context, tx pgx.Tx, id uint64) error {
	tag, err := tx.Exec(ctx, `
        UPDATE rewards
        SET redemption_count = redemption_count + 1, updated_at = NOW()
        WHERE id = @id
          AND (stock_quantity IS NULL OR redemption_count < stock_quantity)
          AND (redemption_limit IS NULL OR redemption_count < redemption_limit)`,
		pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("failed to increment redemption count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrConflict
	}

	r.refreshCache(ctx, tx, id)
	return nil
}

func (r *repository) DecrementRedemptions(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, err := tx.Exec(ctx, `
        UPDATE rewards
        SET redemption_count = redemption_count - 1, updated_at = NOW()
        WHERE id = @id AND redemption_count > 0`,
		pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("failed to decrement redemption count: %w", err)
	}

	r.refreshCache(ctx, tx, id)
	return nil
}
