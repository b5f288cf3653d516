package discountcode

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

	"goflare.io/redemption/codec"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
)

var _ Repository = (*repository)(nil)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, dc *models.DiscountCode) error
	GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.DiscountCode, error)
	// GetByCode looks up a normalized code; the caller decides whether a
	// non-active record is an error.
	GetByCode(ctx context.Context, tx pgx.Tx, code string) (*models.DiscountCode, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, tx pgx.Tx, dc *models.PartialDiscountCode) error
	Deactivate(ctx context.Context, tx pgx.Tx, id uint64) error
	List(ctx context.Context, tx pgx.Tx, filter ListFilter) ([]*models.DiscountCode, error)

	// RefreshCache re-reads the row inside the transaction and overwrites the
	// cached copy. Callers that mutate usage_count outside this repository
	// (the usage ledger) invoke it so GetByID never serves a stale counter.
	RefreshCache(ctx context.Context, tx pgx.Tx, id uint64)
}

// ListFilter mirrors the list-endpoint query surface: search, date range,
// pagination. Status is filtered by the service since it is derived.
type ListFilter struct {
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       uint64
	Offset      uint64
}

const columns = `id, code, name, COALESCE(description, ''), type, percent_off_bps, amount_off,
       COALESCE(currency, ''), max_discount, minimum_amount, usage_limit, usage_limit_per_member,
       valid_from, valid_until, is_active, first_time_only, applicable_plans, usage_count,
       created_at, updated_at`

type repository struct {
	conn        driver.PostgresPool
	logger      *zap.Logger
	cache       *ember.MultiCache
	poolManager ignite.Manager
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger, cache *ember.MultiCache, poolManager ignite.Manager) (Repository, error) {
	if err := poolManager.RegisterPool(reflect.TypeOf(&models.DiscountCode{}), ignite.Config[any]{
		InitialSize: 10,
		MaxSize:     100,
		MaxIdleTime: 10 * time.Minute,
		Factory: func() (any, error) {
			return models.NewDiscountCode(), nil
		},
		Reset: func(obj any) error {
			dc := obj.(*models.DiscountCode)
			*dc = models.DiscountCode{}
			return nil
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register discount code pool: %w", err)
	}

	return &repository{
		conn:        conn,
		logger:      logger,
		cache:       cache,
		poolManager: poolManager,
	}, nil
}

func (r *repository) getFromPool(ctx context.Context) (*models.DiscountCode, func(), error) {
	pool, err := r.poolManager.GetPool(reflect.TypeOf(&models.DiscountCode{}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pool: %w", err)
	}

	objWrapper, err := pool.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object from pool: %w", err)
	}

	dc := objWrapper.Object.(*models.DiscountCode)
	release := func() {
		pool.Put(objWrapper)
	}
	return dc, release, nil
}

func scanDiscountCode(row pgx.Row, dc *models.DiscountCode) error {
	return row.Scan(
		&dc.ID, &dc.Code, &dc.Name, &dc.Description, &dc.Type, &dc.PercentOffBps, &dc.AmountOff,
		&dc.Currency, &dc.MaxDiscount, &dc.MinimumAmount, &dc.UsageLimit, &dc.UsageLimitPerMember,
		&dc.ValidFrom, &dc.ValidUntil, &dc.IsActive, &dc.FirstTimeOnly, &dc.ApplicablePlans,
		&dc.UsageCount, &dc.CreatedAt, &dc.UpdatedAt)
}

func (r *repository) Create(ctx context.Context, tx pgx.Tx, dc *models.DiscountCode) error {
	dc.Code = codec.Normalize(dc.Code)

	err := tx.QueryRow(ctx, `
        INSERT INTO discount_codes (code, name, description, type, percent_off_bps, amount_off, currency,
            max_discount, minimum_amount, usage_limit, usage_limit_per_member, valid_from, valid_until,
            is_active, first_time_only, applicable_plans)
        VALUES (@code, @name, @description, @type, @percent_off_bps, @amount_off, @currency,
            @max_discount, @minimum_amount, @usage_limit, @usage_limit_per_member, @valid_from, @valid_until,
            @is_active, @first_time_only, @applicable_plans)
        RETURNING id, usage_count, created_at, updated_at`,
		pgx.NamedArgs{
			"code":                   dc.Code,
			"name":                   dc.Name,
			"description":            dc.Description,
			"type":                   dc.Type,
			"percent_off_bps":        dc.PercentOffBps,
			"amount_off":             dc.AmountOff,
			"currency":               dc.Currency,
			"max_discount":           dc.MaxDiscount,
			"minimum_amount":         dc.MinimumAmount,
			"usage_limit":            dc.UsageLimit,
			"usage_limit_per_member": dc.UsageLimitPerMember,
			"valid_from":             dc.ValidFrom,
			"valid_until":            dc.ValidUntil,
			"is_active":              dc.IsActive,
			"first_time_only":        dc.FirstTimeOnly,
			"applicable_plans":       dc.ApplicablePlans,
		}).Scan(&dc.ID, &dc.UsageCount, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create discount code: %w", err)
	}

	if err = r.cache.Set(ctx, cacheKey(dc.ID), dc); err != nil {
		r.logger.Warn("failed to cache discount code", zap.Error(err), zap.Uint64("id", dc.ID))
	}
	return nil
}

func cacheKey(id uint64) string {
	return fmt.Sprintf("discount_code:%d", id)
}

func (r *repository) GetByID(ctx context.Context, tx pgx.Tx, id uint64) (*models.DiscountCode, error) {
	dc, release, err := r.getFromPool(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	found, err := r.cache.Get(ctx, cacheKey(id), dc)
	if err != nil {
		r.logger.Warn("failed to get discount code from cache", zap.Error(err), zap.Uint64("id", id))
	} else if found {
		result := *dc
		return &result, nil
	}

	result := models.NewDiscountCode()
	err = scanDiscountCode(tx.QueryRow(ctx,
		`SELECT `+columns+` FROM discount_codes WHERE id = @id`,
		pgx.NamedArgs{"id": id}), result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}

	if err = r.cache.Set(ctx, cacheKey(id), result); err != nil {
		r.logger.Warn("failed to cache discount code", zap.Error(err), zap.Uint64("id", id))
	}
	return result, nil
}

func (r *repository) GetByCode(ctx context.Context, tx pgx.Tx, code string) (*models.DiscountCode, error) {
	dc := models.NewDiscountCode()
	err := scanDiscountCode(tx.QueryRow(ctx,
		`SELECT `+columns+` FROM discount_codes WHERE code = @code`,
		pgx.NamedArgs{"code": codec.Normalize(code)}), dc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discount code by code: %w", err)
	}
	return dc, nil
}

func (r *repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM discount_codes WHERE code = @code)`,
		pgx.NamedArgs{"code": codec.Normalize(code)}).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

func (r *repository) Update(ctx context.Context, tx pgx.Tx, dc *models.PartialDiscountCode) error {
	var code *string
	if dc.Code != nil {
		normalized := codec.Normalize(*dc.Code)
		code = &normalized
	}

	tag, err := tx.Exec(ctx, `
        UPDATE discount_codes SET
            code = COALESCE(@code, code),
            name = COALESCE(@name, name),
            description = COALESCE(@description, description),
            type = COALESCE(@type, type),
            percent_off_bps = COALESCE(@percent_off_bps, percent_off_bps),
            amount_off = COALESCE(@amount_off, amount_off),
            currency = COALESCE(@currency, currency),
            max_discount = COALESCE(@max_discount, max_discount),
            minimum_amount = COALESCE(@minimum_amount, minimum_amount),
            usage_limit = COALESCE(@usage_limit, usage_limit),
            usage_limit_per_member = COALESCE(@usage_limit_per_member, usage_limit_per_member),
            valid_from = COALESCE(@valid_from, valid_from),
            valid_until = COALESCE(@valid_until, valid_until),
            is_active = COALESCE(@is_active, is_active),
            first_time_only = COALESCE(@first_time_only, first_time_only),
            applicable_plans = COALESCE(@applicable_plans, applicable_plans),
            updated_at = NOW()
        WHERE id = @id`,
		pgx.NamedArgs{
			"id":                     dc.ID,
			"code":                   code,
			"name":                   dc.Name,
			"description":            dc.Description,
			"type":                   dc.Type,
			"percent_off_bps":        dc.PercentOffBps,
			"amount_off":             dc.AmountOff,
			"currency":               dc.Currency,
			"max_discount":           dc.MaxDiscount,
			"minimum_amount":         dc.MinimumAmount,
			"usage_limit":            dc.UsageLimit,
			"usage_limit_per_member": dc.UsageLimitPerMember,
			"valid_from":             dc.ValidFrom,
			"valid_until":            dc.ValidUntil,
			"is_active":              dc.IsActive,
			"first_time_only":        dc.FirstTimeOnly,
			"applicable_plans":       dc.ApplicablePlans,
		})
	if err != nil {
		return fmt.Errorf("failed to update discount code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	r.RefreshCache(ctx, tx, dc.ID)
	return nil
}

func (r *repository) Deactivate(ctx context.Context, tx pgx.Tx, id uint64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE discount_codes SET is_active = FALSE, updated_at = NOW() WHERE id = @id`,
		pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("failed to deactivate discount code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	r.RefreshCache(ctx, tx, id)
	return nil
}

// Cache trouble is logged, never surfaced.
func (r *repository) RefreshCache(ctx context.Context, tx pgx.Tx, id uint64) {
	dc := models.NewDiscountCode()
	if err := scanDiscountCode(tx.QueryRow(ctx,
		`SELECT `+columns+` FROM discount_codes WHERE id = @id`,
		pgx.NamedArgs{"id": id}), dc); err != nil {
		r.logger.Warn("failed to refresh discount code cache", zap.Error(err), zap.Uint64("id", id))
		return
	}
	if err := r.cache.Set(ctx, cacheKey(id), dc); err != nil {
		r.logger.Warn("failed to cache discount code", zap.Error(err), zap.Uint64("id", id))
	}
}

func (r *repository) List(ctx context.Context, tx pgx.Tx, filter ListFilter) ([]*models.DiscountCode, error) {
	rows, err := tx.Query(ctx, `
        SELECT `+columns+` FROM discount_codes
        WHERE (@search = '' OR code ILIKE '%' || @search || '%' OR name ILIKE '%' || @search || '%')
          AND (@created_from::timestamptz IS NULL OR created_at >= @created_from)
          AND (@created_to::timestamptz IS NULL OR created_at <= @created_to)
        ORDER BY created_at DESC
        LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{
			"search":       filter.Search,
			"created_from": filter.CreatedFrom,
			"created_to":   filter.CreatedTo,
			"limit":        filter.Limit,
			"offset":       filter.Offset,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.DiscountCode
	for rows.Next() {
		dc := models.NewDiscountCode()
		if err = scanDiscountCode(rows, dc); err != nil {
			return nil, fmt.Errorf("failed to scan discount code: %w", err)
		}
		codes = append(codes, dc)
	}
	return codes, rows.Err()
}
