// Package discountcode holds the promotional-code side of the engine: CRUD,
// pure preview, and the transactional redeem path that consumes usage.
package discountcode

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/redemption/codec"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/effect"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/event"
	"goflare.io/redemption/ledger"
	"goflare.io/redemption/member"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/status"
	"goflare.io/redemption/validate"
)

// View pairs a stored record with its derived status so display and
// validation read the same answer.
type View struct {
	*models.DiscountCode
	Status enum.DerivedStatus `json:"status"`
}

// RedeemRequest is a candidate application of a code to an order.
type RedeemRequest struct {
	Code           string  `json:"code"`
	MemberID       uint64  `json:"member_id"`
	Amount         int64   `json:"amount"`
	PlanID         string  `json:"plan_id,omitempty"`
	SubscriptionID *uint64 `json:"subscription_id,omitempty"`
}

type Service interface {
	Create(ctx context.Context, dc *models.DiscountCode) error
	GetByID(ctx context.Context, id uint64) (*View, error)
	GetByCode(ctx context.Context, code string) (*View, error)
	Update(ctx context.Context, dc *models.PartialDiscountCode) error
	Deactivate(ctx context.Context, id uint64) error
	List(ctx context.Context, filter ListFilter, statusFilter enum.DerivedStatus) ([]*View, error)

	// Preview validates and computes the effect with no side effects.
	Preview(ctx context.Context, req RedeemRequest) (models.Effect, error)

	// Redeem validates, records usage and returns the computed effect as one
	// transactional unit.
	Redeem(ctx context.Context, req RedeemRequest) (*models.DiscountUsage, models.Effect, error)

	// ReverseUsage compensates a prior usage (refund path). Idempotent.
	ReverseUsage(ctx context.Context, entryID uint64, reason string) error

	ListUsages(ctx context.Context, codeID uint64, limit, offset uint64) ([]*models.DiscountUsage, error)
}

type service struct {
	repo               Repository
	ledger             ledger.Repository
	members            member.Repository
	events             event.Repository
	transactionManager driver.TransactionManager
	logger             *zap.Logger
	now                func() time.Time
}

func NewService(
	repo Repository,
	ledgerRepo ledger.Repository,
	members member.Repository,
	events event.Repository,
	tm driver.TransactionManager,
	logger *zap.Logger,
) Service {
	return &service{
		repo:               repo,
		ledger:             ledgerRepo,
		members:            members,
		events:             events,
		transactionManager: tm,
		logger:             logger,
		now:                time.Now,
	}
}

func (s *service) Create(ctx context.Context, dc *models.DiscountCode) error {
	if err := validateShape(dc); err != nil {
		return err
	}

	if dc.Code == "" {
		generated, err := codec.Generate(ctx, s.repo.ExistsByCode)
		if err != nil {
			return fmt.Errorf("failed to generate code: %w", err)
		}
		dc.Code = generated
	}

	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, dc)
	})
}

func validateShape(dc *models.DiscountCode) error {
	switch dc.Type {
	case enum.DiscountTypePercentage:
		if dc.PercentOffBps <= 0 || dc.PercentOffBps > 10000 {
			return errs.NewValidationError("percent_off", "must be within (0, 100]")
		}
	case enum.DiscountTypeFixedAmount:
		if dc.AmountOff <= 0 {
			return errs.NewValidationError("amount_off", "must be positive")
		}
	case enum.DiscountTypeFreeTrial, enum.DiscountTypeFirstMonthFree:
		// Categorical; no magnitude.
	default:
		return errs.NewValidationError("type", "unknown discount type")
	}

	if dc.ValidFrom != nil && dc.ValidUntil != nil && !dc.ValidFrom.Before(*dc.ValidUntil) {
		return errs.NewValidationError("valid_from", "must precede valid_until")
	}
	if dc.MinimumAmount != nil && *dc.MinimumAmount < 0 {
		return errs.NewValidationError("minimum_amount", "must not be negative")
	}
	if dc.UsageLimit != nil && *dc.UsageLimit <= 0 {
		return errs.NewValidationError("usage_limit", "must be positive")
	}
	if dc.UsageLimitPerMember != nil && *dc.UsageLimitPerMember <= 0 {
		return errs.NewValidationError("usage_limit_per_member", "must be positive")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uint64) (*View, error) {
	var view *View
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		dc, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		view = s.view(dc)
		return nil
	}); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*View, error) {
	var view *View
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		dc, err := s.repo.GetByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		view = s.view(dc)
		return nil
	}); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) view(dc *models.DiscountCode) *View {
	return &View{DiscountCode: dc, Status: status.Derive(status.ForDiscountCode(dc), s.now())}
}

func (s *service) Update(ctx context.Context, dc *models.PartialDiscountCode) error {
	if dc.ValidFrom != nil && dc.ValidUntil != nil && !dc.ValidFrom.Before(*dc.ValidUntil) {
		return errs.NewValidationError("valid_from", "must precede valid_until")
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, dc)
	})
}

func (s *service) Deactivate(ctx context.Context, id uint64) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Deactivate(ctx, tx, id)
	})
}

func (s *service) List(ctx context.Context, filter ListFilter, statusFilter enum.DerivedStatus) ([]*View, error) {
	var views []*View
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		codes, err := s.repo.List(ctx, tx, filter)
		if err != nil {
			return err
		}
		for _, dc := range codes {
			view := s.view(dc)
			if statusFilter != "" && view.Status != statusFilter {
				continue
			}
			views = append(views, view)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return views, nil
}

// check runs the full constraint sequence for a candidate request. Shared by
// Preview and Redeem so the two can never diverge.
func (s *service) check(ctx context.Context, tx pgx.Tx, dc *models.DiscountCode, req RedeemRequest) error {
	memberUsage, err := s.ledger.CountForMember(ctx, tx, dc.ID, req.MemberID)
	if err != nil {
		return err
	}

	var paid int32
	if dc.FirstTimeOnly {
		if paid, err = s.members.PaidSubscriptionCount(ctx, tx, req.MemberID); err != nil {
			return err
		}
	}

	return validate.Check(validate.ForDiscountCode(dc), validate.Request{
		Amount:            req.Amount,
		PlanID:            req.PlanID,
		MemberUsageCount:  memberUsage,
		PaidSubscriptions: paid,
		Now:               s.now(),
	})
}

func (s *service) Preview(ctx context.Context, req RedeemRequest) (models.Effect, error) {
	var eff models.Effect
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		dc, err := s.repo.GetByCode(ctx, tx, req.Code)
		if err != nil {
			return err
		}
		if err = s.check(ctx, tx, dc, req); err != nil {
			return err
		}
		eff, err = effect.ForDiscountCode(dc, req.Amount)
		return err
	}); err != nil {
		return models.Effect{}, err
	}
	return eff, nil
}

func (s *service) Redeem(ctx context.Context, req RedeemRequest) (*models.DiscountUsage, models.Effect, error) {
	var (
		usage *models.DiscountUsage
		eff   models.Effect
	)
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		dc, err := s.repo.GetByCode(ctx, tx, req.Code)
		if err != nil {
			return err
		}
		if err = s.check(ctx, tx, dc, req); err != nil {
			return err
		}
		if eff, err = effect.ForDiscountCode(dc, req.Amount); err != nil {
			return err
		}

		usage = &models.DiscountUsage{
			DiscountCodeID:   dc.ID,
			MemberID:         req.MemberID,
			AmountDiscounted: eff.AmountOff,
			Currency:         dc.Currency,
			SubscriptionID:   req.SubscriptionID,
			UsedAt:           s.now(),
		}
		// The ledger insert re-checks the global cap atomically; a loss here
		// surfaces as Conflict even though validation just passed.
		if err = s.ledger.Record(ctx, tx, usage); err != nil {
			return err
		}
		// The ledger moved usage_count behind this repository's back.
		s.repo.RefreshCache(ctx, tx, dc.ID)

		return s.events.Create(ctx, tx, &models.TransitionEvent{
			UsageID:  &usage.ID,
			ToStatus: enum.RedemptionStatusUsed,
			Reason:   "discount code redeemed",
		})
	}); err != nil {
		return nil, models.Effect{}, err
	}

	s.logger.Info("discount code redeemed",
		zap.String("code", req.Code),
		zap.Uint64("member_id", req.MemberID),
		zap.Int64("amount_discounted", eff.AmountOff))
	return usage, eff, nil
}

func (s *service) ReverseUsage(ctx context.Context, entryID uint64, reason string) error {
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		reversed, err := s.ledger.Reverse(ctx, tx, entryID, reason)
		if err != nil || !reversed {
			return err
		}
		entry, err := s.ledger.GetByID(ctx, tx, entryID)
		if err != nil {
			return err
		}
		s.repo.RefreshCache(ctx, tx, entry.DiscountCodeID)
		return s.events.Create(ctx, tx, &models.TransitionEvent{
			UsageID:  &entryID,
			ToStatus: enum.RedemptionStatusRefunded,
			Reason:   reason,
		})
	}); err != nil {
		return fmt.Errorf("failed to reverse usage %d: %w", entryID, err)
	}
	return nil
}

func (s *service) ListUsages(ctx context.Context, codeID uint64, limit, offset uint64) ([]*models.DiscountUsage, error) {
	var usages []*models.DiscountUsage
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		usages, err = s.ledger.ListByCode(ctx, tx, codeID, limit, offset)
		return err
	}); err != nil {
		return nil, err
	}
	return usages, nil
}
