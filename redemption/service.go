// Package redemption drives the reward redemption lifecycle:
// PENDING -> ACTIVE -> USED | EXPIRED | CANCELLED, with ACTIVE -> REFUNDED as
// the only back-edge. Every transition commits or rolls back as one unit;
// a member can never lose points without receiving a code.
package redemption

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/redemption/codec"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/event"
	"goflare.io/redemption/member"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/reward"
	"goflare.io/redemption/status"
	"goflare.io/redemption/validate"
)

type Service interface {
	// Redeem claims a reward for a member: points are deducted, a slot is
	// taken and a code issued, atomically. Concurrent exhaustion surfaces as
	// errs.ErrConflict.
	Redeem(ctx context.Context, memberID, rewardID uint64) (*models.RewardRedemption, error)

	// GetByID returns the redemption with its status derived against now.
	GetByID(ctx context.Context, id uint64) (*models.RewardRedemption, error)

	// VerifyCode resolves a submitted code. Not-found returns (nil,
	// errs.ErrNotFound); a found-but-blocked redemption returns the record
	// together with a ConstraintViolation naming why it is unusable.
	VerifyCode(ctx context.Context, raw string) (*models.RewardRedemption, error)

	// MarkUsed consumes an ACTIVE redemption. Idempotent on an already-USED
	// one: the current state is returned without side effects.
	MarkUsed(ctx context.Context, id uint64) (*models.RewardRedemption, error)

	// Refund restores points and frees the reward slot. Legal only from
	// derived-ACTIVE; terminal.
	Refund(ctx context.Context, id uint64, reason string) (*models.RewardRedemption, error)

	// Cancel is the administrative stop: frees the slot, keeps the points.
	Cancel(ctx context.Context, id uint64, reason string) (*models.RewardRedemption, error)

	List(ctx context.Context, filter ListFilter) ([]*models.RewardRedemption, error)

	// ExpireLapsed bulk-persists derived expiry; reads never depend on it.
	ExpireLapsed(ctx context.Context) (int, error)
}

type service struct {
	repo               Repository
	rewards            reward.Repository
	members            member.Repository
	events             event.Repository
	transactionManager driver.TransactionManager
	logger             *zap.Logger
	now                func() time.Time
}

func NewService(
	repo Repository,
	rewards reward.Repository,
	members member.Repository,
	events event.Repository,
	tm driver.TransactionManager,
	logger *zap.Logger,
) Service {
	return &service{
		repo:               repo,
		rewards:            rewards,
		members:            members,
		events:             events,
		transactionManager: tm,
		logger:             logger,
		now:                time.Now,
	}
}

func (s *service) Redeem(ctx context.Context, memberID, rewardID uint64) (*models.RewardRedemption, error) {
	var redemption *models.RewardRedemption

	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		rw, err := s.rewards.GetByID(ctx, tx, rewardID)
		if err != nil {
			return err
		}
		m, err := s.members.GetByID(ctx, tx, memberID)
		if err != nil {
			return err
		}

		now := s.now()
		if err = validate.Check(validate.ForReward(rw), validate.Request{
			PointsBalance: m.PointsBalance,
			Now:           now,
		}); err != nil {
			return err
		}

		// The conditional increment is the real gate; under races only as
		// many of these succeed as there are slots.
		if err = s.rewards.IncrementRedemptions(ctx, tx, rewardID); err != nil {
			return err
		}
		if err = s.members.Debit(ctx, tx, memberID, rw.PointsCost); err != nil {
			return err
		}

		code, err := codec.Generate(ctx, s.repo.ExistsByCode)
		if err != nil {
			return err
		}

		redemption = &models.RewardRedemption{
			MemberID:    memberID,
			RewardID:    rewardID,
			PointsSpent: rw.PointsCost,
			Code:        code,
			Status:      enum.RedemptionStatusActive,
			RedeemedAt:  now,
			ExpiresAt:   expiry(rw, now),
		}
		if err = s.repo.Create(ctx, tx, redemption); err != nil {
			return err
		}

		return s.events.Create(ctx, tx, &models.TransitionEvent{
			RedemptionID: &redemption.ID,
			FromStatus:   enum.RedemptionStatusPending,
			ToStatus:     enum.RedemptionStatusActive,
		})
	}); err != nil {
		return nil, err
	}

	s.logger.Info("reward redeemed",
		zap.Uint64("member_id", memberID),
		zap.Uint64("reward_id", rewardID),
		zap.String("code", redemption.Code),
		zap.Int64("points_spent", redemption.PointsSpent))
	return redemption, nil
}

// expiry picks the redemption window: a per-reward validity period when set,
// otherwise the reward's own end date.
func expiry(rw *models.Reward, now time.Time) *time.Time {
	if rw.ValidityDays != nil {
		t := now.AddDate(0, 0, int(*rw.ValidityDays))
		return &t
	}
	if rw.ValidUntil != nil {
		t := *rw.ValidUntil
		return &t
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uint64) (*models.RewardRedemption, error) {
	var redemption *models.RewardRedemption
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		r, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		redemption, err = s.deriving(ctx, tx, r)
		return err
	}); err != nil {
		return nil, err
	}
	return redemption, nil
}

// deriving applies lazy expiry: a lapsed ACTIVE row reads as EXPIRED and the
// transition is opportunistically persisted so later reads agree.
func (s *service) deriving(ctx context.Context, tx pgx.Tx, r *models.RewardRedemption) (*models.RewardRedemption, error) {
	now := s.now()
	derived := status.ForRedemption(r, now)
	if derived == r.Status {
		return r, nil
	}

	moved, err := s.repo.Transition(ctx, tx, r.ID, r.Status, derived, nil, "")
	if err != nil {
		return nil, err
	}
	if moved {
		if err = s.events.Create(ctx, tx, &models.TransitionEvent{
			RedemptionID: &r.ID,
			FromStatus:   r.Status,
			ToStatus:     derived,
			Reason:       "lapsed",
		}); err != nil {
			return nil, err
		}
	}
	r.Status = derived
	return r, nil
}

func (s *service) VerifyCode(ctx context.Context, raw string) (*models.RewardRedemption, error) {
	var (
		redemption *models.RewardRedemption
		blocked    error
	)
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		r, err := s.repo.GetByCode(ctx, tx, raw)
		if err != nil {
			return err
		}
		if redemption, err = s.deriving(ctx, tx, r); err != nil {
			return err
		}
		if redemption.Status != enum.RedemptionStatusActive {
			blocked = errs.Violation(enum.FromDerivedStatus(enum.DerivedStatus(redemption.Status)))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return redemption, blocked
}

func (s *service) MarkUsed(ctx context.Context, id uint64) (*models.RewardRedemption, error) {
	var redemption *models.RewardRedemption
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		r, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if r, err = s.deriving(ctx, tx, r); err != nil {
			return err
		}

		switch r.Status {
		case enum.RedemptionStatusUsed:
			// Same action replayed; hand back the current state.
			redemption = r
			return nil
		case enum.RedemptionStatusActive:
		default:
			return errs.NewIllegalTransition(r.Status, enum.RedemptionStatusUsed)
		}

		now := s.now()
		moved, err := s.repo.Transition(ctx, tx, id, enum.RedemptionStatusActive, enum.RedemptionStatusUsed, &now, "")
		if err != nil {
			return err
		}
		if !moved {
			return errs.NewIllegalTransition(r.Status, enum.RedemptionStatusUsed)
		}

		r.Status = enum.RedemptionStatusUsed
		r.UsedAt = &now
		redemption = r

		return s.events.Create(ctx, tx, &models.TransitionEvent{
			RedemptionID: &id,
			FromStatus:   enum.RedemptionStatusActive,
			ToStatus:     enum.RedemptionStatusUsed,
		})
	}); err != nil {
		return nil, err
	}
	return redemption, nil
}

func (s *service) Refund(ctx context.Context, id uint64, reason string) (*models.RewardRedemption, error) {
	var redemption *models.RewardRedemption
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		r, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if r, err = s.deriving(ctx, tx, r); err != nil {
			return err
		}
		if r.Status != enum.RedemptionStatusActive {
			return errs.NewIllegalTransition(r.Status, enum.RedemptionStatusRefunded)
		}

		if err = s.members.Credit(ctx, tx, r.MemberID, r.PointsSpent); err != nil {
			return err
		}
		if err = s.rewards.DecrementRedemptions(ctx, tx, r.RewardID); err != nil {
			return err
		}

		moved, err := s.repo.Transition(ctx, tx, id, enum.RedemptionStatusActive, enum.RedemptionStatusRefunded, nil, reason)
		if err != nil {
			return err
		}
		if !moved {
			return errs.NewIllegalTransition(r.Status, enum.RedemptionStatusRefunded)
		}

		r.Status = enum.RedemptionStatusRefunded
		r.Notes = reason
		redemption = r

		return s.events.Create(ctx, tx, &models.TransitionEvent{
			RedemptionID: &id,
			FromStatus:   enum.RedemptionStatusActive,
			ToStatus:     enum.RedemptionStatusRefunded,
			Reason:       reason,
		})
	}); err != nil {
		return nil, err
	}

	s.logger.Info("redemption refunded",
		zap.Uint64("redemption_id", id),
		zap.Int64("points_restored", redemption.PointsSpent),
		zap.String("reason", reason))
	return redemption, nil
}

func (s *service) Cancel(ctx context.Context, id uint64, reason string) (*models.RewardRedemption, error) {
	var redemption *models.RewardRedemption
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		r, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if r, err = s.deriving(ctx, tx, r); err != nil {
			return err
		}

		switch r.Status {
		case enum.RedemptionStatusPending, enum.RedemptionStatusActive:
		default:
			return errs.NewIllegalTransition(r.Status, enum.RedemptionStatusCancelled)
		}

		if err = s.rewards.DecrementRedemptions(ctx, tx, r.RewardID); err != nil {
			return err
		}

		moved, err := s.repo.Transition(ctx, tx, id, r.Status, enum.RedemptionStatusCancelled, nil, reason)
		if err != nil {
			return err
		}
		if !moved {
			return errs.NewIllegalTransition(r.Status, enum.RedemptionStatusCancelled)
		}

		from := r.Status
		r.Status = enum.RedemptionStatusCancelled
		r.Notes = reason
		redemption = r

		return s.events.Create(ctx, tx, &models.TransitionEvent{
			RedemptionID: &id,
			FromStatus:   from,
			ToStatus:     enum.RedemptionStatusCancelled,
			Reason:       reason,
		})
	}); err != nil {
		return nil, err
	}
	return redemption, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*models.RewardRedemption, error) {
	var redemptions []*models.RewardRedemption
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := s.repo.List(ctx, tx, filter)
		if err != nil {
			return err
		}
		// Display-only derivation; persistence is left to reads of the
		// individual record or the sweep.
		now := s.now()
		for _, r := range rows {
			r.Status = status.ForRedemption(r, now)
		}
		redemptions = rows
		return nil
	}); err != nil {
		return nil, err
	}
	return redemptions, nil
}

func (s *service) ExpireLapsed(ctx context.Context) (int, error) {
	var expired int
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		ids, err := s.repo.ExpireLapsed(ctx, tx, s.now())
		if err != nil {
			return err
		}
		for _, id := range ids {
			rid := id
			if err = s.events.Create(ctx, tx, &models.TransitionEvent{
				RedemptionID: &rid,
				FromStatus:   enum.RedemptionStatusActive,
				ToStatus:     enum.RedemptionStatusExpired,
				Reason:       "sweep",
			}); err != nil {
				return err
			}
		}
		expired = len(ids)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to expire lapsed redemptions: %w", err)
	}

	if expired > 0 {
		s.logger.Info("expired lapsed redemptions", zap.Int("count", expired))
	}
	return expired, nil
}
