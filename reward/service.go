// Package reward manages the points-redeemable catalog.
package reward

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/status"
)

// View pairs a reward with its derived status.
type View struct {
	*models.Reward
	Status enum.DerivedStatus `json:"status"`
}

type Service interface {
	Create(ctx context.Context, rw *models.Reward) error
	GetByID(ctx context.Context, id uint64) (*View, error)
	Update(ctx context.Context, rw *models.PartialReward) error
	// Delete removes a reward outright; rejected with Conflict while
	// redemptions reference it. Deactivate is the soft path.
	Delete(ctx context.Context, id uint64) error
	Deactivate(ctx context.Context, id uint64) error
	List(ctx context.Context, filter ListFilter, statusFilter enum.DerivedStatus) ([]*View, error)
}

type service struct {
	repo               Repository
	transactionManager driver.TransactionManager
	logger             *zap.Logger
	now                func() time.Time
}

func NewService(repo Repository, tm driver.TransactionManager, logger *zap.Logger) Service {
	return &service{
		repo:               repo,
		transactionManager: tm,
		logger:             logger,
		now:                time.Now,
	}
}

func (s *service) Create(ctx context.Context, rw *models.Reward) error {
	if err := rw.Validate(); err != nil {
		return errs.NewValidationError("reward", err.Error())
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Create(ctx, tx, rw)
	})
}

func (s *service) GetByID(ctx context.Context, id uint64) (*View, error) {
	var view *View
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		rw, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		view = s.view(rw)
		return nil
	}); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) view(rw *models.Reward) *View {
	return &View{Reward: rw, Status: status.Derive(status.ForReward(rw), s.now())}
}

func (s *service) Update(ctx context.Context, rw *models.PartialReward) error {
	if rw.PercentOffBps != nil && rw.AmountOff != nil {
		return errs.NewValidationError("reward", models.ErrAmbiguousDiscount.Error())
	}
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, rw)
	})
}

func (s *service) Delete(ctx context.Context, id uint64) error {
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *service) Deactivate(ctx context.Context, id uint64) error {
	inactive := false
	return s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		return s.repo.Update(ctx, tx, &models.PartialReward{ID: id, IsActive: &inactive})
	})
}

func (s *service) List(ctx context.Context, filter ListFilter, statusFilter enum.DerivedStatus) ([]*View, error) {
	var views []*View
	if err := s.transactionManager.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		rewards, err := s.repo.List(ctx, tx, filter)
		if err != nil {
			return err
		}
		for _, rw := range rewards {
			view := s.view(rw)
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
