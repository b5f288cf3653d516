package redemption

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"goflare.io/redemption/codec"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/event"
	"goflare.io/redemption/member"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/reward"
)

// The fakes below stand in for the pgx repositories. Their conditional
// updates hold the same atomicity promise under a mutex that the SQL
// single-statement updates hold in Postgres.

var (
	_ driver.TransactionManager = memTxManager{}
	_ reward.Repository         = (*memRewardRepo)(nil)
	_ member.Repository         = (*memMemberRepo)(nil)
	_ event.Repository          = (*memEventRepo)(nil)
	_ Repository                = (*memRedemptionRepo)(nil)
)

type memTxManager struct{}

func (memTxManager) ExecuteTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type memRewardRepo struct {
	mu      sync.Mutex
	rewards map[uint64]*models.Reward
}

func newMemRewardRepo(rewards ...*models.Reward) *memRewardRepo {
	m := &memRewardRepo{rewards: make(map[uint64]*models.Reward)}
	for _, rw := range rewards {
		m.rewards[rw.ID] = rw
	}
	return m
}

func (m *memRewardRepo) Create(_ context.Context, _ pgx.Tx, rw *models.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rw.ID = uint64(len(m.rewards) + 1)
	copied := *rw
	m.rewards[rw.ID] = &copied
	return nil
}

func (m *memRewardRepo) Update(_ context.Context, _ pgx.Tx, partial *models.PartialReward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rw, ok := m.rewards[partial.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if partial.PointsCost != nil {
		rw.PointsCost = *partial.PointsCost
	}
	if partial.IsActive != nil {
		rw.IsActive = *partial.IsActive
	}
	return nil
}

func (m *memRewardRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rewards[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.rewards, id)
	return nil
}

func (m *memRewardRepo) List(_ context.Context, _ pgx.Tx, _ reward.ListFilter) ([]*models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Reward, 0, len(m.rewards))
	for _, rw := range m.rewards {
		copied := *rw
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memRewardRepo) GetByID(_ context.Context, _ pgx.Tx, id uint64) (*models.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rw, ok := m.rewards[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *rw
	return &copied, nil
}

func (m *memRewardRepo) IncrementRedemptions(_ context.Context, _ pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rw, ok := m.rewards[id]
	if !ok {
		return errs.ErrNotFound
	}
	if rw.StockQuantity != nil && rw.RedemptionCount >= *rw.StockQuantity {
		return errs.ErrConflict
	}
	if rw.RedemptionLimit != nil && rw.RedemptionCount >= *rw.RedemptionLimit {
		return errs.ErrConflict
	}
	rw.RedemptionCount++
	return nil
}

func (m *memRewardRepo) DecrementRedemptions(_ context.Context, _ pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rw, ok := m.rewards[id]; ok && rw.RedemptionCount > 0 {
		rw.RedemptionCount--
	}
	return nil
}

type memMemberRepo struct {
	mu      sync.Mutex
	members map[uint64]*models.Member
}

func newMemMemberRepo(members ...*models.Member) *memMemberRepo {
	m := &memMemberRepo{members: make(map[uint64]*models.Member)}
	for _, mb := range members {
		m.members[mb.ID] = mb
	}
	return m
}

func (m *memMemberRepo) GetByID(_ context.Context, _ pgx.Tx, id uint64) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mb, ok := m.members[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *mb
	return &copied, nil
}

func (m *memMemberRepo) Debit(_ context.Context, _ pgx.Tx, memberID uint64, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mb, ok := m.members[memberID]
	if !ok {
		return errs.ErrNotFound
	}
	if mb.PointsBalance < points {
		return errs.Violation(enum.RejectReasonInsufficientPoints)
	}
	mb.PointsBalance -= points
	return nil
}

func (m *memMemberRepo) Credit(_ context.Context, _ pgx.Tx, memberID uint64, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mb, ok := m.members[memberID]
	if !ok {
		return errs.ErrNotFound
	}
	mb.PointsBalance += points
	return nil
}

func (m *memMemberRepo) PaidSubscriptionCount(_ context.Context, _ pgx.Tx, memberID uint64) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mb, ok := m.members[memberID]
	if !ok {
		return 0, errs.ErrNotFound
	}
	return mb.PaidSubscriptions, nil
}

func (m *memMemberRepo) balance(id uint64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[id].PointsBalance
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*models.TransitionEvent
}

func (m *memEventRepo) Create(_ context.Context, _ pgx.Tx, event *models.TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uint64(len(m.events) + 1)
	event.CreatedAt = time.Now()
	m.events = append(m.events, event)
	return nil
}

func (m *memEventRepo) GetByID(_ context.Context, id uint64) (*models.TransitionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memEventRepo) ListUnprocessed(_ context.Context, _ uint64) ([]*models.TransitionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TransitionEvent
	for _, ev := range m.events {
		if !ev.Processed {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memEventRepo) MarkAsProcessed(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			ev.Processed = true
		}
	}
	return nil
}

func (m *memEventRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type memRedemptionRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*models.RewardRedemption
	byCode map[string]uint64
}

func newMemRedemptionRepo() *memRedemptionRepo {
	return &memRedemptionRepo{
		byID:   make(map[uint64]*models.RewardRedemption),
		byCode: make(map[string]uint64),
	}
}

func (m *memRedemptionRepo) Create(_ context.Context, _ pgx.Tx, r *models.RewardRedemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	copied := *r
	m.byID[r.ID] = &copied
	m.byCode[r.Code] = r.ID
	return nil
}

func (m *memRedemptionRepo) get(id uint64) (*models.RewardRedemption, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memRedemptionRepo) GetByID(_ context.Context, _ pgx.Tx, id uint64) (*models.RewardRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *memRedemptionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*models.RewardRedemption, error) {
	return m.GetByID(ctx, tx, id)
}

func (m *memRedemptionRepo) GetByCode(_ context.Context, _ pgx.Tx, code string) (*models.RewardRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[codec.Normalize(code)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return m.get(id)
}

func (m *memRedemptionRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byCode[codec.Normalize(code)]
	return ok, nil
}

func (m *memRedemptionRepo) Transition(_ context.Context, _ pgx.Tx, id uint64, from, to enum.RedemptionStatus, usedAt *time.Time, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	if usedAt != nil {
		r.UsedAt = usedAt
	}
	if notes != "" {
		r.Notes = notes
	}
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *memRedemptionRepo) List(_ context.Context, _ pgx.Tx, filter ListFilter) ([]*models.RewardRedemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.RewardRedemption
	for _, r := range m.byID {
		if filter.MemberID != 0 && r.MemberID != filter.MemberID {
			continue
		}
		if filter.RewardID != 0 && r.RewardID != filter.RewardID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memRedemptionRepo) ExpireLapsed(_ context.Context, _ pgx.Tx, now time.Time) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id, r := range m.byID {
		if r.Status == enum.RedemptionStatusActive && r.ExpiresAt != nil && r.ExpiresAt.Before(now) {
			r.Status = enum.RedemptionStatusExpired
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memRedemptionRepo) stored(id uint64) *models.RewardRedemption {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}
