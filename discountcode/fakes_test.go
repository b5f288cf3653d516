package discountcode

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"goflare.io/redemption/codec"
	"goflare.io/redemption/driver"
	"goflare.io/redemption/errs"
	"goflare.io/redemption/event"
	"goflare.io/redemption/ledger"
	"goflare.io/redemption/member"
	"goflare.io/redemption/models"
)

var (
	_ driver.TransactionManager = memTxManager{}
	_ Repository                = (*memCodeRepo)(nil)
	_ ledger.Repository         = (*memLedger)(nil)
	_ member.Repository         = (*memMemberRepo)(nil)
	_ event.Repository          = (*memEventRepo)(nil)
)

type memTxManager struct{}

func (memTxManager) ExecuteTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// memCodeRepo keeps codes in memory; the ledger fake shares it so the
// conditional usage_count increment crosses the same state as production SQL.
type memCodeRepo struct {
	mu        sync.Mutex
	nextID    uint64
	codes     map[uint64]*models.DiscountCode
	refreshes map[uint64]int
}

func newMemCodeRepo(codes ...*models.DiscountCode) *memCodeRepo {
	m := &memCodeRepo{
		codes:     make(map[uint64]*models.DiscountCode),
		refreshes: make(map[uint64]int),
		nextID:    1,
	}
	for _, dc := range codes {
		if dc.ID == 0 {
			dc.ID = m.nextID
		}
		if dc.ID >= m.nextID {
			m.nextID = dc.ID + 1
		}
		dc.Code = codec.Normalize(dc.Code)
		m.codes[dc.ID] = dc
	}
	return m
}

func (m *memCodeRepo) Create(_ context.Context, _ pgx.Tx, dc *models.DiscountCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dc.Code = codec.Normalize(dc.Code)
	for _, existing := range m.codes {
		if existing.Code == dc.Code {
			return errs.ErrConflict
		}
	}
	dc.ID = m.nextID
	m.nextID++
	dc.CreatedAt = time.Now()
	copied := *dc
	m.codes[dc.ID] = &copied
	return nil
}

func (m *memCodeRepo) GetByID(_ context.Context, _ pgx.Tx, id uint64) (*models.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dc, ok := m.codes[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *dc
	return &copied, nil
}

func (m *memCodeRepo) GetByCode(_ context.Context, _ pgx.Tx, code string) (*models.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalized := codec.Normalize(code)
	for _, dc := range m.codes {
		if dc.Code == normalized {
			copied := *dc
			return &copied, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memCodeRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalized := codec.Normalize(code)
	for _, dc := range m.codes {
		if dc.Code == normalized {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCodeRepo) Update(_ context.Context, _ pgx.Tx, partial *models.PartialDiscountCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dc, ok := m.codes[partial.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if partial.Name != nil {
		dc.Name = *partial.Name
	}
	if partial.IsActive != nil {
		dc.IsActive = *partial.IsActive
	}
	if partial.ValidUntil != nil {
		dc.ValidUntil = partial.ValidUntil
	}
	dc.UpdatedAt = time.Now()
	return nil
}

func (m *memCodeRepo) Deactivate(_ context.Context, _ pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dc, ok := m.codes[id]
	if !ok {
		return errs.ErrNotFound
	}
	dc.IsActive = false
	return nil
}

func (m *memCodeRepo) List(_ context.Context, _ pgx.Tx, _ ListFilter) ([]*models.DiscountCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.DiscountCode, 0, len(m.codes))
	for _, dc := range m.codes {
		copied := *dc
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memCodeRepo) RefreshCache(_ context.Context, _ pgx.Tx, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes[id]++
}

func (m *memCodeRepo) usageCount(id uint64) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[id].UsageCount
}

func (m *memCodeRepo) refreshCount(id uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes[id]
}

// memLedger mirrors the conditional check-and-increment of the SQL ledger:
// the insert and the counter move under one lock, exactly like one statement.
type memLedger struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]*models.DiscountUsage
	codes   *memCodeRepo
}

func newMemLedger(codes *memCodeRepo) *memLedger {
	return &memLedger{nextID: 1, entries: make(map[uint64]*models.DiscountUsage), codes: codes}
}

func (m *memLedger) Record(_ context.Context, _ pgx.Tx, usage *models.DiscountUsage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes.mu.Lock()
	defer m.codes.mu.Unlock()

	dc, ok := m.codes.codes[usage.DiscountCodeID]
	if !ok {
		return errs.ErrNotFound
	}
	if dc.UsageLimit != nil && dc.UsageCount >= *dc.UsageLimit {
		return errs.ErrConflict
	}
	dc.UsageCount++

	usage.ID = m.nextID
	m.nextID++
	copied := *usage
	m.entries[usage.ID] = &copied
	return nil
}

func (m *memLedger) CountForMember(_ context.Context, _ pgx.Tx, codeID, memberID uint64) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int32
	for _, e := range m.entries {
		if e.DiscountCodeID == codeID && e.MemberID == memberID && !e.Reversed {
			n++
		}
	}
	return n, nil
}

func (m *memLedger) Reverse(_ context.Context, _ pgx.Tx, entryID uint64, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return false, errs.ErrNotFound
	}
	if e.Reversed {
		return false, nil
	}
	now := time.Now()
	e.Reversed = true
	e.ReversedAt = &now
	e.ReversalReason = reason

	m.codes.mu.Lock()
	defer m.codes.mu.Unlock()
	if dc, ok := m.codes.codes[e.DiscountCodeID]; ok && dc.UsageCount > 0 {
		dc.UsageCount--
	}
	return true, nil
}

func (m *memLedger) GetByID(_ context.Context, _ pgx.Tx, entryID uint64) (*models.DiscountUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memLedger) ListByCode(_ context.Context, _ pgx.Tx, codeID uint64, _, _ uint64) ([]*models.DiscountUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.DiscountUsage
	for _, e := range m.entries {
		if e.DiscountCodeID == codeID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memLedger) liveEntries(codeID uint64) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int32
	for _, e := range m.entries {
		if e.DiscountCodeID == codeID && !e.Reversed {
			n++
		}
	}
	return n
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
	mb.PointsBalance -= points
	return nil
}

func (m *memMemberRepo) Credit(_ context.Context, _ pgx.Tx, memberID uint64, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mb, ok := m.members[memberID]; ok {
		mb.PointsBalance += points
	}
	return nil
}

func (m *memMemberRepo) PaidSubscriptionCount(_ context.Context, _ pgx.Tx, memberID uint64) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mb, ok := m.members[memberID]; ok {
		return mb.PaidSubscriptions, nil
	}
	return 0, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*models.TransitionEvent
}

func (m *memEventRepo) Create(_ context.Context, _ pgx.Tx, event *models.TransitionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uint64(len(m.events) + 1)
	copied := *event
	m.events = append(m.events, &copied)
	return nil
}

func (m *memEventRepo) GetByID(_ context.Context, id uint64) (*models.TransitionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memEventRepo) ListUnprocessed(_ context.Context, _ uint64) ([]*models.TransitionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TransitionEvent
	for _, e := range m.events {
		if !e.Processed {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memEventRepo) MarkAsProcessed(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Processed = true
			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *memEventRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
