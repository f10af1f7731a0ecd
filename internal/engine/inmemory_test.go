/**
 * CONTEXT:   In-memory repository fixtures for orchestrator tests
 * INPUT:     Roster, constraint, vacation, and schedule fixtures per scenario
 * OUTPUT:    Hermetic repositories implementing every engine contract
 * BUSINESS:  Generation tests must run without a real store
 * CHANGE:    Initial test support implementation.
 * RISK:      Low - Test code with no side effects
 */

package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
)

type memRegionRepo struct {
	regions map[string]*entities.Region
}

func (m *memRegionRepo) FindByID(ctx context.Context, regionID string) (*entities.Region, error) {
	if r, ok := m.regions[regionID]; ok {
		return r, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *memRegionRepo) FindAll(ctx context.Context, activeOnly bool) ([]*entities.Region, error) {
	var out []*entities.Region
	for _, r := range m.regions {
		if !activeOnly || r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

type memAnalystRepo struct {
	analysts []*entities.Analyst
}

func (m *memAnalystRepo) FindByID(ctx context.Context, analystID string) (*entities.Analyst, error) {
	for _, a := range m.analysts {
		if a.ID == analystID {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memAnalystRepo) FindByRegion(ctx context.Context, regionID string, activeOnly bool) ([]*entities.Analyst, error) {
	var out []*entities.Analyst
	for _, a := range m.analysts {
		if a.RegionID == regionID && (!activeOnly || a.IsActive) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memShiftDefRepo struct {
	defs []*entities.ShiftDefinition
}

func (m *memShiftDefRepo) FindByRegion(ctx context.Context, regionID string) ([]*entities.ShiftDefinition, error) {
	var out []*entities.ShiftDefinition
	for _, d := range m.defs {
		if d.RegionID == regionID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memScheduleRepo struct {
	mu        sync.Mutex
	schedules []*entities.Schedule
}

func (m *memScheduleRepo) SaveAll(ctx context.Context, schedules []*entities.Schedule, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]int, len(m.schedules))
	for i, s := range m.schedules {
		existing[s.SlotKey()] = i
	}
	for _, s := range schedules {
		if i, ok := existing[s.SlotKey()]; ok {
			if overwrite {
				m.schedules[i] = s
			}
			continue
		}
		m.schedules = append(m.schedules, s)
	}
	return nil
}

func (m *memScheduleRepo) FindByRegionAndRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Schedule
	for _, s := range m.schedules {
		if s.RegionID == regionID && !s.Date.Before(start) && !s.Date.After(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotKey() < out[j].SlotKey() })
	return out, nil
}

func (m *memScheduleRepo) FindByAnalystAndRange(ctx context.Context, analystID string, start, end time.Time) ([]*entities.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Schedule
	for _, s := range m.schedules {
		if s.AnalystID == analystID && !s.Date.Before(start) && !s.Date.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memScheduleRepo) DeleteByIDs(ctx context.Context, scheduleIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[string]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		drop[id] = true
	}
	kept := m.schedules[:0]
	for _, s := range m.schedules {
		if !drop[s.ID] {
			kept = append(kept, s)
		}
	}
	m.schedules = kept
	return nil
}

type memVacationRepo struct {
	vacations []*entities.Vacation
}

func (m *memVacationRepo) FindByAnalystsAndRange(ctx context.Context, analystIDs []string, start, end time.Time) ([]*entities.Vacation, error) {
	ids := make(map[string]bool, len(analystIDs))
	for _, id := range analystIDs {
		ids[id] = true
	}
	var out []*entities.Vacation
	for _, v := range m.vacations {
		if ids[v.AnalystID] && !v.StartDate.After(end) && !v.EndDate.Before(start) {
			out = append(out, v)
		}
	}
	return out, nil
}

type memConstraintRepo struct {
	constraints []*entities.SchedulingConstraint
}

func (m *memConstraintRepo) FindActiveInRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.SchedulingConstraint, error) {
	var out []*entities.SchedulingConstraint
	for _, c := range m.constraints {
		if c.IsActive && !c.StartDate.After(end) && !c.EndDate.Before(start) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memHolidayRepo struct {
	holidays []*entities.Holiday
}

func (m *memHolidayRepo) FindByRegionAndRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.Holiday, error) {
	var out []*entities.Holiday
	for _, h := range m.holidays {
		if h.RegionID == regionID && !h.Date.Before(start) && !h.Date.After(end) {
			out = append(out, h)
		}
	}
	return out, nil
}

type memRotationRepo struct {
	mu     sync.Mutex
	states map[string]*entities.RotationState
}

func rotationKey(algorithmName, shiftType string) string {
	return algorithmName + "|" + shiftType
}

func (m *memRotationRepo) Load(ctx context.Context, algorithmName, shiftType string) (*entities.RotationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[rotationKey(algorithmName, shiftType)]; ok {
		return state.Clone(), nil
	}
	return nil, repositories.ErrNotFound
}

func (m *memRotationRepo) Save(ctx context.Context, state *entities.RotationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = make(map[string]*entities.RotationState)
	}
	key := rotationKey(state.AlgorithmName, state.ShiftType)
	if stored, ok := m.states[key]; ok && state.Version != stored.Version+1 {
		return repositories.ErrStaleSnapshot
	}
	m.states[key] = state.Clone()
	return nil
}

func (m *memRotationRepo) Delete(ctx context.Context, algorithmName, shiftType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, rotationKey(algorithmName, shiftType))
	return nil
}

type memGenerationLogRepo struct {
	logs []*entities.GenerationLog
}

func (m *memGenerationLogRepo) Save(ctx context.Context, log *entities.GenerationLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *memGenerationLogRepo) FindByRegion(ctx context.Context, regionID string, limit int) ([]*entities.GenerationLog, error) {
	var out []*entities.GenerationLog
	for _, l := range m.logs {
		if l.RegionID == regionID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memCompOffRepo struct {
	mu           sync.Mutex
	balances     map[string]*entities.CompOffBalance
	transactions map[string]*entities.CompOffTransaction
}

func newMemCompOffRepo() *memCompOffRepo {
	return &memCompOffRepo{
		balances:     make(map[string]*entities.CompOffBalance),
		transactions: make(map[string]*entities.CompOffTransaction),
	}
}

func (m *memCompOffRepo) FindBalanceByAnalyst(ctx context.Context, analystID string) (*entities.CompOffBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.balances {
		if b.AnalystID == analystID {
			dup := *b
			return &dup, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memCompOffRepo) SaveBalance(ctx context.Context, balance *entities.CompOffBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *balance
	m.balances[balance.ID] = &dup
	return nil
}

func (m *memCompOffRepo) AppendTransaction(ctx context.Context, txn *entities.CompOffTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *txn
	m.transactions[txn.ID] = &dup
	return nil
}

func (m *memCompOffRepo) UpdateTransaction(ctx context.Context, txn *entities.CompOffTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[txn.ID]; !ok {
		return repositories.ErrNotFound
	}
	dup := *txn
	m.transactions[txn.ID] = &dup
	return nil
}

func (m *memCompOffRepo) DeleteTransaction(ctx context.Context, txnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[txnID]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.transactions, txnID)
	return nil
}

func (m *memCompOffRepo) FindTransactionByID(ctx context.Context, txnID string) (*entities.CompOffTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.transactions[txnID]; ok {
		dup := *txn
		return &dup, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *memCompOffRepo) FindTransactionsByBalance(ctx context.Context, balanceID string) ([]*entities.CompOffTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.CompOffTransaction
	for _, t := range m.transactions {
		if t.BalanceID == balanceID {
			dup := *t
			out = append(out, &dup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memCompOffRepo) Atomic(ctx context.Context, fn func(repositories.CompOffRepository) error) error {
	return fn(m)
}
