/**
 * CONTEXT:   Unit tests for the comp-off ledger over an in-memory repository
 * INPUT:     Credit, debit, reconciliation, and transaction edit scenarios
 * OUTPUT:    Coverage of the ledger sum invariant and atomic mutation rules
 * BUSINESS:  earned - used must always equal the signed transaction sum
 * CHANGE:    Initial test implementation.
 * RISK:      Low - Test code with no side effects
 */

package compoff

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
)

// memoryCompOffRepository is an in-memory repositories.CompOffRepository
type memoryCompOffRepository struct {
	balances     map[string]*entities.CompOffBalance
	transactions map[string]*entities.CompOffTransaction
}

func newMemoryCompOffRepository() *memoryCompOffRepository {
	return &memoryCompOffRepository{
		balances:     make(map[string]*entities.CompOffBalance),
		transactions: make(map[string]*entities.CompOffTransaction),
	}
}

func (m *memoryCompOffRepository) FindBalanceByAnalyst(ctx context.Context, analystID string) (*entities.CompOffBalance, error) {
	for _, b := range m.balances {
		if b.AnalystID == analystID {
			dup := *b
			return &dup, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryCompOffRepository) SaveBalance(ctx context.Context, balance *entities.CompOffBalance) error {
	dup := *balance
	m.balances[balance.ID] = &dup
	return nil
}

func (m *memoryCompOffRepository) AppendTransaction(ctx context.Context, txn *entities.CompOffTransaction) error {
	dup := *txn
	m.transactions[txn.ID] = &dup
	return nil
}

func (m *memoryCompOffRepository) UpdateTransaction(ctx context.Context, txn *entities.CompOffTransaction) error {
	if _, ok := m.transactions[txn.ID]; !ok {
		return repositories.ErrNotFound
	}
	dup := *txn
	m.transactions[txn.ID] = &dup
	return nil
}

func (m *memoryCompOffRepository) DeleteTransaction(ctx context.Context, txnID string) error {
	if _, ok := m.transactions[txnID]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.transactions, txnID)
	return nil
}

func (m *memoryCompOffRepository) FindTransactionByID(ctx context.Context, txnID string) (*entities.CompOffTransaction, error) {
	txn, ok := m.transactions[txnID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	dup := *txn
	return &dup, nil
}

func (m *memoryCompOffRepository) FindTransactionsByBalance(ctx context.Context, balanceID string) ([]*entities.CompOffTransaction, error) {
	var txns []*entities.CompOffTransaction
	for _, t := range m.transactions {
		if t.BalanceID == balanceID {
			dup := *t
			txns = append(txns, &dup)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.Before(txns[j].CreatedAt) })
	return txns, nil
}

func (m *memoryCompOffRepository) Atomic(ctx context.Context, fn func(repositories.CompOffRepository) error) error {
	return fn(m)
}

func newTestLedger() (*Ledger, *memoryCompOffRepository) {
	repo := newMemoryCompOffRepository()
	return NewLedger(repo, nil), repo
}

func TestCreditIncreasesEarned(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.CreditFromConstraint(ctx, "a1", "evt-1", 2, entities.CompOffReasonWeekend))

	summary, err := ledger.GetBalance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Earned)
	assert.Equal(t, 0, summary.Used)
	assert.Equal(t, 2, summary.Available)
	require.NoError(t, ledger.VerifyIntegrity(ctx, "a1"))
}

func TestCreditRejectsNonPositiveUnits(t *testing.T) {
	ledger, _ := newTestLedger()
	assert.Error(t, ledger.CreditFromConstraint(context.Background(), "a1", "evt", 0, entities.CompOffReasonWeekend))
	assert.Error(t, ledger.CreditFromConstraint(context.Background(), "a1", "evt", -1, entities.CompOffReasonWeekend))
}

func TestCreditAutomaticHolidayReplacesWeekendReason(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.CreditAutomatic(ctx, "a1", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), false))
	require.NoError(t, ledger.CreditAutomatic(ctx, "a1", time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC), true))

	txns, err := ledger.Transactions(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	reasons := []string{txns[0].Reason, txns[1].Reason}
	assert.Contains(t, reasons, entities.CompOffReasonWeekend)
	assert.Contains(t, reasons, entities.CompOffReasonHoliday)
}

func TestDebitFailsOnInsufficientBalance(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	err := ledger.DebitForAbsence(ctx, "a1", "abs-1", 1)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
	assert.Equal(t, 1, insufficient.Requested)

	require.NoError(t, ledger.CreditFromConstraint(ctx, "a1", "evt", 2, entities.CompOffReasonWeekend))
	require.NoError(t, ledger.DebitForAbsence(ctx, "a1", "abs-1", 1))

	summary, err := ledger.GetBalance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Available)
	require.NoError(t, ledger.VerifyIntegrity(ctx, "a1"))
}

func TestUpdateBalanceReconciliation(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	// Bring the balance to {earned: 3, used: 1}.
	require.NoError(t, ledger.CreditFromConstraint(ctx, "a1", "evt", 3, entities.CompOffReasonWeekend))
	require.NoError(t, ledger.DebitForAbsence(ctx, "a1", "abs", 1))

	earned, used := 5, 2
	require.NoError(t, ledger.UpdateBalance(ctx, "a1", "admin", &earned, &used, "quarterly reconciliation"))

	summary, err := ledger.GetBalance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Earned)
	assert.Equal(t, 2, summary.Used)
	assert.Equal(t, 3, summary.Available)

	txns, err := ledger.Transactions(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, txns, 3)
	last := txns[len(txns)-1]
	assert.Equal(t, 1, last.Amount, "(5-2) - (3-1) = +1")
	assert.Equal(t, entities.CompOffReasonManualAdjustment, last.Reason)
	require.NoError(t, ledger.VerifyIntegrity(ctx, "a1"))
}

func TestUpdateBalanceRejectsOverdraw(t *testing.T) {
	ledger, _ := newTestLedger()
	earned, used := 1, 5
	assert.Error(t, ledger.UpdateBalance(context.Background(), "a1", "admin", &earned, &used, ""))
}

func TestUpdateTransactionReversesAndApplies(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.CreditFromConstraint(ctx, "a1", "evt", 3, entities.CompOffReasonWeekend))
	txns, err := ledger.Transactions(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, txns, 1)

	require.NoError(t, ledger.UpdateTransaction(ctx, "a1", txns[0].ID, 1, entities.CompOffReasonReversal, "admin"))

	summary, err := ledger.GetBalance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Earned)
	require.NoError(t, ledger.VerifyIntegrity(ctx, "a1"))
}

func TestDeleteTransactionReversesEffect(t *testing.T) {
	ledger, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.CreditFromConstraint(ctx, "a1", "evt", 2, entities.CompOffReasonWeekend))
	txns, err := ledger.Transactions(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, txns, 1)

	require.NoError(t, ledger.DeleteTransaction(ctx, "a1", txns[0].ID, "admin"))

	summary, err := ledger.GetBalance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Earned)
	assert.Equal(t, 0, summary.Available)
	require.NoError(t, ledger.VerifyIntegrity(ctx, "a1"))
}

func TestGetBalanceWithoutHistoryReadsZero(t *testing.T) {
	ledger, _ := newTestLedger()
	summary, err := ledger.GetBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Available)
}
