/**
 * CONTEXT:   Comp-off balance and append-only transaction ledger entities
 * INPUT:     Per-analyst earned/used counters and signed ledger transactions
 * OUTPUT:    Validated balance and transaction records with ledger-sum invariant helpers
 * BUSINESS:  available = earned - used >= 0; the transaction sum always equals earned - used
 * CHANGE:    Initial implementation with audit-preserving reason codes
 * RISK:      Medium - Ledger drift would silently corrupt weekend compensation accounting
 */

package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transaction reason codes used by the engine and admin surfaces
const (
	CompOffReasonWeekend          = "WEEKEND"
	CompOffReasonHoliday          = "HOLIDAY"
	CompOffReasonAbsence          = "ABSENCE_DEBIT"
	CompOffReasonManualAdjustment = "MANUAL_BALANCE_ADJUSTMENT"
	CompOffReasonAdminOverride    = "ADMIN_OVERRIDE"
	CompOffReasonReversal         = "REVERSAL"
)

// CompOffBalance materializes the per-analyst ledger position
type CompOffBalance struct {
	ID          string    `json:"id"`
	AnalystID   string    `json:"analystId"`
	EarnedUnits int       `json:"earnedUnits"`
	UsedUnits   int       `json:"usedUnits"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewCompOffBalance creates an empty balance for an analyst
func NewCompOffBalance(analystID string) *CompOffBalance {
	return &CompOffBalance{
		ID:        uuid.New().String(),
		AnalystID: analystID,
		UpdatedAt: time.Now().UTC(),
	}
}

// Available returns the spendable units
func (b *CompOffBalance) Available() int {
	return b.EarnedUnits - b.UsedUnits
}

// Validate checks balance invariants
func (b *CompOffBalance) Validate() error {
	if b.AnalystID == "" {
		return fmt.Errorf("comp-off balance analyst ID cannot be empty")
	}
	if b.EarnedUnits < 0 || b.UsedUnits < 0 {
		return fmt.Errorf("comp-off balance for %s has negative counters", b.AnalystID)
	}
	if b.Available() < 0 {
		return fmt.Errorf("comp-off balance for %s is overdrawn: earned=%d used=%d",
			b.AnalystID, b.EarnedUnits, b.UsedUnits)
	}
	return nil
}

// CompOffTransaction is one append-only ledger entry. Amount is signed:
// positive credits earned units, negative debits against used units.
type CompOffTransaction struct {
	ID           string    `json:"id"`
	BalanceID    string    `json:"balanceId"`
	Amount       int       `json:"amount"`
	Reason       string    `json:"reason"`
	ConstraintID string    `json:"constraintId,omitempty"`
	AbsenceID    string    `json:"absenceId,omitempty"`
	PerformedBy  string    `json:"performedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewCompOffTransaction creates a ledger entry with a fresh identity
func NewCompOffTransaction(balanceID string, amount int, reason string) *CompOffTransaction {
	return &CompOffTransaction{
		ID:        uuid.New().String(),
		BalanceID: balanceID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks transaction invariants
func (t *CompOffTransaction) Validate() error {
	if t.BalanceID == "" {
		return fmt.Errorf("comp-off transaction balance ID cannot be empty")
	}
	if t.Amount == 0 {
		return fmt.Errorf("comp-off transaction amount cannot be zero")
	}
	if t.Reason == "" {
		return fmt.Errorf("comp-off transaction reason cannot be empty")
	}
	return nil
}

// LedgerSum computes the signed sum of a transaction history. The ledger
// invariant requires the sum to equal earned - used on the balance.
func LedgerSum(transactions []*CompOffTransaction) int {
	total := 0
	for _, txn := range transactions {
		total += txn.Amount
	}
	return total
}
