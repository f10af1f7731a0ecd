/**
 * CONTEXT:   Comp-off ledger service over balance and transaction repositories
 * INPUT:     Credit/debit/adjustment requests from the rotation engine and admins
 * OUTPUT:    Atomic balance mutations with an append-only, audit-preserving ledger
 * BUSINESS:  available = earned - used >= 0; ledger sum always equals earned - used
 * CHANGE:    Initial implementation with per-analyst mutation guards
 * RISK:      Medium - Concurrent credits/debits must never interleave on one balance
 */

package compoff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
	"github.com/shiftplanner/system/pkg/logger"
)

// InsufficientBalanceError is returned when a debit exceeds the available
// units. It surfaces to the caller and is never consumed by the engine.
type InsufficientBalanceError struct {
	AnalystID string
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient comp-off balance for analyst %s: available=%d requested=%d",
		e.AnalystID, e.Available, e.Requested)
}

// BalanceSummary is the caller-facing balance view
type BalanceSummary struct {
	AnalystID string `json:"analystId"`
	Earned    int    `json:"earned"`
	Used      int    `json:"used"`
	Available int    `json:"available"`
}

// Ledger coordinates all comp-off mutations. Every write runs under the
// analyst's guard and inside a repository transaction so balance and
// ledger rows move together.
type Ledger struct {
	repo   repositories.CompOffRepository
	log    logger.Logger
	mu     sync.Mutex
	guards map[string]*sync.Mutex
}

// NewLedger creates a comp-off ledger service
func NewLedger(repo repositories.CompOffRepository, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.NewDefaultLogger("compoff-ledger", "INFO")
	}
	return &Ledger{repo: repo, log: log, guards: make(map[string]*sync.Mutex)}
}

func (l *Ledger) guard(analystID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.guards[analystID]
	if !ok {
		g = &sync.Mutex{}
		l.guards[analystID] = g
	}
	return g
}

// loadOrCreateBalance fetches the analyst balance, creating an empty one
// on first touch
func (l *Ledger) loadOrCreateBalance(ctx context.Context, repo repositories.CompOffRepository, analystID string) (*entities.CompOffBalance, error) {
	balance, err := repo.FindBalanceByAnalyst(ctx, analystID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load comp-off balance for %s: %w", analystID, err)
	}
	balance = entities.NewCompOffBalance(analystID)
	if err := repo.SaveBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to create comp-off balance for %s: %w", analystID, err)
	}
	return balance, nil
}

// GetBalance returns the materialized balance for an analyst. A missing
// balance reads as zero without creating a row.
func (l *Ledger) GetBalance(ctx context.Context, analystID string) (*BalanceSummary, error) {
	balance, err := l.repo.FindBalanceByAnalyst(ctx, analystID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &BalanceSummary{AnalystID: analystID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comp-off balance for %s: %w", analystID, err)
	}
	return &BalanceSummary{
		AnalystID: analystID,
		Earned:    balance.EarnedUnits,
		Used:      balance.UsedUnits,
		Available: balance.Available(),
	}, nil
}

// Transactions returns the ledger history for an analyst, oldest first
func (l *Ledger) Transactions(ctx context.Context, analystID string) ([]*entities.CompOffTransaction, error) {
	balance, err := l.repo.FindBalanceByAnalyst(ctx, analystID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comp-off balance for %s: %w", analystID, err)
	}
	txns, err := l.repo.FindTransactionsByBalance(ctx, balance.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comp-off transactions for %s: %w", analystID, err)
	}
	return txns, nil
}

/**
 * CONTEXT:   Credit comp-off units from a constraint or rotation event
 * INPUT:     Analyst, originating constraint or event ID, positive units, reason code
 * OUTPUT:    Appended positive transaction with earned counter incremented
 * BUSINESS:  Weekend and holiday pattern work earns compensatory units
 * CHANGE:    Initial implementation.
 * RISK:      Low - Credits cannot overdraw; failure rolls back both rows
 */
func (l *Ledger) CreditFromConstraint(ctx context.Context, analystID, referenceID string, units int, reason string) error {
	if units <= 0 {
		return fmt.Errorf("credit units must be positive, got %d", units)
	}
	g := l.guard(analystID)
	g.Lock()
	defer g.Unlock()

	return l.repo.Atomic(ctx, func(repo repositories.CompOffRepository) error {
		balance, err := l.loadOrCreateBalance(ctx, repo, analystID)
		if err != nil {
			return err
		}

		txn := entities.NewCompOffTransaction(balance.ID, units, reason)
		txn.ConstraintID = referenceID
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to append credit transaction: %w", err)
		}

		balance.EarnedUnits += units
		balance.UpdatedAt = time.Now().UTC()
		if err := repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("failed to save credited balance: %w", err)
		}

		l.log.Debug("credited %d comp-off unit(s) to %s (reason=%s)", units, analystID, reason)
		return nil
	})
}

// CreditAutomatic posts the automatic pattern credit for a worked weekend
// day. When the day is also a holiday, a single credit is posted with
// reason HOLIDAY instead of WEEKEND.
func (l *Ledger) CreditAutomatic(ctx context.Context, analystID string, date time.Time, isHoliday bool) error {
	reason := entities.CompOffReasonWeekend
	if isHoliday {
		reason = entities.CompOffReasonHoliday
	}
	return l.CreditFromConstraint(ctx, analystID, date.Format(entities.DateKeyLayout), 1, reason)
}

/**
 * CONTEXT:   Debit comp-off units against an absence record
 * INPUT:     Analyst, absence ID, positive units to consume
 * OUTPUT:    Appended negative transaction with used counter incremented
 * BUSINESS:  Debits fail with InsufficientBalance when available < units
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Overdrawing would break the available >= 0 invariant
 */
func (l *Ledger) DebitForAbsence(ctx context.Context, analystID, absenceID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("debit units must be positive, got %d", units)
	}
	g := l.guard(analystID)
	g.Lock()
	defer g.Unlock()

	return l.repo.Atomic(ctx, func(repo repositories.CompOffRepository) error {
		balance, err := l.loadOrCreateBalance(ctx, repo, analystID)
		if err != nil {
			return err
		}
		if balance.Available() < units {
			return &InsufficientBalanceError{
				AnalystID: analystID,
				Available: balance.Available(),
				Requested: units,
			}
		}

		txn := entities.NewCompOffTransaction(balance.ID, -units, entities.CompOffReasonAbsence)
		txn.AbsenceID = absenceID
		if err := repo.AppendTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to append debit transaction: %w", err)
		}

		balance.UsedUnits += units
		balance.UpdatedAt = time.Now().UTC()
		if err := repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("failed to save debited balance: %w", err)
		}

		l.log.Debug("debited %d comp-off unit(s) from %s (absence=%s)", units, analystID, absenceID)
		return nil
	})
}

/**
 * CONTEXT:   Reconcile a balance to explicit target counters
 * INPUT:     Analyst, performing admin, optional target earned/used, free-form reason
 * OUTPUT:    One reconciling transaction equal to the net change plus the updated balance
 * BUSINESS:  Ledger integrity holds: the appended amount is (tE - tU) - (earned - used)
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Admin overrides must never desynchronize ledger sum and balance
 */
func (l *Ledger) UpdateBalance(ctx context.Context, analystID, performer string, targetEarned, targetUsed *int, reason string) error {
	g := l.guard(analystID)
	g.Lock()
	defer g.Unlock()

	return l.repo.Atomic(ctx, func(repo repositories.CompOffRepository) error {
		balance, err := l.loadOrCreateBalance(ctx, repo, analystID)
		if err != nil {
			return err
		}

		newEarned := balance.EarnedUnits
		newUsed := balance.UsedUnits
		if targetEarned != nil {
			newEarned = *targetEarned
		}
		if targetUsed != nil {
			newUsed = *targetUsed
		}
		if newEarned < 0 || newUsed < 0 || newEarned-newUsed < 0 {
			return fmt.Errorf("target balance earned=%d used=%d is invalid for analyst %s",
				newEarned, newUsed, analystID)
		}

		net := (newEarned - newUsed) - (balance.EarnedUnits - balance.UsedUnits)
		if net != 0 {
			txn := entities.NewCompOffTransaction(balance.ID, net, entities.CompOffReasonManualAdjustment)
			txn.PerformedBy = performer
			if err := repo.AppendTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to append adjustment transaction: %w", err)
			}
		}

		balance.EarnedUnits = newEarned
		balance.UsedUnits = newUsed
		balance.UpdatedAt = time.Now().UTC()
		if err := repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("failed to save adjusted balance: %w", err)
		}

		l.log.Info("balance for %s reconciled to earned=%d used=%d by %s (%s)",
			analystID, newEarned, newUsed, performer, reason)
		return nil
	})
}

// UpdateTransaction rewrites a ledger entry: the prior effect on the
// balance is reversed and the new effect applied, all in one atomic unit.
func (l *Ledger) UpdateTransaction(ctx context.Context, analystID, txnID string, newAmount int, reason, performer string) error {
	if newAmount == 0 {
		return fmt.Errorf("transaction amount cannot be updated to zero")
	}
	g := l.guard(analystID)
	g.Lock()
	defer g.Unlock()

	return l.repo.Atomic(ctx, func(repo repositories.CompOffRepository) error {
		txn, err := repo.FindTransactionByID(ctx, txnID)
		if err != nil {
			return fmt.Errorf("failed to load transaction %s: %w", txnID, err)
		}
		balance, err := l.loadOrCreateBalance(ctx, repo, analystID)
		if err != nil {
			return err
		}
		if txn.BalanceID != balance.ID {
			return fmt.Errorf("transaction %s does not belong to analyst %s", txnID, analystID)
		}

		reverseEffect(balance, txn.Amount)
		applyEffect(balance, newAmount)
		if err := balance.Validate(); err != nil {
			return fmt.Errorf("transaction update would corrupt balance: %w", err)
		}

		txn.Amount = newAmount
		if reason != "" {
			txn.Reason = reason
		}
		txn.PerformedBy = performer
		if err := repo.UpdateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", txnID, err)
		}

		balance.UpdatedAt = time.Now().UTC()
		if err := repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("failed to save balance after transaction update: %w", err)
		}

		l.log.Info("transaction %s updated to amount=%d by %s", txnID, newAmount, performer)
		return nil
	})
}

// DeleteTransaction removes a ledger entry and reverses its effect on the
// balance so the ledger sum invariant keeps holding.
func (l *Ledger) DeleteTransaction(ctx context.Context, analystID, txnID, performer string) error {
	g := l.guard(analystID)
	g.Lock()
	defer g.Unlock()

	return l.repo.Atomic(ctx, func(repo repositories.CompOffRepository) error {
		txn, err := repo.FindTransactionByID(ctx, txnID)
		if err != nil {
			return fmt.Errorf("failed to load transaction %s: %w", txnID, err)
		}
		balance, err := l.loadOrCreateBalance(ctx, repo, analystID)
		if err != nil {
			return err
		}
		if txn.BalanceID != balance.ID {
			return fmt.Errorf("transaction %s does not belong to analyst %s", txnID, analystID)
		}

		reverseEffect(balance, txn.Amount)
		if err := balance.Validate(); err != nil {
			return fmt.Errorf("transaction deletion would corrupt balance: %w", err)
		}

		if err := repo.DeleteTransaction(ctx, txnID); err != nil {
			return fmt.Errorf("failed to delete transaction %s: %w", txnID, err)
		}

		balance.UpdatedAt = time.Now().UTC()
		if err := repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("failed to save balance after transaction deletion: %w", err)
		}

		l.log.Info("transaction %s (amount=%d) deleted by %s", txnID, txn.Amount, performer)
		return nil
	})
}

// VerifyIntegrity checks the ledger sum invariant for one analyst
func (l *Ledger) VerifyIntegrity(ctx context.Context, analystID string) error {
	balance, err := l.repo.FindBalanceByAnalyst(ctx, analystID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load comp-off balance for %s: %w", analystID, err)
	}
	txns, err := l.repo.FindTransactionsByBalance(ctx, balance.ID)
	if err != nil {
		return fmt.Errorf("failed to load comp-off transactions for %s: %w", analystID, err)
	}
	if sum := entities.LedgerSum(txns); sum != balance.EarnedUnits-balance.UsedUnits {
		return fmt.Errorf("ledger sum %d does not match balance earned-used %d for analyst %s",
			sum, balance.EarnedUnits-balance.UsedUnits, analystID)
	}
	return nil
}

// applyEffect applies a signed transaction amount to the balance counters
func applyEffect(balance *entities.CompOffBalance, amount int) {
	if amount > 0 {
		balance.EarnedUnits += amount
		return
	}
	balance.UsedUnits += -amount
}

// reverseEffect undoes a previously applied transaction amount
func reverseEffect(balance *entities.CompOffBalance, amount int) {
	if amount > 0 {
		balance.EarnedUnits -= amount
		return
	}
	balance.UsedUnits -= -amount
}
