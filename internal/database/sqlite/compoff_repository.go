/**
 * CONTEXT:   SQLite comp-off balance and transaction persistence
 * INPUT:     Balance upserts, ledger appends, updates, deletes, and history queries
 * OUTPUT:    Atomic ledger mutations through transaction-scoped repository instances
 * BUSINESS:  Balance and ledger rows must commit or roll back together
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Partial commits here would break the ledger sum invariant
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
)

// CompOffRepository is the SQLite implementation of
// repositories.CompOffRepository. The zero instance runs against the
// pool; Atomic yields an instance bound to one transaction.
type CompOffRepository struct {
	db *SQLiteDB
	q  querier
}

// NewCompOffRepository creates a comp-off repository
func NewCompOffRepository(db *SQLiteDB) *CompOffRepository {
	return &CompOffRepository{db: db, q: db.DB()}
}

// Atomic runs fn against a transaction-scoped repository
func (r *CompOffRepository) Atomic(ctx context.Context, fn func(repositories.CompOffRepository) error) error {
	if _, isTx := r.q.(*sql.Tx); isTx {
		// Already inside a transaction; nest logically.
		return fn(r)
	}
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&CompOffRepository{db: r.db, q: tx})
	})
}

// FindBalanceByAnalyst loads the balance row for an analyst
func (r *CompOffRepository) FindBalanceByAnalyst(ctx context.Context, analystID string) (*entities.CompOffBalance, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, analyst_id, earned_units, used_units, updated_at FROM compoff_balances WHERE analyst_id = ?`,
		analystID)

	balance := &entities.CompOffBalance{}
	var updatedAt string
	err := row.Scan(&balance.ID, &balance.AnalystID, &balance.EarnedUnits, &balance.UsedUnits, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comp-off balance for %s: %w", analystID, err)
	}
	balance.UpdatedAt = parseTime(updatedAt)
	return balance, nil
}

// SaveBalance upserts a balance row
func (r *CompOffRepository) SaveBalance(ctx context.Context, balance *entities.CompOffBalance) error {
	if err := balance.Validate(); err != nil {
		return fmt.Errorf("comp-off balance validation failed: %w", err)
	}
	query := `
		INSERT INTO compoff_balances (id, analyst_id, earned_units, used_units, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(analyst_id) DO UPDATE SET
			earned_units = excluded.earned_units, used_units = excluded.used_units,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		balance.ID, balance.AnalystID, balance.EarnedUnits, balance.UsedUnits, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save comp-off balance for %s: %w", balance.AnalystID, err)
	}
	return nil
}

// AppendTransaction inserts a new ledger entry
func (r *CompOffRepository) AppendTransaction(ctx context.Context, txn *entities.CompOffTransaction) error {
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("comp-off transaction validation failed: %w", err)
	}
	query := `
		INSERT INTO compoff_transactions (id, balance_id, amount, reason, constraint_id, absence_id, performed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		txn.ID, txn.BalanceID, txn.Amount, txn.Reason, txn.ConstraintID, txn.AbsenceID,
		txn.PerformedBy, formatTime(txn.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append comp-off transaction %s: %w", txn.ID, err)
	}
	return nil
}

// UpdateTransaction rewrites an existing ledger entry
func (r *CompOffRepository) UpdateTransaction(ctx context.Context, txn *entities.CompOffTransaction) error {
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("comp-off transaction validation failed: %w", err)
	}
	result, err := r.q.ExecContext(ctx,
		`UPDATE compoff_transactions SET amount = ?, reason = ?, performed_by = ? WHERE id = ?`,
		txn.Amount, txn.Reason, txn.PerformedBy, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update comp-off transaction %s: %w", txn.ID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a ledger entry
func (r *CompOffRepository) DeleteTransaction(ctx context.Context, txnID string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM compoff_transactions WHERE id = ?`, txnID)
	if err != nil {
		return fmt.Errorf("failed to delete comp-off transaction %s: %w", txnID, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// FindTransactionByID loads one ledger entry
func (r *CompOffRepository) FindTransactionByID(ctx context.Context, txnID string) (*entities.CompOffTransaction, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, balance_id, amount, reason, constraint_id, absence_id, performed_by, created_at
		 FROM compoff_transactions WHERE id = ?`, txnID)

	txn := &entities.CompOffTransaction{}
	var createdAt string
	err := row.Scan(&txn.ID, &txn.BalanceID, &txn.Amount, &txn.Reason,
		&txn.ConstraintID, &txn.AbsenceID, &txn.PerformedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comp-off transaction %s: %w", txnID, err)
	}
	txn.CreatedAt = parseTime(createdAt)
	return txn, nil
}

// FindTransactionsByBalance loads the ledger history oldest first
func (r *CompOffRepository) FindTransactionsByBalance(ctx context.Context, balanceID string) ([]*entities.CompOffTransaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, balance_id, amount, reason, constraint_id, absence_id, performed_by, created_at
		 FROM compoff_transactions WHERE balance_id = ? ORDER BY created_at, id`, balanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comp-off transactions: %w", err)
	}
	defer rows.Close()

	var txns []*entities.CompOffTransaction
	for rows.Next() {
		txn := &entities.CompOffTransaction{}
		var createdAt string
		if err := rows.Scan(&txn.ID, &txn.BalanceID, &txn.Amount, &txn.Reason,
			&txn.ConstraintID, &txn.AbsenceID, &txn.PerformedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan comp-off transaction row: %w", err)
		}
		txn.CreatedAt = parseTime(createdAt)
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
