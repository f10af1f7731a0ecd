/**
 * CONTEXT:   Repository interfaces for the entities the engine writes
 * INPUT:     Schedule batches, rotation snapshots, comp-off ledger entries, run logs
 * OUTPUT:    Interface contracts with uniqueness and compare-and-set semantics
 * BUSINESS:  Schedule upserts, rotation state, and ledger rows are the engine's only writes
 * CHANGE:    Initial repository interfaces with overwrite-or-skip schedule semantics
 * RISK:      Medium - Contract semantics here back the determinism and audit guarantees
 */

package repositories

import (
	"context"
	"time"

	"github.com/shiftplanner/system/internal/entities"
)

// ScheduleRepository persists generated schedules. Writes honor the
// uniqueness constraint on (analyst, date, shiftType): with overwrite the
// existing row is replaced and audited, without it the insert is skipped
// as idempotent.
type ScheduleRepository interface {
	SaveAll(ctx context.Context, schedules []*entities.Schedule, overwrite bool) error
	FindByRegionAndRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.Schedule, error)
	FindByAnalystAndRange(ctx context.Context, analystID string, start, end time.Time) ([]*entities.Schedule, error)
	DeleteByIDs(ctx context.Context, scheduleIDs []string) error
}

// RotationStateRepository persists staggered rotation snapshots with a
// monotonic version. Save performs compare-and-set on Version and returns
// ErrStaleSnapshot on conflict; the caller reloads and retries once.
type RotationStateRepository interface {
	Load(ctx context.Context, algorithmName, shiftType string) (*entities.RotationState, error)
	Save(ctx context.Context, state *entities.RotationState) error
	Delete(ctx context.Context, algorithmName, shiftType string) error
}

// CompOffRepository persists balances and the append-only transaction
// ledger. Atomic runs the function against a transaction-scoped
// repository so balance and ledger mutations commit or roll back as one.
type CompOffRepository interface {
	FindBalanceByAnalyst(ctx context.Context, analystID string) (*entities.CompOffBalance, error)
	SaveBalance(ctx context.Context, balance *entities.CompOffBalance) error
	AppendTransaction(ctx context.Context, txn *entities.CompOffTransaction) error
	UpdateTransaction(ctx context.Context, txn *entities.CompOffTransaction) error
	DeleteTransaction(ctx context.Context, txnID string) error
	FindTransactionByID(ctx context.Context, txnID string) (*entities.CompOffTransaction, error)
	FindTransactionsByBalance(ctx context.Context, balanceID string) ([]*entities.CompOffTransaction, error)
	Atomic(ctx context.Context, fn func(CompOffRepository) error) error
}

// GenerationLogRepository persists per-run audit records
type GenerationLogRepository interface {
	Save(ctx context.Context, log *entities.GenerationLog) error
	FindByRegion(ctx context.Context, regionID string, limit int) ([]*entities.GenerationLog, error)
}
