/**
 * CONTEXT:   Integration tests for the SQLite store against a temp database
 * INPUT:     Repository round trips for schedules, rotation state, and the ledger
 * OUTPUT:    Coverage of slot uniqueness, compare-and-set, and atomic ledger writes
 * BUSINESS:  The relational store is the system of record for every engine write
 * CHANGE:    Initial test implementation.
 * RISK:      Low - Tests run against throwaway databases in t.TempDir
 */

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplanner/system/internal/config"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
)

func openTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	cfg := config.DefaultStorageConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")
	db, err := NewSQLiteDB(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRoster(t *testing.T, db *SQLiteDB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, NewRegionRepository(db).Save(ctx, &entities.Region{
		ID: "us-east", Name: "US East", Timezone: "America/New_York", IsActive: true,
	}))
	require.NoError(t, NewAnalystRepository(db).Save(ctx, &entities.Analyst{
		ID: "a1", DisplayName: "Analyst One", Email: "a1@example.com",
		RegionID: "us-east", ShiftAffiliation: "AM",
		EmployeeType: entities.EmployeeTypeFullTime, ExperienceLevel: entities.ExperienceMid, IsActive: true,
	}))
}

func day(key string) time.Time {
	t, _ := time.Parse("2006-01-02", key)
	return t
}

func TestScheduleSlotUniqueness(t *testing.T) {
	db := openTestDB(t)
	seedRoster(t, db)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	first, err := entities.NewSchedule(entities.ScheduleConfig{
		AnalystID: "a1", Date: day("2026-02-02"), ShiftType: "AM", RegionID: "us-east",
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveAll(ctx, []*entities.Schedule{first}, false))

	// The same slot without overwrite is skipped idempotently.
	duplicate, err := entities.NewSchedule(entities.ScheduleConfig{
		AnalystID: "a1", Date: day("2026-02-02"), ShiftType: "AM", RegionID: "us-east", IsScreener: true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveAll(ctx, []*entities.Schedule{duplicate}, false))

	stored, err := repo.FindByAnalystAndRange(ctx, "a1", day("2026-02-01"), day("2026-02-07"))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsScreener, "skip keeps the original row")

	// With overwrite the slot flags are replaced.
	require.NoError(t, repo.SaveAll(ctx, []*entities.Schedule{duplicate}, true))
	stored, err = repo.FindByAnalystAndRange(ctx, "a1", day("2026-02-01"), day("2026-02-07"))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsScreener)
}

func TestRotationStateCompareAndSet(t *testing.T) {
	db := openTestDB(t)
	repo := NewRotationStateRepository(db)
	ctx := context.Background()

	state := &entities.RotationState{
		ID: "rs1", AlgorithmName: "core", ShiftType: "AM",
		Week1Analyst: "a1", Week1StartDate: day("2026-02-01"),
		Week2Analyst: "a2", Week2StartDate: day("2026-02-03"),
		AvailablePool: []string{"a3"}, CompletedPool: []string{},
		Version: 0, LastUpdated: time.Now(),
	}
	require.NoError(t, repo.Save(ctx, state))

	loaded, err := repo.Load(ctx, "core", "AM")
	require.NoError(t, err)
	assert.Equal(t, "a1", loaded.Week1Analyst)
	assert.Equal(t, []string{"a3"}, loaded.AvailablePool)

	// A write that does not advance the stored version is stale.
	stale := loaded.Clone()
	stale.Version = loaded.Version
	err = repo.Save(ctx, stale)
	assert.True(t, errors.Is(err, repositories.ErrStaleSnapshot))

	fresh := loaded.Clone()
	fresh.Version = loaded.Version + 1
	require.NoError(t, repo.Save(ctx, fresh))

	_, err = repo.Load(ctx, "core", "PM")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestCompOffAtomicLedgerWrites(t *testing.T) {
	db := openTestDB(t)
	seedRoster(t, db)
	repo := NewCompOffRepository(db)
	ctx := context.Background()

	balance := entities.NewCompOffBalance("a1")
	err := repo.Atomic(ctx, func(txRepo repositories.CompOffRepository) error {
		if err := txRepo.SaveBalance(ctx, balance); err != nil {
			return err
		}
		txn := entities.NewCompOffTransaction(balance.ID, 2, entities.CompOffReasonWeekend)
		if err := txRepo.AppendTransaction(ctx, txn); err != nil {
			return err
		}
		balance.EarnedUnits = 2
		return txRepo.SaveBalance(ctx, balance)
	})
	require.NoError(t, err)

	stored, err := repo.FindBalanceByAnalyst(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.EarnedUnits)

	txns, err := repo.FindTransactionsByBalance(ctx, balance.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, 2, entities.LedgerSum(txns))

	// A failing atomic block rolls everything back.
	err = repo.Atomic(ctx, func(txRepo repositories.CompOffRepository) error {
		txn := entities.NewCompOffTransaction(balance.ID, 5, entities.CompOffReasonWeekend)
		if err := txRepo.AppendTransaction(ctx, txn); err != nil {
			return err
		}
		return errors.New("forced failure")
	})
	require.Error(t, err)

	txns, err = repo.FindTransactionsByBalance(ctx, balance.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1, "rolled-back transaction must not persist")
}

func TestVacationOverlapQuery(t *testing.T) {
	db := openTestDB(t)
	seedRoster(t, db)
	repo := NewVacationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &entities.Vacation{
		ID: "v1", AnalystID: "a1", StartDate: day("2026-02-03"), EndDate: day("2026-02-05"), IsApproved: true,
	}))

	overlapping, err := repo.FindByAnalystsAndRange(ctx, []string{"a1"}, day("2026-02-05"), day("2026-02-10"))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	outside, err := repo.FindByAnalystsAndRange(ctx, []string{"a1"}, day("2026-02-06"), day("2026-02-10"))
	require.NoError(t, err)
	assert.Empty(t, outside)
}
