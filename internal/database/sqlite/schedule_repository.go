/**
 * CONTEXT:   SQLite schedule persistence with slot uniqueness semantics
 * INPUT:     Schedule batches from generation plus range queries from the engine
 * OUTPUT:    Upserts honoring the overwrite-or-skip contract on (analyst, date, shiftType)
 * BUSINESS:  Without overwrite an existing slot is skipped idempotently; with it, replaced
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Slot handling backs the engine's determinism and audit guarantees
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shiftplanner/system/internal/entities"
)

// ScheduleRepository is the SQLite implementation of
// repositories.ScheduleRepository
type ScheduleRepository struct {
	db *SQLiteDB
}

// NewScheduleRepository creates a schedule repository
func NewScheduleRepository(db *SQLiteDB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, analyst_id, date, shift_type, is_screener, region_id, type, created_at, updated_at`

// SaveAll persists a batch inside one transaction. The uniqueness
// constraint on (analyst_id, date, shift_type) resolves per the overwrite
// flag: skip silently, or replace the slot's flags in place.
func (r *ScheduleRepository) SaveAll(ctx context.Context, schedules []*entities.Schedule, overwrite bool) error {
	if len(schedules) == 0 {
		return nil
	}

	conflictClause := `ON CONFLICT(analyst_id, date, shift_type) DO NOTHING`
	if overwrite {
		conflictClause = `ON CONFLICT(analyst_id, date, shift_type) DO UPDATE SET
			is_screener = excluded.is_screener, type = excluded.type, updated_at = excluded.updated_at`
	}
	query := `INSERT INTO schedules (` + scheduleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ` + conflictClause

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare schedule insert: %w", err)
		}
		defer stmt.Close()

		now := formatTime(time.Now())
		for _, s := range schedules {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("schedule validation failed: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				s.ID, s.AnalystID, s.DateKey(), s.ShiftType, boolToInt(s.IsScreener),
				s.RegionID, string(s.Type), now, now); err != nil {
				return fmt.Errorf("failed to insert schedule %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// FindByRegionAndRange loads all schedules of a region inside the
// inclusive date range
func (r *ScheduleRepository) FindByRegionAndRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE region_id = ? AND date >= ? AND date <= ?
		ORDER BY date, shift_type, analyst_id`
	rows, err := r.db.DB().QueryContext(ctx, query, regionID, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules for region %s: %w", regionID, err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// FindByAnalystAndRange loads all schedules of one analyst inside the
// inclusive date range
func (r *ScheduleRepository) FindByAnalystAndRange(ctx context.Context, analystID string, start, end time.Time) ([]*entities.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE analyst_id = ? AND date >= ? AND date <= ?
		ORDER BY date, shift_type`
	rows, err := r.db.DB().QueryContext(ctx, query, analystID, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules for analyst %s: %w", analystID, err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// DeleteByIDs removes schedules, used when a swap is applied
func (r *ScheduleRepository) DeleteByIDs(ctx context.Context, scheduleIDs []string) error {
	if len(scheduleIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(scheduleIDs)), ",")
	query := fmt.Sprintf(`DELETE FROM schedules WHERE id IN (%s)`, placeholders)
	args := make([]interface{}, 0, len(scheduleIDs))
	for _, id := range scheduleIDs {
		args = append(args, id)
	}
	if _, err := r.db.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete schedules: %w", err)
	}
	return nil
}

func scanSchedules(rows *sql.Rows) ([]*entities.Schedule, error) {
	var schedules []*entities.Schedule
	for rows.Next() {
		s := &entities.Schedule{}
		var date, scheduleType, createdAt, updatedAt string
		var screener int
		if err := rows.Scan(&s.ID, &s.AnalystID, &date, &s.ShiftType, &screener,
			&s.RegionID, &scheduleType, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		s.Date = parseDate(date)
		s.IsScreener = screener != 0
		s.Type = entities.ScheduleType(scheduleType)
		s.CreatedAt = parseTime(createdAt)
		s.UpdatedAt = parseTime(updatedAt)
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
