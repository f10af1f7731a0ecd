package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shiftplanner/system/internal/entities"
)

// GenerationLogRepository is the SQLite implementation of
// repositories.GenerationLogRepository
type GenerationLogRepository struct {
	db *SQLiteDB
}

// NewGenerationLogRepository creates a generation log repository
func NewGenerationLogRepository(db *SQLiteDB) *GenerationLogRepository {
	return &GenerationLogRepository{db: db}
}

// Save persists one run record
func (r *GenerationLogRepository) Save(ctx context.Context, log *entities.GenerationLog) error {
	metadata, err := json.Marshal(log.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode generation log metadata: %w", err)
	}
	query := `
		INSERT INTO generation_logs (run_id, performer, algorithm_name, region_id, start_date, end_date,
			schedules_generated, conflicts_detected, fairness_score, execution_time_ms,
			status, error_message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.DB().ExecContext(ctx, query,
		log.RunID, log.Performer, log.AlgorithmName, log.RegionID,
		formatDate(log.StartDate), formatDate(log.EndDate),
		log.SchedulesGenerated, log.ConflictsDetected, log.FairnessScore, log.ExecutionTimeMs,
		string(log.Status), log.ErrorMessage, string(metadata), formatTime(log.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save generation log %s: %w", log.RunID, err)
	}
	return nil
}

// FindByRegion loads the most recent run records of a region
func (r *GenerationLogRepository) FindByRegion(ctx context.Context, regionID string, limit int) ([]*entities.GenerationLog, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT run_id, performer, algorithm_name, region_id, start_date, end_date,
			schedules_generated, conflicts_detected, fairness_score, execution_time_ms,
			status, error_message, metadata, created_at
		FROM generation_logs WHERE region_id = ?
		ORDER BY created_at DESC LIMIT ?
	`
	rows, err := r.db.DB().QueryContext(ctx, query, regionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation logs for region %s: %w", regionID, err)
	}
	defer rows.Close()

	var logs []*entities.GenerationLog
	for rows.Next() {
		l := &entities.GenerationLog{}
		var startDate, endDate, status, metadata, createdAt string
		if err := rows.Scan(&l.RunID, &l.Performer, &l.AlgorithmName, &l.RegionID, &startDate, &endDate,
			&l.SchedulesGenerated, &l.ConflictsDetected, &l.FairnessScore, &l.ExecutionTimeMs,
			&status, &l.ErrorMessage, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation log row: %w", err)
		}
		l.StartDate = parseDate(startDate)
		l.EndDate = parseDate(endDate)
		l.Status = entities.GenerationStatus(status)
		l.CreatedAt = parseTime(createdAt)
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &l.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode generation log metadata: %w", err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
