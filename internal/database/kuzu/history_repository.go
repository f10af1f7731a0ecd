/**
 * CONTEXT:   Schedule history ingestion and analytics queries over the KuzuDB graph
 * INPUT:     Generated schedules plus rotation and screener statistics requests
 * OUTPUT:    WORKED edges between analysts and schedule days with aggregate queries
 * BUSINESS:  Weekend burden and screener distribution analytics feed fairness reviews
 * CHANGE:    Initial implementation mirroring the relational store as read model
 * RISK:      Low - The analytics store is derived data; SQLite stays the system of record
 */

package kuzu

import (
	"context"
	"fmt"
	"strings"
	"time"

	kuzudb "github.com/kuzudb/go-kuzu"

	"github.com/shiftplanner/system/internal/entities"
)

// HistoryRepository ingests schedule history into the analytics graph and
// answers aggregate queries
type HistoryRepository struct {
	connManager *ConnectionManager
}

// NewHistoryRepository creates a history repository
func NewHistoryRepository(connManager *ConnectionManager) *HistoryRepository {
	return &HistoryRepository{connManager: connManager}
}

func escape(value string) string {
	return strings.ReplaceAll(value, `'`, `\'`)
}

/**
 * CONTEXT:   Ingest one generation's schedules into the analytics graph
 * INPUT:     Roster analysts and the persisted schedule set
 * OUTPUT:    Analyst and ScheduleDay nodes connected by WORKED edges
 * BUSINESS:  Each schedule becomes one day node linked to its analyst
 * CHANGE:    Initial implementation.
 * RISK:      Low - MERGE keeps repeated ingestion idempotent
 */
func (hr *HistoryRepository) IngestSchedules(ctx context.Context, analysts []*entities.Analyst, schedules []*entities.Schedule) error {
	return hr.connManager.WithTransaction(ctx, func(conn *kuzudb.Connection) error {
		for _, a := range analysts {
			stmt := fmt.Sprintf(`
				MERGE (an:Analyst {id: '%s'})
				ON CREATE SET an.display_name = '%s', an.region_id = '%s', an.shift_affiliation = '%s'
				ON MATCH SET an.display_name = '%s', an.shift_affiliation = '%s';`,
				escape(a.ID), escape(a.DisplayName), escape(a.RegionID), escape(a.ShiftAffiliation),
				escape(a.DisplayName), escape(a.ShiftAffiliation))
			if _, err := conn.Query(stmt); err != nil {
				return fmt.Errorf("failed to merge analyst node %s: %w", a.ID, err)
			}
		}

		for _, s := range schedules {
			weekday := int(s.Date.Weekday())
			isWeekend := weekday == 0 || weekday == 6
			stmt := fmt.Sprintf(`
				MERGE (d:ScheduleDay {id: '%s'})
				ON CREATE SET d.date = '%s', d.shift_type = '%s', d.region_id = '%s',
					d.is_screener = %t, d.is_weekend = %t, d.schedule_type = '%s';`,
				escape(s.ID), s.DateKey(), escape(s.ShiftType), escape(s.RegionID),
				s.IsScreener, isWeekend, string(s.Type))
			if _, err := conn.Query(stmt); err != nil {
				return fmt.Errorf("failed to merge schedule day node %s: %w", s.ID, err)
			}

			edge := fmt.Sprintf(`
				MATCH (an:Analyst {id: '%s'}), (d:ScheduleDay {id: '%s'})
				MERGE (an)-[w:WORKED]->(d)
				ON CREATE SET w.recorded_at = timestamp('%s');`,
				escape(s.AnalystID), escape(s.ID), time.Now().UTC().Format("2006-01-02 15:04:05"))
			if _, err := conn.Query(edge); err != nil {
				return fmt.Errorf("failed to merge worked edge for schedule %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// WeekendLoad is the per-analyst weekend aggregate
type WeekendLoad struct {
	AnalystID   string
	WeekendDays int64
}

// WeekendLoads returns weekend day counts per analyst over a date window
func (hr *HistoryRepository) WeekendLoads(ctx context.Context, regionID, startKey, endKey string) ([]WeekendLoad, error) {
	query := fmt.Sprintf(`
		MATCH (an:Analyst)-[:WORKED]->(d:ScheduleDay)
		WHERE d.region_id = '%s' AND d.is_weekend AND d.date >= '%s' AND d.date <= '%s'
		RETURN an.id, count(d)
		ORDER BY count(d) DESC, an.id;`,
		escape(regionID), escape(startKey), escape(endKey))

	result, err := hr.connManager.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekend loads: %w", err)
	}
	defer result.Close()

	var loads []WeekendLoad
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read weekend load record: %w", err)
		}
		record, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("failed to read weekend load record: %w", err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("invalid weekend load record length %d", len(record))
		}
		analystID, _ := record[0].(string)
		count, _ := record[1].(int64)
		loads = append(loads, WeekendLoad{AnalystID: analystID, WeekendDays: count})
	}
	return loads, nil
}

// ScreenerDistribution is the per-analyst screener aggregate
type ScreenerDistribution struct {
	AnalystID    string
	ScreenerDays int64
}

// ScreenerDistributions returns screener day counts per analyst over a
// date window
func (hr *HistoryRepository) ScreenerDistributions(ctx context.Context, regionID, startKey, endKey string) ([]ScreenerDistribution, error) {
	query := fmt.Sprintf(`
		MATCH (an:Analyst)-[:WORKED]->(d:ScheduleDay)
		WHERE d.region_id = '%s' AND d.is_screener AND d.date >= '%s' AND d.date <= '%s'
		RETURN an.id, count(d)
		ORDER BY count(d) DESC, an.id;`,
		escape(regionID), escape(startKey), escape(endKey))

	result, err := hr.connManager.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query screener distribution: %w", err)
	}
	defer result.Close()

	var distributions []ScreenerDistribution
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read screener distribution record: %w", err)
		}
		record, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("failed to read screener distribution record: %w", err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("invalid screener distribution record length %d", len(record))
		}
		analystID, _ := record[0].(string)
		count, _ := record[1].(int64)
		distributions = append(distributions, ScreenerDistribution{AnalystID: analystID, ScreenerDays: count})
	}
	return distributions, nil
}
