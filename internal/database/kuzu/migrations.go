/**
 * CONTEXT:   Schema migration for the KuzuDB schedule analytics store
 * INPUT:     Connection manager and the node/relationship table definitions
 * OUTPUT:    Graph schema ready for schedule history ingestion and queries
 * BUSINESS:  Analysts, schedule days, and WORKED edges model rotation history
 * CHANGE:    Initial schema with idempotent IF NOT EXISTS creation
 * RISK:      Low - Creation statements are idempotent and additive only
 */

package kuzu

import (
	"context"
	"fmt"
)

// schemaStatements define the analytics graph. Dates are stored as
// YYYY-MM-DD strings to match the engine's normalized date keys.
var schemaStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Analyst (
		id STRING,
		display_name STRING,
		region_id STRING,
		shift_affiliation STRING,
		PRIMARY KEY (id)
	);`,
	`CREATE NODE TABLE IF NOT EXISTS ScheduleDay (
		id STRING,
		date STRING,
		shift_type STRING,
		region_id STRING,
		is_screener BOOLEAN,
		is_weekend BOOLEAN,
		schedule_type STRING,
		PRIMARY KEY (id)
	);`,
	`CREATE REL TABLE IF NOT EXISTS WORKED (
		FROM Analyst TO ScheduleDay,
		recorded_at TIMESTAMP
	);`,
}

// MigrationManager applies the analytics schema
type MigrationManager struct {
	connManager *ConnectionManager
}

// NewMigrationManager creates a migration manager
func NewMigrationManager(connManager *ConnectionManager) *MigrationManager {
	return &MigrationManager{connManager: connManager}
}

// Migrate applies every schema statement
func (mm *MigrationManager) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		result, err := mm.connManager.Query(ctx, stmt)
		if err != nil {
			return fmt.Errorf("analytics migration statement %d failed: %w", i, err)
		}
		result.Close()
	}
	return nil
}

// ValidateSchema confirms the core tables answer queries
func (mm *MigrationManager) ValidateSchema(ctx context.Context) error {
	for _, probe := range []string{
		`MATCH (a:Analyst) RETURN count(a);`,
		`MATCH (d:ScheduleDay) RETURN count(d);`,
	} {
		result, err := mm.connManager.Query(ctx, probe)
		if err != nil {
			return fmt.Errorf("analytics schema validation failed: %w", err)
		}
		result.Close()
	}
	return nil
}
