/**
 * CONTEXT:   SQLite repositories for roster entities consumed by the engine
 * INPUT:     Region, analyst, shift, vacation, constraint, and holiday queries
 * OUTPUT:    Repository implementations with prepared statements and row mapping
 * BUSINESS:  The engine reads the roster; upsert methods serve the admin CLI
 * CHANGE:    Initial implementation.
 * RISK:      Low - Parameter binding throughout, no string-built SQL
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
)

// RegionRepository is the SQLite implementation of repositories.RegionRepository
type RegionRepository struct {
	db *SQLiteDB
}

// NewRegionRepository creates a region repository
func NewRegionRepository(db *SQLiteDB) *RegionRepository {
	return &RegionRepository{db: db}
}

// Save upserts a region
func (r *RegionRepository) Save(ctx context.Context, region *entities.Region) error {
	if err := region.Validate(); err != nil {
		return fmt.Errorf("region validation failed: %w", err)
	}
	now := formatTime(time.Now())
	query := `
		INSERT INTO regions (id, name, timezone, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, timezone = excluded.timezone,
			is_active = excluded.is_active, updated_at = excluded.updated_at
	`
	_, err := r.db.DB().ExecContext(ctx, query,
		region.ID, region.Name, region.Timezone, boolToInt(region.IsActive), now, now)
	if err != nil {
		return fmt.Errorf("failed to save region %s: %w", region.ID, err)
	}
	return nil
}

// FindByID loads one region
func (r *RegionRepository) FindByID(ctx context.Context, regionID string) (*entities.Region, error) {
	query := `SELECT id, name, timezone, is_active, created_at, updated_at FROM regions WHERE id = ?`
	return scanRegion(r.db.DB().QueryRowContext(ctx, query, regionID))
}

// FindAll loads regions, optionally only active ones
func (r *RegionRepository) FindAll(ctx context.Context, activeOnly bool) ([]*entities.Region, error) {
	query := `SELECT id, name, timezone, is_active, created_at, updated_at FROM regions`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var regions []*entities.Region
	for rows.Next() {
		region := &entities.Region{}
		var active int
		var createdAt, updatedAt string
		if err := rows.Scan(&region.ID, &region.Name, &region.Timezone, &active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan region row: %w", err)
		}
		region.IsActive = active != 0
		region.CreatedAt = parseTime(createdAt)
		region.UpdatedAt = parseTime(updatedAt)
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

func scanRegion(row *sql.Row) (*entities.Region, error) {
	region := &entities.Region{}
	var active int
	var createdAt, updatedAt string
	err := row.Scan(&region.ID, &region.Name, &region.Timezone, &active, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan region: %w", err)
	}
	region.IsActive = active != 0
	region.CreatedAt = parseTime(createdAt)
	region.UpdatedAt = parseTime(updatedAt)
	return region, nil
}

// AnalystRepository is the SQLite implementation of repositories.AnalystRepository
type AnalystRepository struct {
	db *SQLiteDB
}

// NewAnalystRepository creates an analyst repository
func NewAnalystRepository(db *SQLiteDB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

// Save upserts an analyst
func (r *AnalystRepository) Save(ctx context.Context, analyst *entities.Analyst) error {
	if err := analyst.Validate(); err != nil {
		return fmt.Errorf("analyst validation failed: %w", err)
	}
	now := formatTime(time.Now())
	query := `
		INSERT INTO analysts (id, display_name, email, region_id, shift_affiliation,
			employee_type, experience_level, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name, email = excluded.email,
			region_id = excluded.region_id, shift_affiliation = excluded.shift_affiliation,
			employee_type = excluded.employee_type, experience_level = excluded.experience_level,
			is_active = excluded.is_active, updated_at = excluded.updated_at
	`
	_, err := r.db.DB().ExecContext(ctx, query,
		analyst.ID, analyst.DisplayName, analyst.Email, analyst.RegionID, analyst.ShiftAffiliation,
		string(analyst.EmployeeType), string(analyst.ExperienceLevel), boolToInt(analyst.IsActive), now, now)
	if err != nil {
		return fmt.Errorf("failed to save analyst %s: %w", analyst.ID, err)
	}
	return nil
}

const analystColumns = `id, display_name, email, region_id, shift_affiliation,
	employee_type, experience_level, is_active, created_at, updated_at`

// FindByID loads one analyst
func (r *AnalystRepository) FindByID(ctx context.Context, analystID string) (*entities.Analyst, error) {
	query := `SELECT ` + analystColumns + ` FROM analysts WHERE id = ?`
	rows, err := r.db.DB().QueryContext(ctx, query, analystID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyst %s: %w", analystID, err)
	}
	defer rows.Close()
	analysts, err := scanAnalysts(rows)
	if err != nil {
		return nil, err
	}
	if len(analysts) == 0 {
		return nil, repositories.ErrNotFound
	}
	return analysts[0], nil
}

// FindByRegion loads the roster of one region
func (r *AnalystRepository) FindByRegion(ctx context.Context, regionID string, activeOnly bool) ([]*entities.Analyst, error) {
	query := `SELECT ` + analystColumns + ` FROM analysts WHERE region_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db.DB().QueryContext(ctx, query, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysts for region %s: %w", regionID, err)
	}
	defer rows.Close()
	return scanAnalysts(rows)
}

func scanAnalysts(rows *sql.Rows) ([]*entities.Analyst, error) {
	var analysts []*entities.Analyst
	for rows.Next() {
		a := &entities.Analyst{}
		var employeeType, experienceLevel string
		var active int
		var createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.Email, &a.RegionID, &a.ShiftAffiliation,
			&employeeType, &experienceLevel, &active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analyst row: %w", err)
		}
		a.EmployeeType = entities.EmployeeType(employeeType)
		a.ExperienceLevel = entities.ExperienceLevel(experienceLevel)
		a.IsActive = active != 0
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		analysts = append(analysts, a)
	}
	return analysts, rows.Err()
}

// ShiftDefinitionRepository is the SQLite implementation of
// repositories.ShiftDefinitionRepository
type ShiftDefinitionRepository struct {
	db *SQLiteDB
}

// NewShiftDefinitionRepository creates a shift definition repository
func NewShiftDefinitionRepository(db *SQLiteDB) *ShiftDefinitionRepository {
	return &ShiftDefinitionRepository{db: db}
}

// Save upserts a shift definition
func (r *ShiftDefinitionRepository) Save(ctx context.Context, def *entities.ShiftDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("shift definition validation failed: %w", err)
	}
	now := formatTime(time.Now())
	query := `
		INSERT INTO shift_definitions (id, region_id, name, start_time, end_time, is_overnight, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region_id, name) DO UPDATE SET
			start_time = excluded.start_time, end_time = excluded.end_time,
			is_overnight = excluded.is_overnight, updated_at = excluded.updated_at
	`
	_, err := r.db.DB().ExecContext(ctx, query,
		def.ID, def.RegionID, def.Name, def.StartTime, def.EndTime, boolToInt(def.IsOvernight), now, now)
	if err != nil {
		return fmt.Errorf("failed to save shift definition %s/%s: %w", def.RegionID, def.Name, err)
	}
	return nil
}

// FindByRegion loads the shift templates of one region ordered by start
func (r *ShiftDefinitionRepository) FindByRegion(ctx context.Context, regionID string) ([]*entities.ShiftDefinition, error) {
	query := `
		SELECT id, region_id, name, start_time, end_time, is_overnight, created_at, updated_at
		FROM shift_definitions WHERE region_id = ? ORDER BY start_time, name
	`
	rows, err := r.db.DB().QueryContext(ctx, query, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift definitions for region %s: %w", regionID, err)
	}
	defer rows.Close()

	var defs []*entities.ShiftDefinition
	for rows.Next() {
		def := &entities.ShiftDefinition{}
		var overnight int
		var createdAt, updatedAt string
		if err := rows.Scan(&def.ID, &def.RegionID, &def.Name, &def.StartTime, &def.EndTime,
			&overnight, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shift definition row: %w", err)
		}
		def.IsOvernight = overnight != 0
		def.CreatedAt = parseTime(createdAt)
		def.UpdatedAt = parseTime(updatedAt)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// VacationRepository is the SQLite implementation of repositories.VacationRepository
type VacationRepository struct {
	db *SQLiteDB
}

// NewVacationRepository creates a vacation repository
func NewVacationRepository(db *SQLiteDB) *VacationRepository {
	return &VacationRepository{db: db}
}

// Save upserts a vacation record
func (r *VacationRepository) Save(ctx context.Context, vacation *entities.Vacation) error {
	if err := vacation.Validate(); err != nil {
		return fmt.Errorf("vacation validation failed: %w", err)
	}
	query := `
		INSERT INTO vacations (id, analyst_id, start_date, end_date, is_approved, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date, end_date = excluded.end_date,
			is_approved = excluded.is_approved, reason = excluded.reason
	`
	_, err := r.db.DB().ExecContext(ctx, query,
		vacation.ID, vacation.AnalystID, formatDate(vacation.StartDate), formatDate(vacation.EndDate),
		boolToInt(vacation.IsApproved), vacation.Reason, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save vacation %s: %w", vacation.ID, err)
	}
	return nil
}

// FindByAnalystsAndRange loads vacations overlapping the range for the
// given analysts
func (r *VacationRepository) FindByAnalystsAndRange(ctx context.Context, analystIDs []string, start, end time.Time) ([]*entities.Vacation, error) {
	if len(analystIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(analystIDs)), ",")
	query := fmt.Sprintf(`
		SELECT id, analyst_id, start_date, end_date, is_approved, reason, created_at
		FROM vacations
		WHERE analyst_id IN (%s) AND start_date <= ? AND end_date >= ?
		ORDER BY analyst_id, start_date
	`, placeholders)

	args := make([]interface{}, 0, len(analystIDs)+2)
	for _, id := range analystIDs {
		args = append(args, id)
	}
	args = append(args, formatDate(end), formatDate(start))

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vacations: %w", err)
	}
	defer rows.Close()

	var vacations []*entities.Vacation
	for rows.Next() {
		v := &entities.Vacation{}
		var startDate, endDate, createdAt string
		var approved int
		if err := rows.Scan(&v.ID, &v.AnalystID, &startDate, &endDate, &approved, &v.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan vacation row: %w", err)
		}
		v.StartDate = parseDate(startDate)
		v.EndDate = parseDate(endDate)
		v.IsApproved = approved != 0
		v.CreatedAt = parseTime(createdAt)
		vacations = append(vacations, v)
	}
	return vacations, rows.Err()
}

// ConstraintRepository is the SQLite implementation of repositories.ConstraintRepository
type ConstraintRepository struct {
	db *SQLiteDB
}

// NewConstraintRepository creates a constraint repository
func NewConstraintRepository(db *SQLiteDB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// Save upserts a scheduling constraint
func (r *ConstraintRepository) Save(ctx context.Context, c *entities.SchedulingConstraint) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("constraint validation failed: %w", err)
	}
	var analystID interface{}
	if c.AnalystID != "" {
		analystID = c.AnalystID
	}
	query := `
		INSERT INTO scheduling_constraints (id, analyst_id, constraint_type, start_date, end_date, is_active, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			analyst_id = excluded.analyst_id, constraint_type = excluded.constraint_type,
			start_date = excluded.start_date, end_date = excluded.end_date,
			is_active = excluded.is_active, description = excluded.description
	`
	_, err := r.db.DB().ExecContext(ctx, query,
		c.ID, analystID, string(c.ConstraintType), formatDate(c.StartDate), formatDate(c.EndDate),
		boolToInt(c.IsActive), c.Description, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save constraint %s: %w", c.ID, err)
	}
	return nil
}

// FindActiveInRange loads active constraints overlapping the range
func (r *ConstraintRepository) FindActiveInRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.SchedulingConstraint, error) {
	// Constraints are not region-scoped in storage; analyst scoping is
	// resolved by the engine against the region roster.
	query := `
		SELECT id, analyst_id, constraint_type, start_date, end_date, is_active, description, created_at
		FROM scheduling_constraints
		WHERE is_active = 1 AND start_date <= ? AND end_date >= ?
		ORDER BY id
	`
	rows, err := r.db.DB().QueryContext(ctx, query, formatDate(end), formatDate(start))
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}
	defer rows.Close()

	var constraints []*entities.SchedulingConstraint
	for rows.Next() {
		c := &entities.SchedulingConstraint{}
		var analystID sql.NullString
		var constraintType, startDate, endDate, createdAt string
		var active int
		if err := rows.Scan(&c.ID, &analystID, &constraintType, &startDate, &endDate,
			&active, &c.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan constraint row: %w", err)
		}
		c.AnalystID = analystID.String
		c.ConstraintType = entities.ConstraintType(constraintType)
		c.StartDate = parseDate(startDate)
		c.EndDate = parseDate(endDate)
		c.IsActive = active != 0
		c.CreatedAt = parseTime(createdAt)
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}

// HolidayRepository is the SQLite implementation of repositories.HolidayRepository
type HolidayRepository struct {
	db *SQLiteDB
}

// NewHolidayRepository creates a holiday repository
func NewHolidayRepository(db *SQLiteDB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Save upserts a holiday
func (r *HolidayRepository) Save(ctx context.Context, h *entities.Holiday) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("holiday validation failed: %w", err)
	}
	query := `
		INSERT INTO holidays (id, region_id, date, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(region_id, date, name) DO NOTHING
	`
	_, err := r.db.DB().ExecContext(ctx, query, h.ID, h.RegionID, formatDate(h.Date), h.Name)
	if err != nil {
		return fmt.Errorf("failed to save holiday %s: %w", h.Name, err)
	}
	return nil
}

// FindByRegionAndRange loads holidays of a region inside the range
func (r *HolidayRepository) FindByRegionAndRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.Holiday, error) {
	query := `
		SELECT id, region_id, date, name FROM holidays
		WHERE region_id = ? AND date >= ? AND date <= ?
		ORDER BY date, name
	`
	rows, err := r.db.DB().QueryContext(ctx, query, regionID, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays for region %s: %w", regionID, err)
	}
	defer rows.Close()

	var holidays []*entities.Holiday
	for rows.Next() {
		h := &entities.Holiday{}
		var date string
		if err := rows.Scan(&h.ID, &h.RegionID, &date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday row: %w", err)
		}
		h.Date = parseDate(date)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
