/**
 * CONTEXT:   Repository interfaces for roster entities following Dependency Inversion
 * INPUT:     Region, analyst, shift, vacation, constraint, and holiday query parameters
 * OUTPUT:    Interface contracts enabling multiple storage backend implementations
 * BUSINESS:  The engine reads roster data through these contracts and never writes it
 * CHANGE:    Initial repository interfaces following Clean Architecture principles
 * RISK:      Low - Interface definitions with no implementation dependencies
 */

package repositories

import (
	"context"
	"time"

	"github.com/shiftplanner/system/internal/entities"
)

// RegionRepository provides read access to operational regions
type RegionRepository interface {
	FindByID(ctx context.Context, regionID string) (*entities.Region, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*entities.Region, error)
}

// AnalystRepository provides read access to the analyst roster
type AnalystRepository interface {
	FindByID(ctx context.Context, analystID string) (*entities.Analyst, error)
	FindByRegion(ctx context.Context, regionID string, activeOnly bool) ([]*entities.Analyst, error)
}

// ShiftDefinitionRepository provides read access to per-region shift templates
type ShiftDefinitionRepository interface {
	FindByRegion(ctx context.Context, regionID string) ([]*entities.ShiftDefinition, error)
}

// VacationRepository provides read access to vacation records
type VacationRepository interface {
	FindByAnalystsAndRange(ctx context.Context, analystIDs []string, start, end time.Time) ([]*entities.Vacation, error)
}

// ConstraintRepository provides read access to scheduling constraints
type ConstraintRepository interface {
	// FindActiveInRange returns active constraints whose window overlaps
	// [start, end], both global and analyst-scoped.
	FindActiveInRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.SchedulingConstraint, error)
}

// HolidayRepository provides read access to per-region holidays
type HolidayRepository interface {
	FindByRegionAndRange(ctx context.Context, regionID string, start, end time.Time) ([]*entities.Holiday, error)
}
