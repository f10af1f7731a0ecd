/**
 * CONTEXT:   Region shift catalog resolving affiliations to concrete shift definitions
 * INPUT:     Region shift definitions plus analyst affiliations including legacy aliases
 * OUTPUT:    Ordered shift list with MORNING/EVENING alias resolution
 * BUSINESS:  The earliest shift of a region is the AM-equivalent, the latest the PM-equivalent
 * CHANGE:    Initial implementation.
 * RISK:      Low - Pure lookup over validated shift definitions
 */

package catalog

import (
	"fmt"
	"sort"

	"github.com/shiftplanner/system/internal/entities"
)

// ShiftCatalog holds the ordered shift definitions of one region and
// resolves analyst affiliations, including the legacy MORNING/EVENING
// aliases, to concrete shift names.
type ShiftCatalog struct {
	regionID string
	shifts   []*entities.ShiftDefinition
	byName   map[string]*entities.ShiftDefinition
}

// NewShiftCatalog builds a catalog for a region. A region with zero shift
// definitions is a fatal configuration error at generation start.
func NewShiftCatalog(regionID string, definitions []*entities.ShiftDefinition) (*ShiftCatalog, error) {
	if regionID == "" {
		return nil, fmt.Errorf("catalog region ID cannot be empty")
	}
	if len(definitions) == 0 {
		return nil, fmt.Errorf("region %s has no shift definitions", regionID)
	}

	shifts := make([]*entities.ShiftDefinition, 0, len(definitions))
	byName := make(map[string]*entities.ShiftDefinition, len(definitions))
	for _, def := range definitions {
		if def.RegionID != regionID {
			return nil, fmt.Errorf("shift %s belongs to region %s, not %s", def.Name, def.RegionID, regionID)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("invalid shift definition: %w", err)
		}
		if _, exists := byName[def.Name]; exists {
			return nil, fmt.Errorf("duplicate shift name %q in region %s", def.Name, regionID)
		}
		shifts = append(shifts, def)
		byName[def.Name] = def
	}

	// Order within a region is start time ascending, names break ties
	// deterministically.
	sort.SliceStable(shifts, func(i, j int) bool {
		if shifts[i].StartMinutes() != shifts[j].StartMinutes() {
			return shifts[i].StartMinutes() < shifts[j].StartMinutes()
		}
		return shifts[i].Name < shifts[j].Name
	})

	return &ShiftCatalog{regionID: regionID, shifts: shifts, byName: byName}, nil
}

// RegionID returns the region the catalog serves
func (sc *ShiftCatalog) RegionID() string {
	return sc.regionID
}

// Shifts returns the ordered shift definitions, earliest start first
func (sc *ShiftCatalog) Shifts() []*entities.ShiftDefinition {
	return sc.shifts
}

// Earliest returns the AM-equivalent shift of the region
func (sc *ShiftCatalog) Earliest() *entities.ShiftDefinition {
	return sc.shifts[0]
}

// Latest returns the PM-equivalent shift of the region
func (sc *ShiftCatalog) Latest() *entities.ShiftDefinition {
	return sc.shifts[len(sc.shifts)-1]
}

// Resolve maps an affiliation, including the legacy MORNING and EVENING
// aliases, to its shift definition
func (sc *ShiftCatalog) Resolve(affiliation string) (*entities.ShiftDefinition, error) {
	switch affiliation {
	case entities.AffiliationMorning:
		return sc.Earliest(), nil
	case entities.AffiliationEvening:
		return sc.Latest(), nil
	}
	if def, ok := sc.byName[affiliation]; ok {
		return def, nil
	}
	return nil, fmt.Errorf("unknown shift affiliation %q in region %s", affiliation, sc.regionID)
}

// IsMultiShift reports whether the region runs more than one shift
func (sc *ShiftCatalog) IsMultiShift() bool {
	return len(sc.shifts) > 1
}
