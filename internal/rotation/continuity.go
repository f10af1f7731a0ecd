/**
 * CONTEXT:   Pattern continuity tracking for weekend rotation gap enforcement
 * INPUT:     Completed weekend patterns and worked weekend dates per analyst
 * OUTPUT:    Eligibility decisions preventing back-to-back weekend duty
 * BUSINESS:  Minimum gap between weekend days is 13; a 6-day Sun-to-Sat hand-off is allowed
 * CHANGE:    Initial implementation.
 * RISK:      Low - Conservative gap checks only restrict, never force, assignments
 */

package rotation

import (
	"time"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/entities"
)

// DefaultMinWeekendGapDays is the default minimum day gap between weekend
// duties for one analyst. Two consecutive weekends are never allowed.
const DefaultMinWeekendGapDays = 13

// ContinuityTracker records the last weekend pattern each analyst closed
// and the last weekend date they worked.
type ContinuityTracker struct {
	minGapDays int
	records    map[string]*entities.PatternContinuityRecord
}

// NewContinuityTracker creates a tracker with the configured minimum gap
func NewContinuityTracker(minGapDays int) *ContinuityTracker {
	if minGapDays <= 0 {
		minGapDays = DefaultMinWeekendGapDays
	}
	return &ContinuityTracker{
		minGapDays: minGapDays,
		records:    make(map[string]*entities.PatternContinuityRecord),
	}
}

// SeedFromHistory loads the last weekend date per analyst from historical
// schedules so gap enforcement survives range boundaries
func (ct *ContinuityTracker) SeedFromHistory(cal *calendar.Calendar, history []*entities.Schedule) {
	for _, s := range history {
		if !cal.IsWeekend(s.Date) {
			continue
		}
		ct.RecordWeekendDay(s.AnalystID, s.Date)
	}
}

// RecordWeekendDay notes a worked weekend date for an analyst
func (ct *ContinuityTracker) RecordWeekendDay(analystID string, date time.Time) {
	d := entities.NormalizeDate(date)
	rec, ok := ct.records[analystID]
	if !ok {
		rec = &entities.PatternContinuityRecord{AnalystID: analystID}
		ct.records[analystID] = rec
	}
	if rec.LastWeekendDate.IsZero() || d.After(rec.LastWeekendDate) {
		rec.LastWeekendDate = d
	}
}

// RecordPatternEnd notes that an analyst closed a weekend pattern week
func (ct *ContinuityTracker) RecordPatternEnd(analystID string, pattern entities.WorkPattern, endDate time.Time) {
	rec, ok := ct.records[analystID]
	if !ok {
		rec = &entities.PatternContinuityRecord{AnalystID: analystID}
		ct.records[analystID] = rec
	}
	rec.LastPattern = pattern
	rec.LastPatternEnd = entities.NormalizeDate(endDate)
}

// LastWeekendDate returns the most recent weekend date worked, zero when
// unknown
func (ct *ContinuityTracker) LastWeekendDate(analystID string) time.Time {
	if rec, ok := ct.records[analystID]; ok {
		return rec.LastWeekendDate
	}
	return time.Time{}
}

// EligibleForWeekend reports whether assigning the analyst on the weekend
// date honors the gap rule. A delta of 1 covers the Sun following a Sat
// within the same weekend; a delta of exactly 6 is the intended
// SUN_THU to TUE_SAT hand-off.
func (ct *ContinuityTracker) EligibleForWeekend(analystID string, date time.Time) bool {
	last := ct.LastWeekendDate(analystID)
	if last.IsZero() {
		return true
	}
	delta := calendar.DaysBetween(last, entities.NormalizeDate(date))
	if delta <= 0 {
		// Same day or history ahead of the walk; treat as already
		// counted rather than a new violation.
		return true
	}
	return delta == 1 || delta == 6 || delta >= ct.minGapDays
}
