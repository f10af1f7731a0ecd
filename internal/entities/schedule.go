/**
 * CONTEXT:   Schedule entity representing one analyst assignment on a date and shift
 * INPUT:     Analyst, normalized calendar date, shift type, screener flag, provenance
 * OUTPUT:    Validated Schedule entity with date-key comparison helpers
 * BUSINESS:  At most one schedule per (analyst, date, shiftType); one screener per (date, shiftType)
 * CHANGE:    Initial implementation with provenance tags for generated assignments
 * RISK:      Medium - Date normalization errors here corrupt every downstream comparison
 */

package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduleType tags the provenance of a generated schedule row
type ScheduleType string

const (
	ScheduleTypeNew               ScheduleType = "NEW"
	ScheduleTypeAMToPMRotation    ScheduleType = "AM_TO_PM_ROTATION"
	ScheduleTypeCompOffAdjustment ScheduleType = "COMP_OFF_ADJUSTMENT"
	ScheduleTypeScreenerSchedule  ScheduleType = "SCREENER_SCHEDULE"
	ScheduleTypeImported          ScheduleType = "IMPORTED"
)

// DateKeyLayout is the canonical YYYY-MM-DD layout every date comparison
// in the engine is performed on. Wall-clock arithmetic on schedule dates
// is forbidden outside the calendar package.
const DateKeyLayout = "2006-01-02"

// Schedule represents a single analyst-day-shift assignment. Date is a
// calendar date normalized to UTC midnight for storage; comparisons use
// DateKey.
type Schedule struct {
	ID         string       `json:"id"`
	AnalystID  string       `json:"analystId"`
	Date       time.Time    `json:"date"`
	ShiftType  string       `json:"shiftType"`
	IsScreener bool         `json:"isScreener"`
	RegionID   string       `json:"regionId"`
	Type       ScheduleType `json:"type"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// ScheduleConfig holds the required fields for creating a schedule
type ScheduleConfig struct {
	AnalystID  string
	Date       time.Time
	ShiftType  string
	IsScreener bool
	RegionID   string
	Type       ScheduleType
}

// NewSchedule creates a validated schedule with a fresh identity and the
// date normalized to UTC midnight
func NewSchedule(config ScheduleConfig) (*Schedule, error) {
	if config.AnalystID == "" {
		return nil, fmt.Errorf("schedule analyst ID cannot be empty")
	}
	if config.Date.IsZero() {
		return nil, fmt.Errorf("schedule date cannot be zero")
	}
	if config.ShiftType == "" {
		return nil, fmt.Errorf("schedule shift type cannot be empty")
	}
	if config.RegionID == "" {
		return nil, fmt.Errorf("schedule region ID cannot be empty")
	}
	if config.Type == "" {
		config.Type = ScheduleTypeNew
	}

	now := time.Now().UTC()
	return &Schedule{
		ID:         uuid.New().String(),
		AnalystID:  config.AnalystID,
		Date:       NormalizeDate(config.Date),
		ShiftType:  config.ShiftType,
		IsScreener: config.IsScreener,
		RegionID:   config.RegionID,
		Type:       config.Type,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NormalizeDate truncates a timestamp to its UTC calendar date at midnight
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey returns the canonical YYYY-MM-DD key for the schedule date
func (s *Schedule) DateKey() string {
	return s.Date.Format(DateKeyLayout)
}

// SlotKey identifies the uniqueness slot (analyst, date, shiftType)
func (s *Schedule) SlotKey() string {
	return fmt.Sprintf("%s|%s|%s", s.AnalystID, s.DateKey(), s.ShiftType)
}

// Validate checks schedule invariants
func (s *Schedule) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("schedule ID cannot be empty")
	}
	if s.AnalystID == "" {
		return fmt.Errorf("schedule analyst ID cannot be empty")
	}
	if s.Date.IsZero() {
		return fmt.Errorf("schedule date cannot be zero")
	}
	if !s.Date.Equal(NormalizeDate(s.Date)) {
		return fmt.Errorf("schedule date %s is not normalized to UTC midnight", s.Date)
	}
	if s.ShiftType == "" {
		return fmt.Errorf("schedule shift type cannot be empty")
	}
	switch s.Type {
	case ScheduleTypeNew, ScheduleTypeAMToPMRotation, ScheduleTypeCompOffAdjustment,
		ScheduleTypeScreenerSchedule, ScheduleTypeImported:
	default:
		return fmt.Errorf("unknown schedule type %q", s.Type)
	}
	return nil
}
