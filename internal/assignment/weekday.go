/**
 * CONTEXT:   Per-shift weekday assignment with AM-to-PM rotation and streak caps
 * INPUT:     Weekday dates in walk order plus the shift catalog and rotation plans
 * OUTPUT:    Schedules per (date, shift) with provenance tags and coverage conflicts
 * BUSINESS:  Affiliation pools fill their shift; rotated analysts emit on the latest shift
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Provenance and shift typing feed overwrite detection downstream
 */

package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftplanner/system/internal/availability"
	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/catalog"
	"github.com/shiftplanner/system/internal/constraint"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/rotation"
	"github.com/shiftplanner/system/pkg/logger"
)

// WeekdayAssigner emits weekday schedules for one region walk
type WeekdayAssigner struct {
	cal            *calendar.Calendar
	shifts         *catalog.ShiftCatalog
	rotations      map[string]*rotation.Manager
	absence        *availability.AbsenceIndex
	constraints    *constraint.Engine
	streaks        *StreakTracker
	plan           *rotation.AMToPMPlan
	creditor       CompOffCreditor
	holidays       map[string]bool
	holidayCredits bool
	roster         []*entities.Analyst
	log            logger.Logger
}

// WeekdayAssignerConfig wires the collaborators of a weekday assigner
type WeekdayAssignerConfig struct {
	Calendar              *calendar.Calendar
	Shifts                *catalog.ShiftCatalog
	Rotations             map[string]*rotation.Manager
	Absence               *availability.AbsenceIndex
	Constraints           *constraint.Engine
	Streaks               *StreakTracker
	Plan                  *rotation.AMToPMPlan
	Creditor              CompOffCreditor
	Holidays              map[string]bool
	HolidayCompOffEnabled bool
	Roster                []*entities.Analyst
	Logger                logger.Logger
}

// NewWeekdayAssigner creates a weekday assigner
func NewWeekdayAssigner(config WeekdayAssignerConfig) *WeekdayAssigner {
	if config.Plan == nil {
		config.Plan = rotation.NewAMToPMPlan()
	}
	if config.Logger == nil {
		config.Logger = logger.NewDefaultLogger("weekday-assigner", "INFO")
	}
	return &WeekdayAssigner{
		cal:            config.Calendar,
		shifts:         config.Shifts,
		rotations:      config.Rotations,
		absence:        config.Absence,
		constraints:    config.Constraints,
		streaks:        config.Streaks,
		plan:           config.Plan,
		creditor:       config.Creditor,
		holidays:       config.Holidays,
		holidayCredits: config.HolidayCompOffEnabled,
		roster:         config.Roster,
		log:            config.Logger,
	}
}

/**
 * CONTEXT:   Assign every shift of one weekday
 * INPUT:     A Monday-Friday date in ascending walk order
 * OUTPUT:    Schedules for each shift pool plus conflicts for uncovered shifts
 * BUSINESS:  Absent, blacked-out, capped, and pattern-off analysts are skipped silently
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Candidate iteration order must stay deterministic
 */
func (wa *WeekdayAssigner) AssignDay(ctx context.Context, date time.Time) ([]*entities.Schedule, []Conflict, error) {
	dateKey := wa.cal.DateKey(date)

	if wa.constraints.BlocksAssignment("", date) {
		return nil, []Conflict{{
			DateKey: dateKey,
			Type:    ConflictBlackout,
			Message: fmt.Sprintf("date %s is blacked out by a global constraint", dateKey),
		}}, nil
	}

	var schedules []*entities.Schedule
	var conflicts []Conflict
	latest := wa.shifts.Latest()

	for _, shift := range wa.shifts.Shifts() {
		emitted := 0
		for _, analyst := range wa.roster {
			resolved, err := wa.shifts.Resolve(analyst.ShiftAffiliation)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to resolve affiliation for analyst %s: %w", analyst.ID, err)
			}
			if resolved.Name != shift.Name {
				continue
			}
			if wa.absence.IsAnalystAbsent(analyst.ID, date) {
				continue
			}
			if wa.constraints.BlocksAssignment(analyst.ID, date) {
				continue
			}
			if mgr, ok := wa.rotations[resolved.Name]; ok && !mgr.ShouldAnalystWork(analyst.ID, date) {
				continue
			}
			if wa.streaks.AtCap(analyst.ID) {
				continue
			}

			shiftType := shift.Name
			scheduleType := entities.ScheduleTypeNew
			if wa.plan.IsRotated(analyst.ID, dateKey) && shift.Name != latest.Name {
				// The rotation plan moves this analyst onto the latest
				// shift for the day.
				shiftType = latest.Name
				scheduleType = entities.ScheduleTypeAMToPMRotation
			}

			schedule, err := entities.NewSchedule(entities.ScheduleConfig{
				AnalystID: analyst.ID,
				Date:      date,
				ShiftType: shiftType,
				RegionID:  analyst.RegionID,
				Type:      scheduleType,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("failed to build weekday schedule: %w", err)
			}
			schedules = append(schedules, schedule)
			emitted++

			if wa.holidayCredits && wa.holidays[dateKey] && wa.creditor != nil {
				if err := wa.creditor.CreditAutomatic(ctx, analyst.ID, date, true); err != nil {
					return nil, nil, fmt.Errorf("failed to post holiday comp-off credit: %w", err)
				}
			}
		}

		if emitted == 0 {
			conflicts = append(conflicts, Conflict{
				DateKey:   dateKey,
				ShiftType: shift.Name,
				Type:      ConflictMissingCoverage,
				Message:   fmt.Sprintf("no analyst covers shift %s on %s", shift.Name, dateKey),
			})
		}
	}
	return schedules, conflicts, nil
}
