/**
 * CONTEXT:   Per-day weekend assignment from the staggered rotation pools
 * INPUT:     Weekend dates in walk order plus per-shift rotation, absence, constraint state
 * OUTPUT:    One schedule per weekend date per shift type, or conflicts when cascades empty
 * BUSINESS:  The planned slot analyst works unless absent, capped, or blacked out; then substitute
 * CHANGE:    Initial implementation.
 * RISK:      High - This path carries the weekend coverage and gap invariants
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

// CompOffCreditor posts automatic pattern credits. The comp-off ledger
// implements it; tests substitute a recorder.
type CompOffCreditor interface {
	CreditAutomatic(ctx context.Context, analystID string, date time.Time, isHoliday bool) error
}

// WeekendAssigner emits weekend schedules for one region walk. Each shift
// type rotates independently, so every weekend day carries one analyst
// per shift.
type WeekendAssigner struct {
	cal         *calendar.Calendar
	shifts      *catalog.ShiftCatalog
	rotations   map[string]*rotation.Manager
	absence     *availability.AbsenceIndex
	constraints *constraint.Engine
	streaks     *StreakTracker
	creditor    CompOffCreditor
	holidays    map[string]bool
	roster      map[string]*entities.Analyst
	log         logger.Logger
}

// WeekendAssignerConfig wires the collaborators of a weekend assigner
type WeekendAssignerConfig struct {
	Calendar    *calendar.Calendar
	Shifts      *catalog.ShiftCatalog
	Rotations   map[string]*rotation.Manager
	Absence     *availability.AbsenceIndex
	Constraints *constraint.Engine
	Streaks     *StreakTracker
	Creditor    CompOffCreditor
	Holidays    map[string]bool
	Roster      []*entities.Analyst
	Logger      logger.Logger
}

// NewWeekendAssigner creates a weekend assigner
func NewWeekendAssigner(config WeekendAssignerConfig) *WeekendAssigner {
	roster := make(map[string]*entities.Analyst, len(config.Roster))
	for _, a := range config.Roster {
		roster[a.ID] = a
	}
	if config.Logger == nil {
		config.Logger = logger.NewDefaultLogger("weekend-assigner", "INFO")
	}
	return &WeekendAssigner{
		cal:         config.Calendar,
		shifts:      config.Shifts,
		rotations:   config.Rotations,
		absence:     config.Absence,
		constraints: config.Constraints,
		streaks:     config.Streaks,
		creditor:    config.Creditor,
		holidays:    config.Holidays,
		roster:      roster,
		log:         config.Logger,
	}
}

// canWork checks the rules every weekend worker must pass. The planned
// slot analyst continues their own pattern, so the re-entry gap rule does
// not apply to them.
func (wa *WeekendAssigner) canWork(analystID string, date time.Time) bool {
	if wa.absence.IsAnalystAbsent(analystID, date) {
		return false
	}
	if wa.streaks.AtCap(analystID) {
		return false
	}
	return !wa.constraints.BlocksAssignment(analystID, date)
}

// eligibleSubstitute adds the minimum weekend gap rule applied to pool
// candidates returning to weekend duty
func (wa *WeekendAssigner) eligibleSubstitute(mgr *rotation.Manager, analystID string, date time.Time) bool {
	return wa.canWork(analystID, date) && mgr.Continuity().EligibleForWeekend(analystID, date)
}

/**
 * CONTEXT:   Assign one weekend date across every shift rotation
 * INPUT:     A Saturday or Sunday in ascending walk order
 * OUTPUT:    A schedule per shift rotation, or conflicts when nobody is eligible
 * BUSINESS:  Substitutes inherit the rest of the pattern week; credits post per worked day
 * CHANGE:    Initial implementation.
 * RISK:      High - Cascade order must stay deterministic for reproducible output
 */
func (wa *WeekendAssigner) AssignDay(ctx context.Context, date time.Time) ([]*entities.Schedule, []Conflict, error) {
	dateKey := wa.cal.DateKey(date)

	// A global blackout removes the whole day before any candidate is
	// considered.
	if wa.constraints.BlocksAssignment("", date) {
		return nil, []Conflict{{
			DateKey: dateKey,
			Type:    ConflictBlackout,
			Message: fmt.Sprintf("date %s is blacked out by a global constraint", dateKey),
		}}, nil
	}

	var schedules []*entities.Schedule
	var conflicts []Conflict

	for _, shift := range wa.shifts.Shifts() {
		mgr, ok := wa.rotations[shift.Name]
		if !ok {
			continue
		}

		schedule, conflict, err := wa.assignShift(ctx, mgr, shift, date)
		if err != nil {
			return nil, nil, err
		}
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
			continue
		}
		schedules = append(schedules, schedule)
	}
	return schedules, conflicts, nil
}

func (wa *WeekendAssigner) assignShift(ctx context.Context, mgr *rotation.Manager, shift *entities.ShiftDefinition, date time.Time) (*entities.Schedule, *Conflict, error) {
	dateKey := wa.cal.DateKey(date)

	analystID, pattern, err := mgr.PlanWeekendAssignmentForDate(date)
	if err != nil {
		return nil, &Conflict{
			DateKey:   dateKey,
			ShiftType: shift.Name,
			Type:      ConflictNoEligibleAnalyst,
			Message:   err.Error(),
		}, nil
	}

	if !wa.canWork(analystID, date) {
		substitute := ""
		for _, candidate := range mgr.AvailablePool() {
			if wa.eligibleSubstitute(mgr, candidate, date) {
				substitute = candidate
				break
			}
		}
		if substitute == "" {
			return nil, &Conflict{
				DateKey:   dateKey,
				ShiftType: shift.Name,
				Type:      ConflictNoEligibleAnalyst,
				Message:   fmt.Sprintf("no eligible analyst for shift %s on weekend date %s after absence cascade", shift.Name, dateKey),
			}, nil
		}
		if err := mgr.Substitute(date, substitute); err != nil {
			return nil, nil, fmt.Errorf("weekend substitution failed on %s: %w", dateKey, err)
		}
		analystID = substitute
	}

	analyst, ok := wa.roster[analystID]
	if !ok {
		return nil, nil, fmt.Errorf("rotation produced unknown analyst %s on %s", analystID, dateKey)
	}

	schedule, err := entities.NewSchedule(entities.ScheduleConfig{
		AnalystID: analystID,
		Date:      date,
		ShiftType: shift.Name,
		RegionID:  analyst.RegionID,
		Type:      entities.ScheduleTypeNew,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build weekend schedule: %w", err)
	}

	mgr.Continuity().RecordWeekendDay(analystID, date)

	if wa.creditor != nil {
		isHoliday := wa.holidays[dateKey]
		if err := wa.creditor.CreditAutomatic(ctx, analystID, date, isHoliday); err != nil {
			return nil, nil, fmt.Errorf("failed to post automatic comp-off credit: %w", err)
		}
	}

	wa.log.Debug("weekend %s shift %s (%s pattern) assigned to %s", dateKey, shift.Name, pattern, analystID)
	return schedule, nil, nil
}
