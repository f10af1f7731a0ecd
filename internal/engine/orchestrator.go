/**
 * CONTEXT:   Generation orchestrator composing every scheduling component over a date range
 * INPUT:     Region, inclusive date range, roster, constraints, history, algorithm options
 * OUTPUT:    Proposed schedules with overwrites, conflicts, fairness, and validation reports
 * BUSINESS:  One deterministic pass: indices, rotation plan, date walk, screeners, post-process
 * CHANGE:    Initial implementation of the redesigned core scheduler
 * RISK:      High - The orchestrator owns the all-or-nothing persistence guarantee
 */

package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shiftplanner/system/internal/assignment"
	"github.com/shiftplanner/system/internal/availability"
	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/catalog"
	"github.com/shiftplanner/system/internal/compoff"
	"github.com/shiftplanner/system/internal/config"
	"github.com/shiftplanner/system/internal/constraint"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/fairness"
	"github.com/shiftplanner/system/internal/rotation"
	"github.com/shiftplanner/system/internal/screener"
	"github.com/shiftplanner/system/internal/usecases/repositories"
	"github.com/shiftplanner/system/pkg/logger"
)

// DefaultAlgorithmName tags rotation state and run logs of the core
// scheduler
const DefaultAlgorithmName = "core-staggered-v1"

// historyLookbackDays is how far before the range the orchestrator loads
// existing schedules to seed streaks, rotation fairness, continuity, and
// screener counts
const historyLookbackDays = 21

// GenerationRequest carries one generation call
type GenerationRequest struct {
	RegionID      string
	StartDate     time.Time
	EndDate       time.Time
	Performer     string
	AlgorithmName string
	Overwrite     bool
	DryRun        bool
	Config        config.AlgorithmConfig
}

// Overwrite reports an existing schedule the proposal would replace
type Overwrite struct {
	ExistingID   string `json:"existingId"`
	ProposedID   string `json:"proposedId"`
	AnalystID    string `json:"analystId"`
	DateKey      string `json:"date"`
	OldShiftType string `json:"oldShiftType"`
	NewShiftType string `json:"newShiftType"`
	OldScreener  bool   `json:"oldScreener"`
	NewScreener  bool   `json:"newScreener"`
}

// PerformanceMetrics summarizes one run
type PerformanceMetrics struct {
	ExecutionTimeMs    int64 `json:"executionTimeMs"`
	DatesProcessed     int   `json:"datesProcessed"`
	SchedulesGenerated int   `json:"schedulesGenerated"`
}

// GenerationResult is the engine's answer to one generation call
type GenerationResult struct {
	RunID                string                      `json:"runId"`
	ProposedSchedules    []*entities.Schedule        `json:"proposedSchedules"`
	Overwrites           []Overwrite                 `json:"overwrites"`
	Conflicts            []assignment.Conflict       `json:"conflicts"`
	FairnessMetrics      fairness.Metrics            `json:"fairnessMetrics"`
	ConstraintValidation constraint.ValidationResult `json:"constraintValidation"`
	PerformanceMetrics   PerformanceMetrics          `json:"performanceMetrics"`
}

// Orchestrator owns schedule production for bounded date ranges. It reads
// every entity through repository interfaces and writes only schedules,
// rotation snapshots, comp-off transactions, and run logs.
type Orchestrator struct {
	regions        repositories.RegionRepository
	analysts       repositories.AnalystRepository
	shiftDefs      repositories.ShiftDefinitionRepository
	schedules      repositories.ScheduleRepository
	vacations      repositories.VacationRepository
	constraints    repositories.ConstraintRepository
	holidays       repositories.HolidayRepository
	rotationStates repositories.RotationStateRepository
	generationLogs repositories.GenerationLogRepository
	ledger         *compoff.Ledger
	log            logger.Logger
}

// OrchestratorConfig wires the orchestrator dependencies
type OrchestratorConfig struct {
	Regions        repositories.RegionRepository
	Analysts       repositories.AnalystRepository
	ShiftDefs      repositories.ShiftDefinitionRepository
	Schedules      repositories.ScheduleRepository
	Vacations      repositories.VacationRepository
	Constraints    repositories.ConstraintRepository
	Holidays       repositories.HolidayRepository
	RotationStates repositories.RotationStateRepository
	GenerationLogs repositories.GenerationLogRepository
	Ledger         *compoff.Ledger
	Logger         logger.Logger
}

// NewOrchestrator creates a generation orchestrator
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewDefaultLogger("orchestrator", "INFO")
	}
	return &Orchestrator{
		regions:        cfg.Regions,
		analysts:       cfg.Analysts,
		shiftDefs:      cfg.ShiftDefs,
		schedules:      cfg.Schedules,
		vacations:      cfg.Vacations,
		constraints:    cfg.Constraints,
		holidays:       cfg.Holidays,
		rotationStates: cfg.RotationStates,
		generationLogs: cfg.GenerationLogs,
		ledger:         cfg.Ledger,
		log:            cfg.Logger,
	}
}

/**
 * CONTEXT:   Run one full schedule generation over a date range
 * INPUT:     Generation request with region, range, performer, and options
 * OUTPUT:    Complete generation result, persisted only when the full pass succeeds
 * BUSINESS:  Cancellation at any date boundary discards everything already produced
 * CHANGE:    Initial implementation.
 * RISK:      High - Partial persistence here would corrupt rotation continuity
 */
func (o *Orchestrator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	started := time.Now()

	req.Config.Normalize()
	if err := req.Config.Validate(); err != nil {
		return nil, NewConfigError("invalid algorithm configuration: %v", err)
	}
	if req.AlgorithmName == "" {
		req.AlgorithmName = DefaultAlgorithmName
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, NewConfigError("end date %s precedes start date %s",
			req.EndDate.Format(entities.DateKeyLayout), req.StartDate.Format(entities.DateKeyLayout))
	}

	// Step 1: validate region, timezone, roster, shift catalog.
	region, err := o.regions.FindByID(ctx, req.RegionID)
	if err != nil {
		return nil, NewConfigError("region %s could not be loaded: %v", req.RegionID, err)
	}
	if err := region.Validate(); err != nil {
		return nil, NewConfigError("region %s is invalid: %v", req.RegionID, err)
	}
	cal, err := calendar.New(region.Timezone)
	if err != nil {
		return nil, NewConfigError("region %s timezone: %v", req.RegionID, err)
	}

	roster, err := o.analysts.FindByRegion(ctx, req.RegionID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysts for region %s: %w", req.RegionID, err)
	}
	if len(roster) == 0 {
		return nil, NewConfigError("region %s has no active analysts", req.RegionID)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })

	shiftDefs, err := o.shiftDefs.FindByRegion(ctx, req.RegionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift definitions for region %s: %w", req.RegionID, err)
	}
	shifts, err := catalog.NewShiftCatalog(req.RegionID, shiftDefs)
	if err != nil {
		return nil, NewConfigError("shift catalog for region %s: %v", req.RegionID, err)
	}

	// Step 2: build indices from boundary reads.
	rangeStart := cal.Normalize(req.StartDate)
	rangeEnd := cal.Normalize(req.EndDate)
	historyStart := calendar.AddDays(rangeStart, -historyLookbackDays)

	history, err := o.schedules.FindByRegionAndRange(ctx, req.RegionID, historyStart, calendar.AddDays(rangeStart, -1))
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule history: %w", err)
	}
	existing, err := o.schedules.FindByRegionAndRange(ctx, req.RegionID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing schedules: %w", err)
	}

	analystIDs := make([]string, 0, len(roster))
	for _, a := range roster {
		analystIDs = append(analystIDs, a.ID)
	}
	vacations, err := o.vacations.FindByAnalystsAndRange(ctx, analystIDs, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load vacations: %w", err)
	}
	absence := availability.NewAbsenceIndex(vacations, nil)

	activeConstraints, err := o.constraints.FindActiveInRange(ctx, req.RegionID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load constraints: %w", err)
	}
	constraintEngine := constraint.NewEngine(activeConstraints)

	holidayRows, err := o.holidays.FindByRegionAndRange(ctx, req.RegionID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	holidays := make(map[string]bool, len(holidayRows))
	for _, h := range holidayRows {
		holidays[h.DateKey()] = true
	}

	// Step 3: rotation planning.
	continuity := rotation.NewContinuityTracker(req.Config.MinWeekendGapDays)
	continuity.SeedFromHistory(cal, history)

	managers := make(map[string]*rotation.Manager, len(shifts.Shifts()))
	for _, shift := range shifts.Shifts() {
		shiftRoster := make([]*entities.Analyst, 0, len(roster))
		for _, a := range roster {
			resolved, err := shifts.Resolve(a.ShiftAffiliation)
			if err != nil {
				return nil, NewConfigError("analyst %s: %v", a.ID, err)
			}
			if resolved.Name == shift.Name {
				shiftRoster = append(shiftRoster, a)
			}
		}
		if len(shiftRoster) == 0 {
			continue
		}

		loaded, err := o.rotationStates.Load(ctx, req.AlgorithmName, shift.Name)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load rotation state for shift %s: %w", shift.Name, err)
		}

		mgr, err := rotation.NewManager(rotation.ManagerConfig{
			Calendar:      cal,
			AlgorithmName: req.AlgorithmName,
			ShiftType:     shift.Name,
			Analysts:      shiftRoster,
			History:       history,
			LoadedState:   loaded,
			Continuity:    continuity,
			Logger:        o.log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build rotation manager for shift %s: %w", shift.Name, err)
		}
		managers[shift.Name] = mgr
	}

	plan := rotation.NewAMToPMPlan()
	if shifts.IsMultiShift() && req.Config.AMToPMTargetCapacity > 0 {
		if amMgr, ok := managers[shifts.Earliest().Name]; ok {
			source := make([]*entities.Analyst, 0, len(roster))
			for _, a := range roster {
				resolved, _ := shifts.Resolve(a.ShiftAffiliation)
				if resolved != nil && resolved.Name == shifts.Earliest().Name {
					source = append(source, a)
				}
			}
			plan = amMgr.PlanAMToPMRotation(rangeStart, rangeEnd, source, req.Config.AMToPMTargetCapacity, history, absence)
		}
	}

	streaks := assignment.NewStreakTracker(req.Config.MaxConsecutiveWorkDays)
	streaks.SeedFromHistory(history, rangeStart)

	tracker := screener.NewFairnessTracker(screener.Strategy(req.Config.ScreenerAssignmentStrategy))
	tracker.SeedFromHistory(history)

	var creditor assignment.CompOffCreditor
	if o.ledger != nil {
		creditor = o.ledger
	}

	weekendAssigner := assignment.NewWeekendAssigner(assignment.WeekendAssignerConfig{
		Calendar:    cal,
		Shifts:      shifts,
		Rotations:   managers,
		Absence:     absence,
		Constraints: constraintEngine,
		Streaks:     streaks,
		Creditor:    creditor,
		Holidays:    holidays,
		Roster:      roster,
		Logger:      o.log,
	})
	weekdayAssigner := assignment.NewWeekdayAssigner(assignment.WeekdayAssignerConfig{
		Calendar:              cal,
		Shifts:                shifts,
		Rotations:             managers,
		Absence:               absence,
		Constraints:           constraintEngine,
		Streaks:               streaks,
		Plan:                  plan,
		Creditor:              creditor,
		Holidays:              holidays,
		HolidayCompOffEnabled: req.Config.HolidayCompOffEnabled,
		Roster:                roster,
		Logger:                o.log,
	})

	// Step 4 and 5: the date walk with screener designation per day.
	var proposed []*entities.Schedule
	var conflicts []assignment.Conflict
	emittedSlots := make(map[string]bool)
	dates := cal.WalkDays(rangeStart, rangeEnd)

	for _, day := range dates {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &Error{Kind: KindPartialResult, Message: fmt.Sprintf("generation deadline expired at %s", cal.DateKey(day))}
			}
			return nil, NewCancellationError("generation cancelled at %s", cal.DateKey(day))
		}

		var daySchedules []*entities.Schedule
		var dayConflicts []assignment.Conflict
		if cal.IsWeekend(day) {
			daySchedules, dayConflicts, err = weekendAssigner.AssignDay(ctx, day)
		} else {
			daySchedules, dayConflicts, err = weekdayAssigner.AssignDay(ctx, day)
		}
		if err != nil {
			return nil, fmt.Errorf("assignment failed on %s: %w", cal.DateKey(day), err)
		}
		conflicts = append(conflicts, dayConflicts...)

		// Uniqueness guard on (analyst, date, shiftType) within the run.
		kept := daySchedules[:0]
		for _, s := range daySchedules {
			if emittedSlots[s.SlotKey()] {
				continue
			}
			emittedSlots[s.SlotKey()] = true
			kept = append(kept, s)
		}
		daySchedules = kept

		if cal.IsWeekend(day) {
			// Weekend workdays charge screener debt instead of carrying a
			// formal screener designation.
			for _, s := range daySchedules {
				tracker.RecordWeekendDebt(s.AnalystID, day)
				tracker.RecordWorkload(s.AnalystID)
			}
		} else {
			byShift := make(map[string][]*entities.Schedule)
			for _, s := range daySchedules {
				byShift[s.ShiftType] = append(byShift[s.ShiftType], s)
				tracker.RecordWorkload(s.AnalystID)
			}
			shiftNames := make([]string, 0, len(byShift))
			for name := range byShift {
				shiftNames = append(shiftNames, name)
			}
			sort.Strings(shiftNames)
			for _, name := range shiftNames {
				pool := make([]string, 0, len(byShift[name]))
				for _, s := range byShift[name] {
					pool = append(pool, s.AnalystID)
				}
				chosen := tracker.SelectScreener(pool, day)
				for _, s := range byShift[name] {
					if s.AnalystID == chosen {
						s.IsScreener = true
						tracker.RecordScreener(chosen, day)
						break
					}
				}
			}
		}

		worked := make(map[string]bool, len(daySchedules))
		for _, s := range daySchedules {
			worked[s.AnalystID] = true
		}
		streaks.CloseDay(worked, analystIDs)

		proposed = append(proposed, daySchedules...)
	}

	sort.Slice(proposed, func(i, j int) bool {
		if !proposed[i].Date.Equal(proposed[j].Date) {
			return proposed[i].Date.Before(proposed[j].Date)
		}
		if proposed[i].ShiftType != proposed[j].ShiftType {
			return proposed[i].ShiftType < proposed[j].ShiftType
		}
		return proposed[i].AnalystID < proposed[j].AnalystID
	})

	// Step 6: post-processing.
	overwrites := computeOverwrites(existing, proposed)
	metrics := fairness.NewCalculator(cal, shifts, roster).Compute(proposed)
	validation := constraintEngine.Validate(proposed, rangeStart, rangeEnd)

	result := &GenerationResult{
		ProposedSchedules:    proposed,
		Overwrites:           overwrites,
		Conflicts:            conflicts,
		FairnessMetrics:      metrics,
		ConstraintValidation: validation,
		PerformanceMetrics: PerformanceMetrics{
			ExecutionTimeMs:    time.Since(started).Milliseconds(),
			DatesProcessed:     len(dates),
			SchedulesGenerated: len(proposed),
		},
	}

	runLog := entities.NewGenerationLog(req.Performer, req.AlgorithmName, req.RegionID, rangeStart, rangeEnd)
	result.RunID = runLog.RunID
	runLog.SchedulesGenerated = len(proposed)
	runLog.ConflictsDetected = len(conflicts)
	runLog.FairnessScore = metrics.OverallScore
	runLog.ExecutionTimeMs = result.PerformanceMetrics.ExecutionTimeMs
	runLog.Status = entities.GenerationStatusSuccess

	// Step 7: persist only after the full pass completed.
	if !req.DryRun {
		if err := o.persist(ctx, req, managers, proposed, runLog); err != nil {
			return result, err
		}
	}

	o.log.Info("generation %s produced %d schedule(s), %d conflict(s), fairness %.3f",
		runLog.RunID, len(proposed), len(conflicts), metrics.OverallScore)
	return result, nil
}

// persist writes schedules, rotation snapshots, and the run log. The
// rotation write retries once on a stale snapshot per the compare-and-set
// contract.
func (o *Orchestrator) persist(ctx context.Context, req GenerationRequest, managers map[string]*rotation.Manager, proposed []*entities.Schedule, runLog *entities.GenerationLog) error {
	if err := o.schedules.SaveAll(ctx, proposed, req.Overwrite); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSchedule) {
			return NewDataIntegrityError(nil, "schedule uniqueness violation during save: %v", err)
		}
		return fmt.Errorf("failed to persist schedules: %w", err)
	}

	shiftNames := make([]string, 0, len(managers))
	for name := range managers {
		shiftNames = append(shiftNames, name)
	}
	sort.Strings(shiftNames)
	for _, name := range shiftNames {
		snap := managers[name].Snapshot()
		err := o.rotationStates.Save(ctx, snap)
		if errors.Is(err, repositories.ErrStaleSnapshot) {
			current, loadErr := o.rotationStates.Load(ctx, snap.AlgorithmName, snap.ShiftType)
			if loadErr != nil {
				return NewDataIntegrityError([]string{snap.ID}, "rotation snapshot reload failed: %v", loadErr)
			}
			snap.Version = current.Version + 1
			err = o.rotationStates.Save(ctx, snap)
		}
		if err != nil {
			return NewDataIntegrityError([]string{snap.ID}, "rotation snapshot save failed for shift %s: %v", name, err)
		}
	}

	if o.generationLogs != nil {
		if err := o.generationLogs.Save(ctx, runLog); err != nil {
			return fmt.Errorf("failed to persist generation log: %w", err)
		}
	}
	return nil
}

// computeOverwrites pairs existing and proposed schedules by (analyst,
// date) and reports the ones whose shift type or screener flag changed
func computeOverwrites(existing, proposed []*entities.Schedule) []Overwrite {
	index := make(map[string]*entities.Schedule, len(existing))
	for _, s := range existing {
		index[s.AnalystID+"|"+s.DateKey()] = s
	}

	var overwrites []Overwrite
	for _, p := range proposed {
		old, ok := index[p.AnalystID+"|"+p.DateKey()]
		if !ok {
			continue
		}
		if old.ShiftType == p.ShiftType && old.IsScreener == p.IsScreener {
			continue
		}
		overwrites = append(overwrites, Overwrite{
			ExistingID:   old.ID,
			ProposedID:   p.ID,
			AnalystID:    p.AnalystID,
			DateKey:      p.DateKey(),
			OldShiftType: old.ShiftType,
			NewShiftType: p.ShiftType,
			OldScreener:  old.IsScreener,
			NewScreener:  p.IsScreener,
		})
	}
	return overwrites
}
