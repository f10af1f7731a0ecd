/**
 * CONTEXT:   Shift-swap validation through block-integrity simulation
 * INPUT:     Pairwise or range swap requests between two analysts
 * OUTPUT:    Violations describing streak spans the swap would create
 * BUSINESS:  A span L violates iff L > 5 and L mod 5 != 0; 10 or 15 day blocks are allowed
 * CHANGE:    Initial implementation.
 * RISK:      Medium - The simulation must see the swap window plus seven days of context
 */

package swap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/usecases/repositories"
	"github.com/shiftplanner/system/pkg/logger"
)

// contextPaddingDays widens the simulation window on both sides so streak
// spans crossing the swap boundary are visible
const contextPaddingDays = 7

// maxStreakDays is the consecutive-day cap a block must respect
const maxStreakDays = 5

// Violation describes one streak span a swap would break
type Violation struct {
	AnalystID string `json:"analystId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Length    int    `json:"length"`
	Message   string `json:"message"`
}

// Validator simulates swaps against persisted schedules
type Validator struct {
	schedules repositories.ScheduleRepository
	log       logger.Logger
}

// NewValidator creates a swap validator
func NewValidator(schedules repositories.ScheduleRepository, log logger.Logger) *Validator {
	if log == nil {
		log = logger.NewDefaultLogger("swap-validator", "INFO")
	}
	return &Validator{schedules: schedules, log: log}
}

/**
 * CONTEXT:   Simulate an analyst's timeline after a swap and check block integrity
 * INPUT:     Context window plus the dates the analyst gains and loses
 * OUTPUT:    Violations for every streak span failing L <= 5 or L mod 5 == 0
 * BUSINESS:  The virtual timeline is existing - removed + added, deduplicated and sorted
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Missing context days would hide spans that cross the window edge
 */
func (v *Validator) SimulateAndCheck(ctx context.Context, analystID string, contextStart, contextEnd time.Time, addDates, removeDates []time.Time) ([]Violation, error) {
	existing, err := v.schedules.FindByAnalystAndRange(ctx, analystID, contextStart, contextEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules for analyst %s: %w", analystID, err)
	}

	timeline := make(map[string]bool, len(existing))
	for _, s := range existing {
		timeline[s.DateKey()] = true
	}
	for _, d := range removeDates {
		delete(timeline, entities.NormalizeDate(d).Format(entities.DateKeyLayout))
	}
	for _, d := range addDates {
		timeline[entities.NormalizeDate(d).Format(entities.DateKeyLayout)] = true
	}

	keys := make([]string, 0, len(timeline))
	for k := range timeline {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var violations []Violation
	spanStart := ""
	spanLen := 0
	var prev time.Time

	flush := func(endKey string) {
		if spanLen > maxStreakDays && spanLen%maxStreakDays != 0 {
			violations = append(violations, Violation{
				AnalystID: analystID,
				StartDate: spanStart,
				EndDate:   endKey,
				Length:    spanLen,
				Message: fmt.Sprintf("analyst %s would work %d consecutive days (%s to %s); runs beyond %d days must land on %d-day blocks",
					analystID, spanLen, spanStart, endKey, maxStreakDays, maxStreakDays),
			})
		}
	}

	for i, key := range keys {
		day, err := calendar.ParseDateKey(key)
		if err != nil {
			return nil, err
		}
		if spanLen == 0 || calendar.DaysBetween(prev, day) != 1 {
			if spanLen > 0 {
				flush(prev.Format(entities.DateKeyLayout))
			}
			spanStart = key
			spanLen = 1
		} else {
			spanLen++
		}
		prev = day
		if i == len(keys)-1 {
			flush(key)
		}
	}
	return violations, nil
}

// ValidatePairwiseSwap simulates exchanging one working day between two
// analysts and reports the combined violations
func (v *Validator) ValidatePairwiseSwap(ctx context.Context, sourceAnalyst string, sourceDate time.Time, targetAnalyst string, targetDate time.Time) ([]Violation, error) {
	first, last := entities.NormalizeDate(sourceDate), entities.NormalizeDate(targetDate)
	if last.Before(first) {
		first, last = last, first
	}
	contextStart := calendar.AddDays(first, -contextPaddingDays)
	contextEnd := calendar.AddDays(last, contextPaddingDays)

	sourceViolations, err := v.SimulateAndCheck(ctx, sourceAnalyst, contextStart, contextEnd,
		[]time.Time{targetDate}, []time.Time{sourceDate})
	if err != nil {
		return nil, err
	}
	targetViolations, err := v.SimulateAndCheck(ctx, targetAnalyst, contextStart, contextEnd,
		[]time.Time{sourceDate}, []time.Time{targetDate})
	if err != nil {
		return nil, err
	}
	return append(sourceViolations, targetViolations...), nil
}

/**
 * CONTEXT:   Range swap validation exchanging all schedules of two analysts in a window
 * INPUT:     Both analysts and the inclusive swap window
 * OUTPUT:    Violations from simulating each analyst with the other's shifts
 * BUSINESS:  Each analyst gives their window shifts and receives the counterpart's
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Give/receive sets must come from persisted state, not the request
 */
func (v *Validator) ValidateRangeSwap(ctx context.Context, sourceAnalyst, targetAnalyst string, start, end time.Time) ([]Violation, error) {
	windowStart := entities.NormalizeDate(start)
	windowEnd := entities.NormalizeDate(end)
	if windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("range swap window end %s precedes start %s",
			windowEnd.Format(entities.DateKeyLayout), windowStart.Format(entities.DateKeyLayout))
	}

	sourceGives, err := v.datesInWindow(ctx, sourceAnalyst, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	targetGives, err := v.datesInWindow(ctx, targetAnalyst, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	contextStart := calendar.AddDays(windowStart, -contextPaddingDays)
	contextEnd := calendar.AddDays(windowEnd, contextPaddingDays)

	sourceViolations, err := v.SimulateAndCheck(ctx, sourceAnalyst, contextStart, contextEnd, targetGives, sourceGives)
	if err != nil {
		return nil, err
	}
	targetViolations, err := v.SimulateAndCheck(ctx, targetAnalyst, contextStart, contextEnd, sourceGives, targetGives)
	if err != nil {
		return nil, err
	}
	return append(sourceViolations, targetViolations...), nil
}

func (v *Validator) datesInWindow(ctx context.Context, analystID string, start, end time.Time) ([]time.Time, error) {
	schedules, err := v.schedules.FindByAnalystAndRange(ctx, analystID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load swap window schedules for analyst %s: %w", analystID, err)
	}
	dates := make([]time.Time, 0, len(schedules))
	seen := make(map[string]bool)
	for _, s := range schedules {
		if seen[s.DateKey()] {
			continue
		}
		seen[s.DateKey()] = true
		dates = append(dates, s.Date)
	}
	return dates, nil
}
