/**
 * CONTEXT:   Staggered two-analyst weekend rotation pool state machine
 * INPUT:     Active shift roster, historical weekend burden, optional persisted state
 * OUTPUT:    Deterministic weekend slot assignments with fair pool cycling
 * BUSINESS:  Every analyst takes a weekend before anyone takes a second; slots stagger by two days
 * CHANGE:    Initial implementation of the redesigned core rotation
 * RISK:      High - Slot arithmetic errors break the one-analyst-per-weekend-day guarantee
 */

package rotation

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/pkg/logger"
)

// patternWeekDays is the length of one pattern week in calendar days
const patternWeekDays = 7

// week2StaggerDays offsets the TUE_SAT slot from the SUN_THU slot so each
// weekend has exactly one Sunday worker and one Saturday worker
const week2StaggerDays = 2

// Manager drives the weekend rotation for one (algorithmName, shiftType)
// pair. It is strictly forward-only: dates must be requested in ascending
// order within a generation, which the orchestrator's date walk guarantees.
type Manager struct {
	cal        *calendar.Calendar
	state      *entities.RotationState
	continuity *ContinuityTracker
	roster     map[string]*entities.Analyst
	log        logger.Logger
}

// ManagerConfig carries the inputs needed to build a rotation manager
type ManagerConfig struct {
	Calendar      *calendar.Calendar
	AlgorithmName string
	ShiftType     string
	Analysts      []*entities.Analyst
	History       []*entities.Schedule
	LoadedState   *entities.RotationState
	Continuity    *ContinuityTracker
	Logger        logger.Logger
}

/**
 * CONTEXT:   Rotation manager construction with fairness-seeded pool ordering
 * INPUT:     Shift roster, weekend history, and an optional persisted snapshot
 * OUTPUT:    Manager ready to plan weekend assignments from the first requested date
 * BUSINESS:  Initial pool order: fewest historical weekend days, longest since last weekend, name
 * CHANGE:    Initial implementation.
 * RISK:      Medium - A biased initial order would skew weekend burden for whole cycles
 */
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Calendar == nil {
		return nil, fmt.Errorf("rotation manager requires a calendar")
	}
	if config.AlgorithmName == "" || config.ShiftType == "" {
		return nil, fmt.Errorf("rotation manager requires algorithm name and shift type")
	}
	if config.Continuity == nil {
		config.Continuity = NewContinuityTracker(DefaultMinWeekendGapDays)
	}
	if config.Logger == nil {
		config.Logger = logger.NewDefaultLogger("rotation-manager", "INFO")
	}

	roster := make(map[string]*entities.Analyst, len(config.Analysts))
	for _, a := range config.Analysts {
		if a.IsActive {
			roster[a.ID] = a
		}
	}

	m := &Manager{
		cal:        config.Calendar,
		continuity: config.Continuity,
		roster:     roster,
		log:        config.Logger,
	}

	if config.LoadedState != nil {
		if err := config.LoadedState.Validate(); err != nil {
			return nil, fmt.Errorf("loaded rotation state is invalid: %w", err)
		}
		m.state = config.LoadedState.Clone()
		m.reconcileRoster()
		return m, nil
	}

	m.state = &entities.RotationState{
		ID:            uuid.New().String(),
		AlgorithmName: config.AlgorithmName,
		ShiftType:     config.ShiftType,
		AvailablePool: m.fairnessOrderedPool(config.History),
		LastUpdated:   time.Now().UTC(),
	}
	return m, nil
}

// fairnessOrderedPool orders the roster by historical weekend burden:
// fewest weekend days first, then longest time since the last weekend
// day, then stable name order.
func (m *Manager) fairnessOrderedPool(history []*entities.Schedule) []string {
	weekendCount := make(map[string]int)
	lastWeekend := make(map[string]time.Time)
	for _, s := range history {
		if !m.cal.IsWeekend(s.Date) {
			continue
		}
		weekendCount[s.AnalystID]++
		if s.Date.After(lastWeekend[s.AnalystID]) {
			lastWeekend[s.AnalystID] = s.Date
		}
	}

	pool := make([]string, 0, len(m.roster))
	for id := range m.roster {
		pool = append(pool, id)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		ci, cj := weekendCount[pool[i]], weekendCount[pool[j]]
		if ci != cj {
			return ci < cj
		}
		li, lj := lastWeekend[pool[i]], lastWeekend[pool[j]]
		if !li.Equal(lj) {
			// Zero time sorts first: never-rotated analysts go ahead.
			return li.Before(lj)
		}
		ni, nj := m.roster[pool[i]].DisplayName, m.roster[pool[j]].DisplayName
		if ni != nj {
			return ni < nj
		}
		return pool[i] < pool[j]
	})
	return pool
}

// reconcileRoster drops analysts who left the roster since the snapshot
// and appends newcomers to the back of the available pool
func (m *Manager) reconcileRoster() {
	known := make(map[string]bool)
	keep := func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if _, ok := m.roster[id]; ok {
				out = append(out, id)
				known[id] = true
			}
		}
		return out
	}
	m.state.AvailablePool = keep(m.state.AvailablePool)
	m.state.CompletedPool = keep(m.state.CompletedPool)
	if m.state.Week1Analyst != "" {
		if _, ok := m.roster[m.state.Week1Analyst]; !ok {
			m.state.Week1Analyst = ""
		} else {
			known[m.state.Week1Analyst] = true
		}
	}
	if m.state.Week2Analyst != "" {
		if _, ok := m.roster[m.state.Week2Analyst]; !ok {
			m.state.Week2Analyst = ""
		} else {
			known[m.state.Week2Analyst] = true
		}
	}

	newcomers := make([]string, 0)
	for id := range m.roster {
		if !known[id] {
			newcomers = append(newcomers, id)
		}
	}
	sort.Strings(newcomers)
	m.state.AvailablePool = append(m.state.AvailablePool, newcomers...)
}

// popAvailable removes and returns the oldest available pool entry,
// reseeding from the completed pool when the available pool runs dry
func (m *Manager) popAvailable() (string, bool) {
	if len(m.state.AvailablePool) == 0 {
		if len(m.state.CompletedPool) == 0 {
			return "", false
		}
		m.state.AvailablePool = m.state.CompletedPool
		m.state.CompletedPool = nil
		m.state.CycleGeneration++
		m.log.Debug("rotation %s/%s reseeded available pool, cycle generation %d",
			m.state.AlgorithmName, m.state.ShiftType, m.state.CycleGeneration)
	}
	head := m.state.AvailablePool[0]
	m.state.AvailablePool = m.state.AvailablePool[1:]
	return head, true
}

// ensureAnchored fills both slots when the rotation is used for the first
// time. The SUN_THU slot anchors at the Sunday of the week containing the
// requested date; the TUE_SAT slot staggers two days later, so a range
// that begins on a Saturday still has its Saturday worker.
func (m *Manager) ensureAnchored(date time.Time) {
	if m.state.Week1Analyst != "" || m.state.Week2Analyst != "" {
		return
	}
	sunday := m.cal.SundayOfWeek(date)

	if analyst, ok := m.popAvailable(); ok {
		m.state.Week1Analyst = analyst
		m.state.Week1StartDate = sunday
	}
	if analyst, ok := m.popAvailable(); ok {
		m.state.Week2Analyst = analyst
		m.state.Week2StartDate = calendar.AddDays(sunday, week2StaggerDays)
	}
}

// patternWindow returns the half-open Sun-Sat week window a slot start
// governs. The SUN_THU slot starts on its Sunday; the TUE_SAT slot stores
// a Tuesday start but owns the same Sun-Sat week, so its Sunday and
// Monday are the pattern's off days and streaks never exceed the cap.
func patternWindow(start time.Time, pattern entities.WorkPattern) (time.Time, time.Time) {
	if pattern == entities.PatternTueSat {
		weekStart := calendar.AddDays(start, -week2StaggerDays)
		return weekStart, calendar.AddDays(weekStart, patternWeekDays)
	}
	return start, calendar.AddDays(start, patternWeekDays)
}

// advanceTo rolls completed pattern weeks forward until the date falls
// inside both slot windows. Completions are processed chronologically so
// pool order stays deterministic.
func (m *Manager) advanceTo(date time.Time) {
	d := entities.NormalizeDate(date)
	for {
		_, w1End := patternWindow(m.state.Week1StartDate, entities.PatternSunThu)
		_, w2End := patternWindow(m.state.Week2StartDate, entities.PatternTueSat)

		w1Done := m.state.Week1Analyst != "" && !d.Before(w1End)
		w2Done := m.state.Week2Analyst != "" && !d.Before(w2End)
		if !w1Done && !w2Done {
			return
		}

		if w1Done && (!w2Done || !w2End.Before(w1End)) {
			m.completeSlot(&m.state.Week1Analyst, &m.state.Week1StartDate, entities.PatternSunThu)
			continue
		}
		m.completeSlot(&m.state.Week2Analyst, &m.state.Week2StartDate, entities.PatternTueSat)
	}
}

// completeSlot retires the slot holder into the completed pool and seats
// the oldest available analyst with the start date of the next pattern
// week
func (m *Manager) completeSlot(slot *string, start *time.Time, pattern entities.WorkPattern) {
	finished := *slot
	endDate := calendar.AddDays(*start, patternWeekDays-1)
	if pattern == entities.PatternTueSat {
		// The last worked day of a TUE_SAT week is its Saturday.
		endDate = calendar.AddDays(*start, 4)
	}
	m.state.CompletedPool = append(m.state.CompletedPool, finished)
	m.continuity.RecordPatternEnd(finished, pattern, endDate)

	next, ok := m.popAvailable()
	if !ok {
		*slot = ""
		*start = time.Time{}
		return
	}
	*slot = next
	*start = calendar.AddDays(*start, patternWeekDays)
}

/**
 * CONTEXT:   Weekend slot lookup for one weekend date
 * INPUT:     A Saturday or Sunday inside the generation range
 * OUTPUT:    The analyst owning that weekend day plus their active pattern
 * BUSINESS:  Sundays belong to the SUN_THU slot, Saturdays to the TUE_SAT slot
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Must stay aligned with the staggered slot windows
 */
func (m *Manager) PlanWeekendAssignmentForDate(date time.Time) (string, entities.WorkPattern, error) {
	if !m.cal.IsWeekend(date) {
		return "", "", fmt.Errorf("date %s is not a weekend day", m.cal.DateKey(date))
	}
	m.ensureAnchored(date)
	m.advanceTo(date)

	if m.cal.Weekday(date) == calendar.Sunday {
		if m.state.Week1Analyst == "" {
			return "", "", fmt.Errorf("no analyst available for Sunday %s", m.cal.DateKey(date))
		}
		return m.state.Week1Analyst, entities.PatternSunThu, nil
	}
	if m.state.Week2Analyst == "" {
		return "", "", fmt.Errorf("no analyst available for Saturday %s", m.cal.DateKey(date))
	}
	return m.state.Week2Analyst, entities.PatternTueSat, nil
}

// PatternFor returns the pattern governing an analyst on a date. The
// boolean reports whether the analyst is inside a weekend rotation week;
// analysts outside rotation follow the REGULAR Mon-Fri pattern.
func (m *Manager) PatternFor(analystID string, date time.Time) (entities.WorkPattern, bool) {
	d := entities.NormalizeDate(date)
	if m.state.Week1Analyst == analystID && inWindow(d, m.state.Week1StartDate, entities.PatternSunThu) {
		return entities.PatternSunThu, true
	}
	if m.state.Week2Analyst == analystID && inWindow(d, m.state.Week2StartDate, entities.PatternTueSat) {
		return entities.PatternTueSat, true
	}
	return entities.PatternRegular, false
}

// ShouldAnalystWork reports whether the analyst's pattern at the date has
// them working
func (m *Manager) ShouldAnalystWork(analystID string, date time.Time) bool {
	m.ensureAnchored(date)
	m.advanceTo(date)
	pattern, _ := m.PatternFor(analystID, date)
	return pattern.WorksOn(m.cal.Weekday(date))
}

// AvailablePool returns the current substitution order
func (m *Manager) AvailablePool() []string {
	return append([]string(nil), m.state.AvailablePool...)
}

/**
 * CONTEXT:   Weekend substitution when the planned slot analyst is unavailable
 * INPUT:     Weekend date and the substitute chosen from the available pool
 * OUTPUT:    Slot reassigned; the absent analyst retires to the completed pool
 * BUSINESS:  The substitute inherits the remaining portion of that week's pattern
 * CHANGE:    Initial implementation.
 * RISK:      Medium - The retired analyst keeps their cycle credit and is not re-queued
 */
func (m *Manager) Substitute(date time.Time, substituteID string) error {
	if _, ok := m.roster[substituteID]; !ok {
		return fmt.Errorf("substitute %s is not in the active roster", substituteID)
	}

	slot := &m.state.Week1Analyst
	if m.cal.Weekday(date) == calendar.Saturday {
		slot = &m.state.Week2Analyst
	}
	if *slot == substituteID {
		return nil
	}

	removed := false
	pool := m.state.AvailablePool[:0]
	for _, id := range m.state.AvailablePool {
		if id == substituteID && !removed {
			removed = true
			continue
		}
		pool = append(pool, id)
	}
	m.state.AvailablePool = pool
	if !removed {
		return fmt.Errorf("substitute %s is not in the available pool", substituteID)
	}

	if *slot != "" {
		m.state.CompletedPool = append(m.state.CompletedPool, *slot)
	}
	m.log.Info("weekend substitution on %s: %s replaces %s", m.cal.DateKey(date), substituteID, *slot)
	*slot = substituteID
	return nil
}

// Continuity exposes the shared pattern continuity tracker
func (m *Manager) Continuity() *ContinuityTracker {
	return m.continuity
}

// State returns the live state for inspection
func (m *Manager) State() *entities.RotationState {
	return m.state
}

// Snapshot returns a persistable copy with the version bumped for the
// compare-and-set write
func (m *Manager) Snapshot() *entities.RotationState {
	snap := m.state.Clone()
	snap.Version++
	snap.LastUpdated = time.Now().UTC()
	return snap
}

func inWindow(date, start time.Time, pattern entities.WorkPattern) bool {
	if start.IsZero() {
		return false
	}
	windowStart, windowEnd := patternWindow(start, pattern)
	return !date.Before(windowStart) && date.Before(windowEnd)
}
