/**
 * CONTEXT:   Consecutive work-day streak tracking shared by weekend and weekday assignment
 * INPUT:     Historical schedules before the range plus per-day worked sets during the walk
 * OUTPUT:    Current streak per analyst with a hard cap predicate
 * BUSINESS:  An analyst at the streak cap is never assigned another day, rotation plan or not
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Streak drift across the range boundary would overwork analysts
 */

package assignment

import (
	"sort"
	"time"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/entities"
)

// DefaultMaxConsecutiveWorkDays caps the run of consecutive assigned days
const DefaultMaxConsecutiveWorkDays = 5

// StreakTracker maintains the running consecutive-day streak per analyst
// during a generation walk
type StreakTracker struct {
	maxDays int
	streaks map[string]int
}

// NewStreakTracker creates a tracker with the configured cap
func NewStreakTracker(maxDays int) *StreakTracker {
	if maxDays <= 0 {
		maxDays = DefaultMaxConsecutiveWorkDays
	}
	return &StreakTracker{maxDays: maxDays, streaks: make(map[string]int)}
}

// SeedFromHistory computes the trailing streak ending the day before the
// range starts, so caps hold across generation boundaries
func (st *StreakTracker) SeedFromHistory(history []*entities.Schedule, rangeStart time.Time) {
	worked := make(map[string]map[string]bool)
	for _, s := range history {
		if worked[s.AnalystID] == nil {
			worked[s.AnalystID] = make(map[string]bool)
		}
		worked[s.AnalystID][s.DateKey()] = true
	}

	dayBefore := calendar.AddDays(entities.NormalizeDate(rangeStart), -1)
	for analystID, days := range worked {
		streak := 0
		for d := dayBefore; ; d = calendar.AddDays(d, -1) {
			if !days[d.Format(entities.DateKeyLayout)] {
				break
			}
			streak++
		}
		if streak > 0 {
			st.streaks[analystID] = streak
		}
	}
}

// Streak returns the current streak for an analyst
func (st *StreakTracker) Streak(analystID string) int {
	return st.streaks[analystID]
}

// AtCap reports whether the analyst has reached the consecutive-day cap
func (st *StreakTracker) AtCap(analystID string) bool {
	return st.streaks[analystID] >= st.maxDays
}

// CloseDay finalizes one walked date: analysts who produced a schedule
// have their streak incremented, everyone else on the roster resets to 0
func (st *StreakTracker) CloseDay(workedToday map[string]bool, roster []string) {
	for _, analystID := range roster {
		if workedToday[analystID] {
			st.streaks[analystID]++
			continue
		}
		delete(st.streaks, analystID)
	}
}

// Snapshot returns the streaks sorted by analyst for diagnostics
func (st *StreakTracker) Snapshot() map[string]int {
	out := make(map[string]int, len(st.streaks))
	keys := make([]string, 0, len(st.streaks))
	for id := range st.streaks {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	for _, id := range keys {
		out[id] = st.streaks[id]
	}
	return out
}
