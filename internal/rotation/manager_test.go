/**
 * CONTEXT:   Unit tests for the staggered weekend rotation state machine
 * INPUT:     Rosters of varying size, histories, and weekend date walks
 * OUTPUT:    Coverage of slot staggering, pool cycling, and continuity gaps
 * BUSINESS:  Verify one analyst per weekend day and fair pool rotation
 * CHANGE:    Initial test implementation.
 * RISK:      Low - Test code with no side effects
 */

package rotation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/entities"
)

func day(key string) time.Time {
	t, _ := time.Parse("2006-01-02", key)
	return t
}

func roster(ids ...string) []*entities.Analyst {
	analysts := make([]*entities.Analyst, 0, len(ids))
	for _, id := range ids {
		analysts = append(analysts, &entities.Analyst{
			ID: id, DisplayName: id, Email: id + "@example.com",
			RegionID: "us-east", ShiftAffiliation: "AM", IsActive: true,
		})
	}
	return analysts
}

func newTestManager(t *testing.T, analysts []*entities.Analyst, history []*entities.Schedule) *Manager {
	t.Helper()
	cal, err := calendar.New("America/New_York")
	require.NoError(t, err)
	mgr, err := NewManager(ManagerConfig{
		Calendar:      cal,
		AlgorithmName: "core-test",
		ShiftType:     "AM",
		Analysts:      analysts,
		History:       history,
	})
	require.NoError(t, err)
	return mgr
}

func TestStaggeredWeekendAssignments(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2", "a3", "a4", "a5"), nil)

	sunAnalyst, sunPattern, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, "a1", sunAnalyst)
	assert.Equal(t, entities.PatternSunThu, sunPattern)

	satAnalyst, satPattern, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-07"))
	require.NoError(t, err)
	assert.Equal(t, "a2", satAnalyst)
	assert.Equal(t, entities.PatternTueSat, satPattern)
	assert.NotEqual(t, sunAnalyst, satAnalyst)

	// Second weekend rotates fresh analysts into both slots.
	sun2, _, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-08"))
	require.NoError(t, err)
	assert.Equal(t, "a3", sun2)

	sat2, _, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-14"))
	require.NoError(t, err)
	assert.Equal(t, "a4", sat2)

	seen := map[string]bool{sunAnalyst: true, satAnalyst: true, sun2: true, sat2: true}
	assert.Len(t, seen, 4, "no analyst repeats within the first cycle")
}

func TestSaturdayStartAnchorsWithoutPriorSunday(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2", "a3"), nil)

	analyst, pattern, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-07"))
	require.NoError(t, err)
	assert.Equal(t, "a2", analyst, "the TUE_SAT slot owns the Saturday even on a fresh anchor")
	assert.Equal(t, entities.PatternTueSat, pattern)
}

func TestTwoAnalystRosterCyclesPerpetually(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2"), nil)

	for week := 0; week < 6; week++ {
		sunday := calendar.AddDays(day("2026-02-01"), week*7)
		saturday := calendar.AddDays(sunday, 6)

		sunAnalyst, _, err := mgr.PlanWeekendAssignmentForDate(sunday)
		require.NoError(t, err, "week %d sunday", week)
		satAnalyst, _, err := mgr.PlanWeekendAssignmentForDate(saturday)
		require.NoError(t, err, "week %d saturday", week)
		assert.NotEqual(t, sunAnalyst, satAnalyst, "week %d", week)
	}
	assert.GreaterOrEqual(t, mgr.State().CycleGeneration, 1, "the completed pool reseeded at least once")
}

func TestPoolReseedsWhenExhausted(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2", "a3", "a4"), nil)

	// Walk five full weekends; four analysts mean the pool reseeds and
	// the cycle generation advances.
	covered := make(map[string]int)
	for week := 0; week < 5; week++ {
		sunday := calendar.AddDays(day("2026-02-01"), week*7)
		sunAnalyst, _, err := mgr.PlanWeekendAssignmentForDate(sunday)
		require.NoError(t, err)
		satAnalyst, _, err := mgr.PlanWeekendAssignmentForDate(calendar.AddDays(sunday, 6))
		require.NoError(t, err)
		covered[sunAnalyst]++
		covered[satAnalyst]++
	}

	assert.Len(t, covered, 4, "every analyst takes weekend duty across cycles")
	assert.GreaterOrEqual(t, mgr.State().CycleGeneration, 1)
}

func TestFairnessOrderedInitialPool(t *testing.T) {
	history := []*entities.Schedule{
		// a1 already carries weekend burden; a2 is older burden.
		{ID: "h1", AnalystID: "a1", Date: day("2026-01-25"), ShiftType: "AM", RegionID: "r", Type: entities.ScheduleTypeNew},
		{ID: "h2", AnalystID: "a2", Date: day("2026-01-18"), ShiftType: "AM", RegionID: "r", Type: entities.ScheduleTypeNew},
	}
	mgr := newTestManager(t, roster("a1", "a2", "a3"), history)

	pool := mgr.State().AvailablePool
	require.Len(t, pool, 3)
	assert.Equal(t, "a3", pool[0], "never-rotated analysts go first")
	assert.Equal(t, "a2", pool[1], "older weekend burden ranks ahead of recent")
	assert.Equal(t, "a1", pool[2])
}

func TestShouldAnalystWorkFollowsPatterns(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2", "a3"), nil)
	_, _, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-01"))
	require.NoError(t, err)

	cases := []struct {
		analyst  string
		date     string
		expected bool
	}{
		{"a1", "2026-02-01", true},  // SUN_THU Sunday
		{"a1", "2026-02-05", true},  // SUN_THU Thursday
		{"a1", "2026-02-06", false}, // SUN_THU Friday off
		{"a1", "2026-02-07", false}, // SUN_THU Saturday off
		{"a2", "2026-02-02", false}, // TUE_SAT Monday off
		{"a2", "2026-02-03", true},  // TUE_SAT Tuesday
		{"a2", "2026-02-07", true},  // TUE_SAT Saturday
		{"a3", "2026-02-02", true},  // REGULAR Monday
		{"a3", "2026-02-07", false}, // REGULAR Saturday off
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, mgr.ShouldAnalystWork(tc.analyst, day(tc.date)),
			fmt.Sprintf("%s on %s", tc.analyst, tc.date))
	}
}

func TestSubstituteInheritsSlot(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2", "a3", "a4"), nil)
	_, _, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-01"))
	require.NoError(t, err)

	require.NoError(t, mgr.Substitute(day("2026-02-01"), "a3"))
	analyst, _, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-01"))
	require.NoError(t, err)
	assert.Equal(t, "a3", analyst)
	assert.Contains(t, mgr.State().CompletedPool, "a1", "the replaced analyst keeps their cycle credit")

	err = mgr.Substitute(day("2026-02-01"), "zz")
	assert.Error(t, err, "substitutes must come from the roster")
}

func TestContinuityGapRules(t *testing.T) {
	ct := NewContinuityTracker(13)
	ct.RecordWeekendDay("a1", day("2026-02-01"))

	assert.True(t, ct.EligibleForWeekend("a1", day("2026-02-02")), "next-day Sun to Mon is within the same duty")
	assert.True(t, ct.EligibleForWeekend("a1", day("2026-02-07")), "the 6-day Sun to Sat hand-off is allowed")
	assert.False(t, ct.EligibleForWeekend("a1", day("2026-02-08")), "7 days is a back-to-back weekend")
	assert.False(t, ct.EligibleForWeekend("a1", day("2026-02-13")), "12 days is under the minimum gap")
	assert.True(t, ct.EligibleForWeekend("a1", day("2026-02-14")), "13 days satisfies the minimum gap")
	assert.True(t, ct.EligibleForWeekend("a2", day("2026-02-08")), "analysts without history are eligible")
}

func TestSnapshotBumpsVersion(t *testing.T) {
	mgr := newTestManager(t, roster("a1", "a2"), nil)
	_, _, err := mgr.PlanWeekendAssignmentForDate(day("2026-02-01"))
	require.NoError(t, err)

	snap := mgr.Snapshot()
	assert.Equal(t, mgr.State().Version+1, snap.Version)
	require.NoError(t, snap.Validate())

	// Restoring the snapshot continues where the state left off.
	restored, err := NewManager(ManagerConfig{
		Calendar:      mgr.cal,
		AlgorithmName: "core-test",
		ShiftType:     "AM",
		Analysts:      roster("a1", "a2"),
		LoadedState:   snap,
	})
	require.NoError(t, err)
	analyst, _, err := restored.PlanWeekendAssignmentForDate(day("2026-02-07"))
	require.NoError(t, err)
	assert.Equal(t, "a2", analyst)
}
