package fairness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/catalog"
	"github.com/shiftplanner/system/internal/entities"
)

func day(key string) time.Time {
	t, _ := time.Parse("2006-01-02", key)
	return t
}

func buildCalculator(t *testing.T, analystIDs ...string) *Calculator {
	t.Helper()
	cal, err := calendar.New("America/New_York")
	require.NoError(t, err)
	cat, err := catalog.NewShiftCatalog("us-east", []*entities.ShiftDefinition{
		{ID: "am", RegionID: "us-east", Name: "AM", StartTime: "09:00", EndTime: "17:00"},
		{ID: "pm", RegionID: "us-east", Name: "PM", StartTime: "14:00", EndTime: "23:00"},
	})
	require.NoError(t, err)

	roster := make([]*entities.Analyst, 0, len(analystIDs))
	for _, id := range analystIDs {
		roster = append(roster, &entities.Analyst{ID: id, DisplayName: id, Email: id + "@example.com",
			RegionID: "us-east", ShiftAffiliation: "AM", IsActive: true})
	}
	return NewCalculator(cal, cat, roster)
}

func sched(analystID, date, shift string, screener bool) *entities.Schedule {
	return &entities.Schedule{
		ID: analystID + "-" + date, AnalystID: analystID, Date: day(date),
		ShiftType: shift, IsScreener: screener, RegionID: "us-east", Type: entities.ScheduleTypeNew,
	}
}

func TestPerfectlyBalancedSetScoresOne(t *testing.T) {
	calc := buildCalculator(t, "a1", "a2")
	metrics := calc.Compute([]*entities.Schedule{
		sched("a1", "2026-02-02", "AM", false),
		sched("a2", "2026-02-03", "AM", false),
	})

	assert.InDelta(t, 1.0, metrics.OverallScore, 1e-9)
	assert.InDelta(t, 0.0, metrics.StdDeviation, 1e-9)
	for _, m := range metrics.PerAnalyst {
		assert.InDelta(t, 1.0, m.FairnessScore, 1e-9)
	}
}

func TestUnbalancedSetScoresBelowOne(t *testing.T) {
	calc := buildCalculator(t, "a1", "a2")
	metrics := calc.Compute([]*entities.Schedule{
		sched("a1", "2026-02-02", "AM", false),
		sched("a1", "2026-02-03", "AM", false),
		sched("a1", "2026-02-04", "AM", false),
		sched("a2", "2026-02-02", "AM", false),
	})

	// mean 2, variance ((3-2)^2+(1-2)^2)/2 = 1, sigma 1, score 0.5.
	assert.InDelta(t, 2.0, metrics.MeanDays, 1e-9)
	assert.InDelta(t, 0.5, metrics.OverallScore, 1e-9)
}

func TestCategoryTotals(t *testing.T) {
	calc := buildCalculator(t, "a1")
	metrics := calc.Compute([]*entities.Schedule{
		sched("a1", "2026-02-01", "AM", false), // Sunday
		sched("a1", "2026-02-02", "PM", true),  // weekday, latest shift, screener
		sched("a1", "2026-02-03", "AM", false),
	})

	require.Len(t, metrics.PerAnalyst, 1)
	m := metrics.PerAnalyst[0]
	assert.Equal(t, 3, m.TotalDays)
	assert.Equal(t, 1, m.WeekendDays)
	assert.Equal(t, 1, m.ScreenerDays)
	assert.Equal(t, 1, m.AfterHours)
}

func TestEmptyRoster(t *testing.T) {
	calc := buildCalculator(t)
	metrics := calc.Compute(nil)
	assert.InDelta(t, 1.0, metrics.OverallScore, 1e-9)
}
