package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleNormalizesDate(t *testing.T) {
	s, err := NewSchedule(ScheduleConfig{
		AnalystID: "a1",
		Date:      time.Date(2026, 2, 2, 17, 45, 12, 0, time.UTC),
		ShiftType: "AM",
		RegionID:  "us-east",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-02-02", s.DateKey())
	assert.Equal(t, ScheduleTypeNew, s.Type)
	require.NoError(t, s.Validate())
}

func TestScheduleValidateRejectsUnknownType(t *testing.T) {
	s, err := NewSchedule(ScheduleConfig{
		AnalystID: "a1", Date: time.Now(), ShiftType: "AM", RegionID: "us-east",
	})
	require.NoError(t, err)
	s.Type = "MYSTERY"
	assert.Error(t, s.Validate())
}

func TestWorkPatternWorksOn(t *testing.T) {
	cases := []struct {
		pattern  WorkPattern
		weekday  int
		expected bool
	}{
		{PatternSunThu, 0, true},  // Sunday
		{PatternSunThu, 4, true},  // Thursday
		{PatternSunThu, 5, false}, // Friday
		{PatternSunThu, 6, false}, // Saturday
		{PatternTueSat, 0, false}, // Sunday
		{PatternTueSat, 1, false}, // Monday
		{PatternTueSat, 2, true},  // Tuesday
		{PatternTueSat, 6, true},  // Saturday
		{PatternRegular, 1, true}, // Monday
		{PatternRegular, 0, false},
		{PatternRegular, 6, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, tc.pattern.WorksOn(tc.weekday),
			"%s on weekday %d", tc.pattern, tc.weekday)
	}
}

func TestCompOffWeekday(t *testing.T) {
	assert.Equal(t, 5, PatternSunThu.CompOffWeekday(), "Friday for SUN_THU")
	assert.Equal(t, 1, PatternTueSat.CompOffWeekday(), "Monday for TUE_SAT")
	assert.Equal(t, -1, PatternRegular.CompOffWeekday())
}

func TestRotationStatePartitionInvariant(t *testing.T) {
	state := &RotationState{
		AlgorithmName: "core", ShiftType: "AM",
		Week1Analyst: "a1", Week2Analyst: "a2",
		AvailablePool: []string{"a3"}, CompletedPool: []string{"a4"},
	}
	require.NoError(t, state.Validate())

	state.CompletedPool = append(state.CompletedPool, "a1")
	assert.Error(t, state.Validate(), "an analyst may appear in exactly one place")
}

func TestConstraintCoversAndScope(t *testing.T) {
	c := &SchedulingConstraint{
		ID: "c1", ConstraintType: ConstraintBlackoutDate,
		StartDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	require.NoError(t, c.Validate())
	assert.True(t, c.IsGlobal())
	assert.True(t, c.IsHard())
	assert.True(t, c.Covers(time.Date(2026, 2, 11, 23, 0, 0, 0, time.UTC)))
	assert.False(t, c.Covers(time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)))
}

func TestLedgerSum(t *testing.T) {
	txns := []*CompOffTransaction{
		{BalanceID: "b", Amount: 3, Reason: CompOffReasonWeekend},
		{BalanceID: "b", Amount: -1, Reason: CompOffReasonAbsence},
	}
	assert.Equal(t, 2, LedgerSum(txns))
}

func TestVacationCoversInclusive(t *testing.T) {
	v := &Vacation{
		AnalystID: "a1",
		StartDate: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, v.Validate())
	assert.True(t, v.Covers(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, v.Covers(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)))
	assert.False(t, v.Covers(time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)))
}
