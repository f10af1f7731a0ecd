package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shiftplanner/system/internal/entities"
)

func day(key string) time.Time {
	t, _ := time.Parse("2006-01-02", key)
	return t
}

func TestApprovedVacationCoversEveryDateInclusive(t *testing.T) {
	idx := NewAbsenceIndex([]*entities.Vacation{
		{AnalystID: "a1", StartDate: day("2026-02-03"), EndDate: day("2026-02-05"), IsApproved: true},
	}, nil)

	assert.False(t, idx.IsAnalystAbsent("a1", day("2026-02-02")))
	assert.True(t, idx.IsAnalystAbsent("a1", day("2026-02-03")))
	assert.True(t, idx.IsAnalystAbsent("a1", day("2026-02-04")))
	assert.True(t, idx.IsAnalystAbsent("a1", day("2026-02-05")))
	assert.False(t, idx.IsAnalystAbsent("a1", day("2026-02-06")))
}

func TestUnapprovedVacationIsIgnored(t *testing.T) {
	idx := NewAbsenceIndex([]*entities.Vacation{
		{AnalystID: "a1", StartDate: day("2026-02-03"), EndDate: day("2026-02-05"), IsApproved: false},
	}, nil)

	assert.False(t, idx.IsAnalystAbsent("a1", day("2026-02-04")))
}

func TestAbsenceRecordsApply(t *testing.T) {
	idx := NewAbsenceIndex(nil, []*AbsenceRecord{
		{ID: "leave-1", AnalystID: "a2", StartDate: day("2026-02-10"), EndDate: day("2026-02-10")},
	})

	assert.True(t, idx.IsAnalystAbsent("a2", day("2026-02-10")))
	assert.False(t, idx.IsAnalystAbsent("a2", day("2026-02-11")))
	assert.False(t, idx.IsAnalystAbsent("a1", day("2026-02-10")), "other analysts are unaffected")
}

func TestOverlappingAndAdjacentIntervalsMerge(t *testing.T) {
	idx := NewAbsenceIndex([]*entities.Vacation{
		{AnalystID: "a1", StartDate: day("2026-02-02"), EndDate: day("2026-02-04"), IsApproved: true},
		{AnalystID: "a1", StartDate: day("2026-02-04"), EndDate: day("2026-02-06"), IsApproved: true},
		{AnalystID: "a1", StartDate: day("2026-02-07"), EndDate: day("2026-02-08"), IsApproved: true},
	}, nil)

	for d := day("2026-02-02"); !d.After(day("2026-02-08")); d = d.AddDate(0, 0, 1) {
		assert.True(t, idx.IsAnalystAbsent("a1", d), "expected absence on %s", d.Format("2006-01-02"))
	}
	assert.False(t, idx.IsAnalystAbsent("a1", day("2026-02-09")))
}
