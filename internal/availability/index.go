/**
 * CONTEXT:   Absence index answering per-analyst per-date availability lookups
 * INPUT:     Approved vacations and leave records for all analysts in generation scope
 * OUTPUT:    IsAnalystAbsent lookups by binary search over merged sorted intervals (O(log n), not constant time)
 * BUSINESS:  No schedule may be emitted for an analyst on a date the index reports absent
 * CHANGE:    Initial implementation built once at generation start
 * RISK:      Low - Read-only index constructed before the date walk begins
 */

package availability

import (
	"sort"
	"time"

	"github.com/shiftplanner/system/internal/entities"
)

type interval struct {
	start time.Time
	end   time.Time
}

// AbsenceRecord is a generic leave record outside the vacation system,
// e.g. sick leave or an approved comp-off day being consumed.
type AbsenceRecord struct {
	ID        string
	AnalystID string
	StartDate time.Time
	EndDate   time.Time
}

// AbsenceIndex answers availability lookups for the generation window.
// It is built once from the full set of relevant vacations and absences
// and is immutable afterwards.
type AbsenceIndex struct {
	intervals map[string][]interval
}

// NewAbsenceIndex constructs the index. Unapproved vacations are ignored.
func NewAbsenceIndex(vacations []*entities.Vacation, absences []*AbsenceRecord) *AbsenceIndex {
	idx := &AbsenceIndex{intervals: make(map[string][]interval)}

	for _, v := range vacations {
		if !v.IsApproved {
			continue
		}
		idx.add(v.AnalystID, v.StartDate, v.EndDate)
	}
	for _, a := range absences {
		idx.add(a.AnalystID, a.StartDate, a.EndDate)
	}

	for analystID := range idx.intervals {
		idx.intervals[analystID] = mergeIntervals(idx.intervals[analystID])
	}
	return idx
}

func (ai *AbsenceIndex) add(analystID string, start, end time.Time) {
	s := entities.NormalizeDate(start)
	e := entities.NormalizeDate(end)
	if e.Before(s) {
		return
	}
	ai.intervals[analystID] = append(ai.intervals[analystID], interval{start: s, end: e})
}

// IsAnalystAbsent reports whether an approved vacation or leave record
// covers the analyst on the given date
func (ai *AbsenceIndex) IsAnalystAbsent(analystID string, date time.Time) bool {
	spans := ai.intervals[analystID]
	if len(spans) == 0 {
		return false
	}
	d := entities.NormalizeDate(date)

	// First interval whose end is not before d; covered iff it also
	// starts on or before d.
	i := sort.Search(len(spans), func(i int) bool {
		return !spans[i].end.Before(d)
	})
	return i < len(spans) && !spans[i].start.After(d)
}

func mergeIntervals(spans []interval) []interval {
	if len(spans) <= 1 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start.Before(spans[j].start)
	})

	merged := spans[:1]
	for _, span := range spans[1:] {
		last := &merged[len(merged)-1]
		// Adjacent days coalesce too: a gap smaller than one day means
		// the spans touch on the date grid.
		if !span.start.After(last.end.AddDate(0, 0, 1)) {
			if span.end.After(last.end) {
				last.end = span.end
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}
