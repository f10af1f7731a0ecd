/**
 * CONTEXT:   Screener fairness tracker with exhaustive least-recently-used selection
 * INPUT:     Historical screener schedules, current weekend assignments, daily candidate pools
 * OUTPUT:    Exactly one screener designation per (date, shiftType) with rotation fairness
 * BUSINESS:  No analyst screens twice until every eligible analyst has screened once
 * CHANGE:    Initial implementation; one tracker serves all shifts so debts never split
 * RISK:      Low - Deterministic sort with stable tie-breaks on analyst ID
 */

package screener

import (
	"sort"
	"time"

	"github.com/shiftplanner/system/internal/entities"
)

// Strategy selects how screener candidates are ranked
type Strategy string

const (
	// StrategyRoundRobin is the exhaustive LRU policy.
	StrategyRoundRobin Strategy = "ROUND_ROBIN"
	// StrategyWorkloadBalance biases the same ranking by total assigned
	// days first.
	StrategyWorkloadBalance Strategy = "WORKLOAD_BALANCE"
)

type record struct {
	count    int
	lastDate *time.Time
	workload int
}

// FairnessTracker tracks screener burden per analyst across every shift
// of a generation. Counts are per-analyst, not per-shift, so an analyst
// never accumulates separate AM and PM screener debts.
type FairnessTracker struct {
	strategy Strategy
	records  map[string]*record
}

// NewFairnessTracker creates an empty tracker
func NewFairnessTracker(strategy Strategy) *FairnessTracker {
	if strategy == "" {
		strategy = StrategyRoundRobin
	}
	return &FairnessTracker{strategy: strategy, records: make(map[string]*record)}
}

func (ft *FairnessTracker) record(analystID string) *record {
	r, ok := ft.records[analystID]
	if !ok {
		r = &record{}
		ft.records[analystID] = r
	}
	return r
}

// SeedFromHistory charges the tracker with historical screener schedules
// from the relevant window
func (ft *FairnessTracker) SeedFromHistory(history []*entities.Schedule) {
	for _, s := range history {
		if !s.IsScreener {
			continue
		}
		ft.RecordScreener(s.AnalystID, s.Date)
	}
}

// RecordScreener charges one screener unit to an analyst on a date
func (ft *FairnessTracker) RecordScreener(analystID string, date time.Time) {
	r := ft.record(analystID)
	r.count++
	d := entities.NormalizeDate(date)
	if r.lastDate == nil || d.After(*r.lastDate) {
		r.lastDate = &d
	}
}

// RecordWeekendDebt charges one screener-debt unit for a weekend workday
// to offset the added burden, even when that day carries no formal
// screener designation
func (ft *FairnessTracker) RecordWeekendDebt(analystID string, date time.Time) {
	ft.RecordScreener(analystID, date)
}

// RecordWorkload notes a plain assigned day, used by the workload-balance
// strategy as the primary ranking signal
func (ft *FairnessTracker) RecordWorkload(analystID string) {
	ft.record(analystID).workload++
}

// Count returns the current screener count for an analyst
func (ft *FairnessTracker) Count(analystID string) int {
	if r, ok := ft.records[analystID]; ok {
		return r.count
	}
	return 0
}

/**
 * CONTEXT:   Exhaustive LRU screener selection from a daily candidate pool
 * INPUT:     Eligible analyst IDs for one (date, shiftType) slot
 * OUTPUT:    The analyst owing the most screener debt, deterministic under ties
 * BUSINESS:  Sort by count ascending, then lastDate ascending (nil earliest), then analyst ID
 * CHANGE:    Initial implementation.
 * RISK:      Low - Pure ranking; caller records the selection to advance the rotation
 */
func (ft *FairnessTracker) SelectScreener(pool []string, date time.Time) string {
	if len(pool) == 0 {
		return ""
	}

	candidates := append([]string(nil), pool...)
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := ft.records[candidates[i]], ft.records[candidates[j]]
		ci, cj := 0, 0
		var li, lj *time.Time
		wi, wj := 0, 0
		if ri != nil {
			ci, li, wi = ri.count, ri.lastDate, ri.workload
		}
		if rj != nil {
			cj, lj, wj = rj.count, rj.lastDate, rj.workload
		}

		if ft.strategy == StrategyWorkloadBalance && wi != wj {
			return wi < wj
		}
		if ci != cj {
			return ci < cj
		}
		if (li == nil) != (lj == nil) {
			return li == nil
		}
		if li != nil && !li.Equal(*lj) {
			return li.Before(*lj)
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0]
}
