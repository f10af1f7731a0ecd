/**
 * CONTEXT:   Fairness metrics computed over a generated schedule set
 * INPUT:     Final schedules, analyst roster, region calendar and shift catalog
 * OUTPUT:    Per-analyst totals, global variance, and [0,1] fairness scores
 * BUSINESS:  Metrics feed the violation report; they never gate acceptance
 * CHANGE:    Initial implementation.
 * RISK:      Low - Pure computation on the generation output
 */

package fairness

import (
	"math"
	"sort"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/catalog"
	"github.com/shiftplanner/system/internal/entities"
)

// AnalystMetrics is the per-analyst fairness breakdown
type AnalystMetrics struct {
	AnalystID     string  `json:"analystId"`
	TotalDays     int     `json:"totalDays"`
	WeekendDays   int     `json:"weekendDays"`
	ScreenerDays  int     `json:"screenerDays"`
	AfterHours    int     `json:"afterHoursDays"`
	FairnessScore float64 `json:"fairnessScore"`
}

// Metrics is the global fairness report for one generation
type Metrics struct {
	PerAnalyst   []AnalystMetrics `json:"perAnalyst"`
	MeanDays     float64          `json:"meanDays"`
	Variance     float64          `json:"variance"`
	StdDeviation float64          `json:"stdDeviation"`
	OverallScore float64          `json:"overallScore"`
}

// Calculator computes fairness metrics for a region generation
type Calculator struct {
	cal     *calendar.Calendar
	shifts  *catalog.ShiftCatalog
	roster  []*entities.Analyst
}

// NewCalculator creates a fairness calculator over the roster
func NewCalculator(cal *calendar.Calendar, shifts *catalog.ShiftCatalog, roster []*entities.Analyst) *Calculator {
	return &Calculator{cal: cal, shifts: shifts, roster: roster}
}

/**
 * CONTEXT:   Compute fairness metrics from the final schedule set
 * INPUT:     Generated schedules for the full range
 * OUTPUT:    Per-analyst totals plus variance-based overall score
 * BUSINESS:  overall = max(0, 1 - sigma/mean); individual = clamp(1 - |t_i - mean|/mean)
 * CHANGE:    Initial implementation.
 * RISK:      Low - Division guarded for empty rosters and zero means
 */
func (fc *Calculator) Compute(schedules []*entities.Schedule) Metrics {
	metrics := Metrics{}
	if len(fc.roster) == 0 {
		metrics.OverallScore = 1.0
		return metrics
	}

	latest := fc.shifts.Latest().Name
	totals := make(map[string]*AnalystMetrics, len(fc.roster))
	for _, a := range fc.roster {
		totals[a.ID] = &AnalystMetrics{AnalystID: a.ID}
	}

	for _, s := range schedules {
		am, ok := totals[s.AnalystID]
		if !ok {
			continue
		}
		am.TotalDays++
		if fc.cal.IsWeekend(s.Date) {
			am.WeekendDays++
		}
		if s.IsScreener {
			am.ScreenerDays++
		}
		if s.ShiftType == latest && fc.shifts.IsMultiShift() {
			am.AfterHours++
		}
	}

	sum := 0
	for _, am := range totals {
		sum += am.TotalDays
	}
	mean := float64(sum) / float64(len(fc.roster))
	metrics.MeanDays = mean

	variance := 0.0
	for _, am := range totals {
		diff := float64(am.TotalDays) - mean
		variance += diff * diff
	}
	variance /= float64(len(fc.roster))
	metrics.Variance = variance
	metrics.StdDeviation = math.Sqrt(variance)

	if mean > 0 {
		metrics.OverallScore = math.Max(0, 1.0-metrics.StdDeviation/mean)
	} else {
		metrics.OverallScore = 1.0
	}

	for _, am := range totals {
		if mean > 0 {
			score := 1.0 - math.Abs(float64(am.TotalDays)-mean)/mean
			am.FairnessScore = math.Max(0, math.Min(1, score))
		} else {
			am.FairnessScore = 1.0
		}
		metrics.PerAnalyst = append(metrics.PerAnalyst, *am)
	}
	sort.Slice(metrics.PerAnalyst, func(i, j int) bool {
		return metrics.PerAnalyst[i].AnalystID < metrics.PerAnalyst[j].AnalystID
	})
	return metrics
}
