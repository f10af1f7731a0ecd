/**
 * CONTEXT:   Constraint engine for hard pre-assignment filtering and soft validation
 * INPUT:     Active scheduling constraints plus candidate schedule sets and windows
 * OUTPUT:    Assignment blocking decisions and severity-tagged violation reports with score
 * BUSINESS:  BLACKOUT_DATE excludes candidates before assignment; screener rules report after
 * CHANGE:    Initial implementation with severity-weighted validation scoring
 * RISK:      Medium - A missed hard constraint produces schedules operations cannot honor
 */

package constraint

import (
	"fmt"
	"time"

	"github.com/shiftplanner/system/internal/entities"
)

// Severity ranks violation impact
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityWeights feed the validation score formula
var severityWeights = map[Severity]float64{
	SeverityCritical: 1.0,
	SeverityHigh:     0.7,
	SeverityMedium:   0.4,
	SeverityLow:      0.1,
}

// Violation is one evaluated constraint failure against a schedule set
type Violation struct {
	ConstraintID string                  `json:"constraintId"`
	Rule         entities.ConstraintType `json:"rule"`
	Hard         bool                    `json:"hard"`
	Severity     Severity                `json:"severity"`
	AnalystID    string                  `json:"analystId,omitempty"`
	AffectedIDs  []string                `json:"affectedScheduleIds"`
	Message      string                  `json:"message"`
	SuggestedFix string                  `json:"suggestedFix"`
}

// ValidationResult is the post-generation constraint report
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Score      float64     `json:"score"`
	Violations []Violation `json:"violations"`
}

// Engine evaluates scheduling constraints. It is constructed once per
// generation from the active constraints in scope and is read-only after.
type Engine struct {
	global    []*entities.SchedulingConstraint
	byAnalyst map[string][]*entities.SchedulingConstraint
}

// NewEngine builds the constraint engine, dropping inactive constraints
func NewEngine(constraints []*entities.SchedulingConstraint) *Engine {
	eng := &Engine{byAnalyst: make(map[string][]*entities.SchedulingConstraint)}
	for _, c := range constraints {
		if !c.IsActive {
			continue
		}
		if c.IsGlobal() {
			eng.global = append(eng.global, c)
			continue
		}
		eng.byAnalyst[c.AnalystID] = append(eng.byAnalyst[c.AnalystID], c)
	}
	return eng
}

// BlocksAssignment reports whether a hard constraint excludes the
// candidate (analyst, date) pair. An empty analyst ID checks only the
// global blackouts, which is how the date walk tests whole days.
func (e *Engine) BlocksAssignment(analystID string, date time.Time) bool {
	for _, c := range e.global {
		if c.IsHard() && c.Covers(date) {
			return true
		}
	}
	if analystID == "" {
		return false
	}
	for _, c := range e.byAnalyst[analystID] {
		if c.IsHard() && c.Covers(date) {
			return true
		}
	}
	return false
}

// BlackoutFor returns the first hard constraint covering the pair, for
// conflict reporting
func (e *Engine) BlackoutFor(analystID string, date time.Time) *entities.SchedulingConstraint {
	for _, c := range e.global {
		if c.IsHard() && c.Covers(date) {
			return c
		}
	}
	if analystID == "" {
		return nil
	}
	for _, c := range e.byAnalyst[analystID] {
		if c.IsHard() && c.Covers(date) {
			return c
		}
	}
	return nil
}

/**
 * CONTEXT:   Post-generation validation of a candidate schedule set
 * INPUT:     Proposed schedules and the generation window
 * OUTPUT:    Violations tagged hard/soft with severity plus a weighted score
 * BUSINESS:  score = max(0, 1 - sum(weight * affected/total)); any hard violation invalidates
 * CHANGE:    Initial implementation of the four soft screener rules plus blackout audit
 * RISK:      Low - Reporting only; generation already excluded hard-blocked candidates
 */
func (e *Engine) Validate(schedules []*entities.Schedule, windowStart, windowEnd time.Time) ValidationResult {
	result := ValidationResult{Valid: true, Score: 1.0}
	if len(schedules) == 0 {
		return result
	}

	all := make([]*entities.SchedulingConstraint, 0, len(e.global))
	all = append(all, e.global...)
	for _, cs := range e.byAnalyst {
		all = append(all, cs...)
	}

	for _, c := range all {
		if violation := e.evaluate(c, schedules, windowStart, windowEnd); violation != nil {
			result.Violations = append(result.Violations, *violation)
			if violation.Hard {
				result.Valid = false
			}
		}
	}

	penalty := 0.0
	total := float64(len(schedules))
	for _, v := range result.Violations {
		penalty += severityWeights[v.Severity] * (float64(len(v.AffectedIDs)) / total)
	}
	result.Score = 1.0 - penalty
	if result.Score < 0 {
		result.Score = 0
	}
	return result
}

func (e *Engine) evaluate(c *entities.SchedulingConstraint, schedules []*entities.Schedule, windowStart, windowEnd time.Time) *Violation {
	inWindow := func(s *entities.Schedule) bool {
		return !s.Date.Before(entities.NormalizeDate(windowStart)) &&
			!s.Date.After(entities.NormalizeDate(windowEnd)) && c.Covers(s.Date)
	}

	switch c.ConstraintType {
	case entities.ConstraintBlackoutDate:
		var affected []string
		for _, s := range schedules {
			if inWindow(s) && (c.IsGlobal() || s.AnalystID == c.AnalystID) {
				affected = append(affected, s.ID)
			}
		}
		if len(affected) == 0 {
			return nil
		}
		return &Violation{
			ConstraintID: c.ID,
			Rule:         entities.ConstraintBlackoutDate,
			Hard:         true,
			Severity:     SeverityCritical,
			AnalystID:    c.AnalystID,
			AffectedIDs:  affected,
			Message:      fmt.Sprintf("%d schedule(s) fall on blacked-out dates", len(affected)),
			SuggestedFix: "Remove the affected schedules or deactivate the blackout constraint",
		}

	case entities.ConstraintMaxScreenerDays:
		threshold := c.Threshold()
		var affected []string
		for _, s := range schedules {
			if inWindow(s) && s.AnalystID == c.AnalystID && s.IsScreener {
				affected = append(affected, s.ID)
			}
		}
		if len(affected) <= threshold {
			return nil
		}
		return &Violation{
			ConstraintID: c.ID,
			Rule:         entities.ConstraintMaxScreenerDays,
			Hard:         false,
			Severity:     SeverityHigh,
			AnalystID:    c.AnalystID,
			AffectedIDs:  affected,
			Message:      fmt.Sprintf("analyst %s has %d screener days, maximum is %d", c.AnalystID, len(affected), threshold),
			SuggestedFix: fmt.Sprintf("Reassign %d screener day(s) to other analysts", len(affected)-threshold),
		}

	case entities.ConstraintMinScreenerDays:
		threshold := c.Threshold()
		var affected []string
		for _, s := range schedules {
			if inWindow(s) && s.AnalystID == c.AnalystID && s.IsScreener {
				affected = append(affected, s.ID)
			}
		}
		if len(affected) >= threshold {
			return nil
		}
		return &Violation{
			ConstraintID: c.ID,
			Rule:         entities.ConstraintMinScreenerDays,
			Hard:         false,
			Severity:     SeverityMedium,
			AnalystID:    c.AnalystID,
			AffectedIDs:  affected,
			Message:      fmt.Sprintf("analyst %s has %d screener days, minimum is %d", c.AnalystID, len(affected), threshold),
			SuggestedFix: fmt.Sprintf("Assign %d more screener day(s) to analyst %s", threshold-len(affected), c.AnalystID),
		}

	case entities.ConstraintPreferredScreener:
		var affected []string
		for _, s := range schedules {
			if inWindow(s) && s.AnalystID == c.AnalystID && !s.IsScreener {
				affected = append(affected, s.ID)
			}
		}
		if len(affected) == 0 {
			return nil
		}
		return &Violation{
			ConstraintID: c.ID,
			Rule:         entities.ConstraintPreferredScreener,
			Hard:         false,
			Severity:     SeverityLow,
			AnalystID:    c.AnalystID,
			AffectedIDs:  affected,
			Message:      fmt.Sprintf("analyst %s is a preferred screener but holds %d non-screener day(s)", c.AnalystID, len(affected)),
			SuggestedFix: fmt.Sprintf("Prefer analyst %s when designating screeners in this window", c.AnalystID),
		}

	case entities.ConstraintUnavailableScreener:
		var affected []string
		for _, s := range schedules {
			if inWindow(s) && s.AnalystID == c.AnalystID && s.IsScreener {
				affected = append(affected, s.ID)
			}
		}
		if len(affected) == 0 {
			return nil
		}
		return &Violation{
			ConstraintID: c.ID,
			Rule:         entities.ConstraintUnavailableScreener,
			Hard:         false,
			Severity:     SeverityMedium,
			AnalystID:    c.AnalystID,
			AffectedIDs:  affected,
			Message:      fmt.Sprintf("analyst %s is unavailable as screener but holds %d screener day(s)", c.AnalystID, len(affected)),
			SuggestedFix: fmt.Sprintf("Reassign screener duty away from analyst %s", c.AnalystID),
		}
	}
	return nil
}
