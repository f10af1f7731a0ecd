/**
 * CONTEXT:   Terminal report rendering for generation results and ledger statements
 * INPUT:     Generation results, fairness metrics, violations, and balances
 * OUTPUT:    Colored tables and summaries on stdout for operator review
 * BUSINESS:  Operators review fairness and conflicts before committing a proposal
 * CHANGE:    Initial implementation.
 * RISK:      Low - Presentation only, no effect on engine state
 */

package reporting

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/shiftplanner/system/internal/compoff"
	"github.com/shiftplanner/system/internal/engine"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/swap"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgMagenta, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// DisplayGenerationResult renders one generation run
func DisplayGenerationResult(result *engine.GenerationResult) {
	headerColor.Printf("\nSCHEDULE GENERATION %s\n", result.RunID)
	infoColor.Printf("%d schedule(s) over %d date(s) in %d ms\n",
		result.PerformanceMetrics.SchedulesGenerated,
		result.PerformanceMetrics.DatesProcessed,
		result.PerformanceMetrics.ExecutionTimeMs)

	displayFairnessSection(result)
	displayConflictSection(result)
	displayViolationSection(result)
	displayOverwriteSection(result)
}

func displayFairnessSection(result *engine.GenerationResult) {
	fmt.Println()
	successColor.Println("FAIRNESS:")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Analyst", "Total", "Weekend", "Screener", "After Hours", "Score"})
	table.SetBorder(false)
	table.SetRowSeparator("-")
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.FgMagentaColor, tablewriter.Bold},
		tablewriter.Colors{tablewriter.FgMagentaColor, tablewriter.Bold},
		tablewriter.Colors{tablewriter.FgMagentaColor, tablewriter.Bold},
		tablewriter.Colors{tablewriter.FgMagentaColor, tablewriter.Bold},
		tablewriter.Colors{tablewriter.FgMagentaColor, tablewriter.Bold},
		tablewriter.Colors{tablewriter.FgMagentaColor, tablewriter.Bold},
	)
	for _, m := range result.FairnessMetrics.PerAnalyst {
		table.Append([]string{
			m.AnalystID,
			strconv.Itoa(m.TotalDays),
			strconv.Itoa(m.WeekendDays),
			strconv.Itoa(m.ScreenerDays),
			strconv.Itoa(m.AfterHours),
			fmt.Sprintf("%.3f", m.FairnessScore),
		})
	}
	table.Render()

	infoColor.Printf("overall fairness %.3f (mean %.1f days, stddev %.2f)\n",
		result.FairnessMetrics.OverallScore,
		result.FairnessMetrics.MeanDays,
		result.FairnessMetrics.StdDeviation)
}

func displayConflictSection(result *engine.GenerationResult) {
	if len(result.Conflicts) == 0 {
		successColor.Println("\nNo coverage conflicts.")
		return
	}
	fmt.Println()
	warningColor.Printf("CONFLICTS (%d):\n", len(result.Conflicts))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Shift", "Type", "Detail"})
	table.SetBorder(false)
	for _, c := range result.Conflicts {
		table.Append([]string{c.DateKey, c.ShiftType, string(c.Type), c.Message})
	}
	table.Render()
}

func displayViolationSection(result *engine.GenerationResult) {
	violations := result.ConstraintValidation.Violations
	if len(violations) == 0 {
		successColor.Printf("\nConstraint validation passed (score %.3f).\n", result.ConstraintValidation.Score)
		return
	}
	fmt.Println()
	warningColor.Printf("CONSTRAINT VIOLATIONS (%d, score %.3f):\n",
		len(violations), result.ConstraintValidation.Score)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rule", "Severity", "Affected", "Suggested Fix"})
	table.SetBorder(false)
	for _, v := range violations {
		table.Append([]string{string(v.Rule), string(v.Severity), strconv.Itoa(len(v.AffectedIDs)), v.SuggestedFix})
	}
	table.Render()
	if !result.ConstraintValidation.Valid {
		errorColor.Println("schedule set contains HARD violations and is invalid")
	}
}

func displayOverwriteSection(result *engine.GenerationResult) {
	if len(result.Overwrites) == 0 {
		return
	}
	fmt.Println()
	warningColor.Printf("OVERWRITES (%d):\n", len(result.Overwrites))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Analyst", "Date", "Old Shift", "New Shift", "Old Screener", "New Screener"})
	table.SetBorder(false)
	for _, o := range result.Overwrites {
		table.Append([]string{
			o.AnalystID, o.DateKey, o.OldShiftType, o.NewShiftType,
			strconv.FormatBool(o.OldScreener), strconv.FormatBool(o.NewScreener),
		})
	}
	table.Render()
}

// DisplaySwapViolations renders swap validator output
func DisplaySwapViolations(violations []swap.Violation) {
	if len(violations) == 0 {
		successColor.Println("swap is safe: no block-integrity violations")
		return
	}
	errorColor.Printf("swap would create %d violation(s):\n", len(violations))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Analyst", "From", "To", "Days"})
	table.SetBorder(false)
	for _, v := range violations {
		table.Append([]string{v.AnalystID, v.StartDate, v.EndDate, strconv.Itoa(v.Length)})
	}
	table.Render()
}

// DisplayBalance renders one comp-off balance with its ledger
func DisplayBalance(summary *compoff.BalanceSummary, transactions []*entities.CompOffTransaction) {
	headerColor.Printf("\nCOMP-OFF BALANCE %s\n", summary.AnalystID)
	infoColor.Printf("earned %d, used %d, available %d\n", summary.Earned, summary.Used, summary.Available)

	if len(transactions) == 0 {
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Amount", "Reason", "Performed By"})
	table.SetBorder(false)
	for _, txn := range transactions {
		table.Append([]string{
			txn.CreatedAt.Format("2006-01-02"),
			strconv.Itoa(txn.Amount),
			txn.Reason,
			txn.PerformedBy,
		})
	}
	table.Render()
}

// DisplayRotationState renders a persisted rotation snapshot
func DisplayRotationState(state *entities.RotationState) {
	headerColor.Printf("\nROTATION %s / %s (cycle %d, version %d)\n",
		state.AlgorithmName, state.ShiftType, state.CycleGeneration, state.Version)
	infoColor.Printf("week1 %s from %s | week2 %s from %s\n",
		state.Week1Analyst, state.Week1StartDate.Format(entities.DateKeyLayout),
		state.Week2Analyst, state.Week2StartDate.Format(entities.DateKeyLayout))
	fmt.Printf("available: %v\ncompleted: %v\n", state.AvailablePool, state.CompletedPool)
}
