/**
 * CONTEXT:   Command handlers for generation, swap validation, ledger, and rotation admin
 * INPUT:     Parsed cobra flags and arguments per subcommand
 * OUTPUT:    Engine calls with rendered terminal reports
 * BUSINESS:  The CLI mirrors the engine's programmatic contract one-to-one
 * CHANGE:    Initial implementation.
 * RISK:      Low - Handlers validate input and delegate to the engine facade
 */

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiftplanner/system/internal/calendar"
	"github.com/shiftplanner/system/internal/engine"
	"github.com/shiftplanner/system/internal/reporting"
)

func parseDateArg(value, flagName string) (time.Time, error) {
	t, err := calendar.ParseDateKey(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", flagName, err)
	}
	return t, nil
}

func newGenerateCommand() *cobra.Command {
	var regionID, startArg, endArg, performer string
	var overwrite, dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate schedules for a region over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateArg(startArg, "start")
			if err != nil {
				return err
			}
			end, err := parseDateArg(endArg, "end")
			if err != nil {
				return err
			}

			result, err := app.service.Generate(context.Background(), engine.GenerationRequest{
				RegionID:  regionID,
				StartDate: start,
				EndDate:   end,
				Performer: performer,
				Overwrite: overwrite,
				DryRun:    dryRun,
				Config:    app.cfg.Algorithm,
			})
			if err != nil {
				return err
			}
			reporting.DisplayGenerationResult(result)

			// Mirror persisted schedules into the analytics store when
			// one is configured.
			if !dryRun && app.infra.History() != nil {
				analysts, err := app.infra.Analysts().FindByRegion(context.Background(), regionID, true)
				if err != nil {
					return fmt.Errorf("analytics ingestion failed: %w", err)
				}
				if err := app.infra.History().IngestSchedules(context.Background(), analysts, result.ProposedSchedules); err != nil {
					return fmt.Errorf("analytics ingestion failed: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&regionID, "region", "", "region identifier")
	cmd.Flags().StringVar(&startArg, "start", "", "range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endArg, "end", "", "range end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&performer, "performer", "cli", "who is running the generation")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite conflicting schedule slots")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute without persisting")
	cmd.MarkFlagRequired("region")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newSwapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Validate shift swaps between analysts",
	}

	var srcAnalyst, srcDate, dstAnalyst, dstDate string
	pairwise := &cobra.Command{
		Use:   "validate",
		Short: "Validate a pairwise day swap",
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := parseDateArg(srcDate, "source-date")
			if err != nil {
				return err
			}
			td, err := parseDateArg(dstDate, "target-date")
			if err != nil {
				return err
			}
			violations, err := app.service.ValidateManagerSwap(context.Background(), srcAnalyst, sd, dstAnalyst, td)
			if err != nil {
				return err
			}
			reporting.DisplaySwapViolations(violations)
			return nil
		},
	}
	pairwise.Flags().StringVar(&srcAnalyst, "source-analyst", "", "source analyst id")
	pairwise.Flags().StringVar(&srcDate, "source-date", "", "source date (YYYY-MM-DD)")
	pairwise.Flags().StringVar(&dstAnalyst, "target-analyst", "", "target analyst id")
	pairwise.Flags().StringVar(&dstDate, "target-date", "", "target date (YYYY-MM-DD)")
	pairwise.MarkFlagRequired("source-analyst")
	pairwise.MarkFlagRequired("source-date")
	pairwise.MarkFlagRequired("target-analyst")
	pairwise.MarkFlagRequired("target-date")

	var rangeStart, rangeEnd string
	rangeSwap := &cobra.Command{
		Use:   "validate-range",
		Short: "Validate a range swap",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateArg(rangeStart, "start")
			if err != nil {
				return err
			}
			end, err := parseDateArg(rangeEnd, "end")
			if err != nil {
				return err
			}
			violations, err := app.service.ValidateManagerRangeSwap(context.Background(), srcAnalyst, dstAnalyst, start, end)
			if err != nil {
				return err
			}
			reporting.DisplaySwapViolations(violations)
			return nil
		},
	}
	rangeSwap.Flags().StringVar(&srcAnalyst, "source-analyst", "", "source analyst id")
	rangeSwap.Flags().StringVar(&dstAnalyst, "target-analyst", "", "target analyst id")
	rangeSwap.Flags().StringVar(&rangeStart, "start", "", "window start (YYYY-MM-DD)")
	rangeSwap.Flags().StringVar(&rangeEnd, "end", "", "window end (YYYY-MM-DD)")
	rangeSwap.MarkFlagRequired("source-analyst")
	rangeSwap.MarkFlagRequired("target-analyst")
	rangeSwap.MarkFlagRequired("start")
	rangeSwap.MarkFlagRequired("end")

	cmd.AddCommand(pairwise, rangeSwap)
	return cmd
}

func newCompOffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compoff",
		Short: "Inspect and adjust comp-off balances",
	}

	var analystID string
	balance := &cobra.Command{
		Use:   "balance",
		Short: "Show an analyst's balance and ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.service.CompOff().GetBalance(context.Background(), analystID)
			if err != nil {
				return err
			}
			transactions, err := app.service.CompOff().Transactions(context.Background(), analystID)
			if err != nil {
				return err
			}
			reporting.DisplayBalance(summary, transactions)
			return nil
		},
	}
	balance.Flags().StringVar(&analystID, "analyst", "", "analyst id")
	balance.MarkFlagRequired("analyst")

	var units int
	var reason, reference string
	credit := &cobra.Command{
		Use:   "credit",
		Short: "Credit comp-off units",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.service.CompOff().CreditFromConstraint(context.Background(), analystID, reference, units, reason)
		},
	}
	credit.Flags().StringVar(&analystID, "analyst", "", "analyst id")
	credit.Flags().IntVar(&units, "units", 1, "units to credit")
	credit.Flags().StringVar(&reason, "reason", "MANUAL_CREDIT", "transaction reason")
	credit.Flags().StringVar(&reference, "reference", "", "originating constraint or event id")
	credit.MarkFlagRequired("analyst")

	var absenceID string
	debit := &cobra.Command{
		Use:   "debit",
		Short: "Debit comp-off units against an absence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.service.CompOff().DebitForAbsence(context.Background(), analystID, absenceID, units)
		},
	}
	debit.Flags().StringVar(&analystID, "analyst", "", "analyst id")
	debit.Flags().IntVar(&units, "units", 1, "units to debit")
	debit.Flags().StringVar(&absenceID, "absence", "", "absence record id")
	debit.MarkFlagRequired("analyst")
	debit.MarkFlagRequired("absence")

	var targetEarned, targetUsed int
	var performer string
	adjust := &cobra.Command{
		Use:   "adjust",
		Short: "Reconcile a balance to explicit targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			var earnedPtr, usedPtr *int
			if cmd.Flags().Changed("earned") {
				earnedPtr = &targetEarned
			}
			if cmd.Flags().Changed("used") {
				usedPtr = &targetUsed
			}
			return app.service.CompOff().UpdateBalance(context.Background(), analystID, performer, earnedPtr, usedPtr, reason)
		},
	}
	adjust.Flags().StringVar(&analystID, "analyst", "", "analyst id")
	adjust.Flags().IntVar(&targetEarned, "earned", 0, "target earned units")
	adjust.Flags().IntVar(&targetUsed, "used", 0, "target used units")
	adjust.Flags().StringVar(&performer, "performer", "cli", "who performs the adjustment")
	adjust.Flags().StringVar(&reason, "reason", "", "adjustment reason")
	adjust.MarkFlagRequired("analyst")

	transactions := &cobra.Command{
		Use:   "transactions",
		Short: "List the ledger history for an analyst",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.service.CompOff().GetBalance(context.Background(), analystID)
			if err != nil {
				return err
			}
			txns, err := app.service.CompOff().Transactions(context.Background(), analystID)
			if err != nil {
				return err
			}
			reporting.DisplayBalance(summary, txns)
			return nil
		},
	}
	transactions.Flags().StringVar(&analystID, "analyst", "", "analyst id")
	transactions.MarkFlagRequired("analyst")

	cmd.AddCommand(balance, credit, debit, adjust, transactions)
	return cmd
}

func newRotationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Inspect and administer weekend rotation state",
	}

	var algorithmName, shiftType string
	state := &cobra.Command{
		Use:   "state",
		Short: "Show the persisted rotation snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := app.service.RotationState(context.Background(), algorithmName, shiftType)
			if err != nil {
				return err
			}
			reporting.DisplayRotationState(snapshot)
			return nil
		},
	}
	state.Flags().StringVar(&algorithmName, "algorithm", engine.DefaultAlgorithmName, "algorithm name")
	state.Flags().StringVar(&shiftType, "shift", "", "shift type")
	state.MarkFlagRequired("shift")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete the rotation snapshot so the next run reseeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.service.ResetRotation(context.Background(), algorithmName, shiftType)
		},
	}
	reset.Flags().StringVar(&algorithmName, "algorithm", engine.DefaultAlgorithmName, "algorithm name")
	reset.Flags().StringVar(&shiftType, "shift", "", "shift type")
	reset.MarkFlagRequired("shift")

	var regionID, startArg, endArg string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Weekend burden statistics over a range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateArg(startArg, "start")
			if err != nil {
				return err
			}
			end, err := parseDateArg(endArg, "end")
			if err != nil {
				return err
			}
			statistics, err := app.service.Statistics(context.Background(), regionID, start, end)
			if err != nil {
				return err
			}
			for _, load := range statistics.Loads {
				fmt.Printf("%-20s weekend days: %-3d last: %s\n", load.AnalystID, load.WeekendDays, load.LastWeekend)
			}
			return nil
		},
	}
	stats.Flags().StringVar(&regionID, "region", "", "region identifier")
	stats.Flags().StringVar(&startArg, "start", "", "range start (YYYY-MM-DD)")
	stats.Flags().StringVar(&endArg, "end", "", "range end (YYYY-MM-DD)")
	stats.MarkFlagRequired("region")
	stats.MarkFlagRequired("start")
	stats.MarkFlagRequired("end")

	cmd.AddCommand(state, reset, stats)
	return cmd
}
