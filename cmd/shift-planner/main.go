/**
 * CONTEXT:   ShiftPlanner operational CLI entry point
 * INPUT:     Command line arguments selecting generation, swap, ledger, or rotation operations
 * OUTPUT:    Engine operations executed against the local store with rendered reports
 * BUSINESS:  Operators drive the scheduling engine without a service front-end
 * CHANGE:    Initial implementation.
 * RISK:      Low - Thin command layer over the engine facade
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shiftplanner/system/internal/compoff"
	"github.com/shiftplanner/system/internal/config"
	"github.com/shiftplanner/system/internal/database"
	"github.com/shiftplanner/system/internal/engine"
	"github.com/shiftplanner/system/internal/swap"
	"github.com/shiftplanner/system/pkg/logger"
)

// Build information (set by build process)
var (
	Version   = "0.9.0"
	BuildTime = "development"
	GitCommit = "unknown"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

// appContext bundles the initialized runtime for command handlers
type appContext struct {
	cfg     config.AppConfig
	infra   *database.Infrastructure
	service *engine.Service
	log     logger.Logger
}

var (
	configPath string
	app        *appContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "shift-planner",
		Short:         "Fair, constraint-compliant work schedule generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			var err error
			app, err = initializeApp(configPath)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.infra != nil {
				app.infra.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to JSON configuration file")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newSwapCommand())
	rootCmd.AddCommand(newCompOffCommand())
	rootCmd.AddCommand(newRotationCommand())

	if err := rootCmd.Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// initializeApp loads configuration and wires the engine service
func initializeApp(path string) (*appContext, error) {
	cfg, err := config.LoadAppConfig(path)
	if err != nil {
		return nil, err
	}
	log := logger.NewDefaultLogger("shift-planner", cfg.LogLevel)

	infra, err := database.NewInfrastructure(context.Background(), cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}

	ledger := compoff.NewLedger(infra.CompOff(), log)
	orchestrator := engine.NewOrchestrator(engine.OrchestratorConfig{
		Regions:        infra.Regions(),
		Analysts:       infra.Analysts(),
		ShiftDefs:      infra.ShiftDefinitions(),
		Schedules:      infra.Schedules(),
		Vacations:      infra.Vacations(),
		Constraints:    infra.Constraints(),
		Holidays:       infra.Holidays(),
		RotationStates: infra.RotationStates(),
		GenerationLogs: infra.GenerationLogs(),
		Ledger:         ledger,
		Logger:         log,
	})
	service := engine.NewService(engine.ServiceConfig{
		Orchestrator:   orchestrator,
		Swaps:          swap.NewValidator(infra.Schedules(), log),
		Ledger:         ledger,
		Schedules:      infra.Schedules(),
		RotationStates: infra.RotationStates(),
		Logger:         log,
	})

	return &appContext{cfg: cfg, infra: infra, service: service, log: log}, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			infoColor.Printf("shift-planner %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
		},
	}
}
