/**
 * CONTEXT:   Storage factory assembling repository implementations for the engine
 * INPUT:     Storage configuration selecting the SQLite store and optional analytics
 * OUTPUT:    Initialized repositories ready for dependency injection
 * BUSINESS:  Factory pattern provides clean initialization and dependency management
 * CHANGE:    Initial factory wiring the relational store with the graph analytics layer
 * RISK:      Medium - Factory coordinates initialization with error handling
 */

package database

import (
	"context"
	"fmt"

	"github.com/shiftplanner/system/internal/config"
	"github.com/shiftplanner/system/internal/database/kuzu"
	"github.com/shiftplanner/system/internal/database/sqlite"
	"github.com/shiftplanner/system/internal/usecases/repositories"
	"github.com/shiftplanner/system/pkg/logger"
)

// Infrastructure bundles every repository implementation plus the
// optional analytics layer
type Infrastructure struct {
	db        *sqlite.SQLiteDB
	analytics *kuzu.ConnectionManager

	regions        repositories.RegionRepository
	analysts       repositories.AnalystRepository
	shiftDefs      repositories.ShiftDefinitionRepository
	schedules      repositories.ScheduleRepository
	vacations      repositories.VacationRepository
	constraints    repositories.ConstraintRepository
	holidays       repositories.HolidayRepository
	rotationStates repositories.RotationStateRepository
	compOff        repositories.CompOffRepository
	generationLogs repositories.GenerationLogRepository
	history        *kuzu.HistoryRepository
}

// Accessors for repository interfaces
func (i *Infrastructure) Regions() repositories.RegionRepository                 { return i.regions }
func (i *Infrastructure) Analysts() repositories.AnalystRepository               { return i.analysts }
func (i *Infrastructure) ShiftDefinitions() repositories.ShiftDefinitionRepository { return i.shiftDefs }
func (i *Infrastructure) Schedules() repositories.ScheduleRepository             { return i.schedules }
func (i *Infrastructure) Vacations() repositories.VacationRepository             { return i.vacations }
func (i *Infrastructure) Constraints() repositories.ConstraintRepository         { return i.constraints }
func (i *Infrastructure) Holidays() repositories.HolidayRepository               { return i.holidays }
func (i *Infrastructure) RotationStates() repositories.RotationStateRepository   { return i.rotationStates }
func (i *Infrastructure) CompOff() repositories.CompOffRepository                { return i.compOff }
func (i *Infrastructure) GenerationLogs() repositories.GenerationLogRepository   { return i.generationLogs }

// History returns the analytics repository; nil when analytics is not
// configured
func (i *Infrastructure) History() *kuzu.HistoryRepository { return i.history }

// DB exposes the relational store for CLI seeding helpers
func (i *Infrastructure) DB() *sqlite.SQLiteDB { return i.db }

/**
 * CONTEXT:   Build the complete storage infrastructure from configuration
 * INPUT:     Storage configuration and a logger
 * OUTPUT:    Fully initialized repositories, with analytics when a path is configured
 * BUSINESS:  SQLite is always the system of record; KuzuDB is the derived read model
 * CHANGE:    Initial implementation.
 * RISK:      Medium - Partial initialization must close what it already opened
 */
func NewInfrastructure(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*Infrastructure, error) {
	if log == nil {
		log = logger.NewDefaultLogger("storage", "INFO")
	}

	db, err := sqlite.NewSQLiteDB(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize relational store: %w", err)
	}

	infra := &Infrastructure{
		db:             db,
		regions:        sqlite.NewRegionRepository(db),
		analysts:       sqlite.NewAnalystRepository(db),
		shiftDefs:      sqlite.NewShiftDefinitionRepository(db),
		schedules:      sqlite.NewScheduleRepository(db),
		vacations:      sqlite.NewVacationRepository(db),
		constraints:    sqlite.NewConstraintRepository(db),
		holidays:       sqlite.NewHolidayRepository(db),
		rotationStates: sqlite.NewRotationStateRepository(db),
		compOff:        sqlite.NewCompOffRepository(db),
		generationLogs: sqlite.NewGenerationLogRepository(db),
	}

	if cfg.Backend == config.BackendKuzu || cfg.AnalyticsDBPath != "" {
		path := cfg.AnalyticsDBPath
		if path == "" {
			path = cfg.DatabasePath + ".analytics"
		}
		connManager, err := kuzu.NewConnectionManager(kuzu.DefaultConnectionConfig(path))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize analytics store: %w", err)
		}
		if err := kuzu.NewMigrationManager(connManager).Migrate(ctx); err != nil {
			connManager.Close()
			db.Close()
			return nil, fmt.Errorf("failed to migrate analytics store: %w", err)
		}
		infra.analytics = connManager
		infra.history = kuzu.NewHistoryRepository(connManager)
		log.Info("analytics store ready at %s", path)
	}

	return infra, nil
}

// Close releases both stores
func (i *Infrastructure) Close() error {
	var firstErr error
	if i.analytics != nil {
		if err := i.analytics.Close(); err != nil {
			firstErr = err
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
