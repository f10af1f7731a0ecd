/**
 * CONTEXT:   Programmatic engine facade consumed by CLI and transport layers
 * INPUT:     Generation, swap validation, comp-off, and rotation administration calls
 * OUTPUT:    The core API contract of the scheduling engine
 * BUSINESS:  Higher layers translate between this API and their own surfaces
 * CHANGE:    Initial implementation.
 * RISK:      Low - Facade delegating to the owning components
 */

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shiftplanner/system/internal/compoff"
	"github.com/shiftplanner/system/internal/entities"
	"github.com/shiftplanner/system/internal/swap"
	"github.com/shiftplanner/system/internal/usecases/repositories"
	"github.com/shiftplanner/system/pkg/logger"
)

// Service is the engine's public contract
type Service struct {
	orchestrator   *Orchestrator
	swaps          *swap.Validator
	ledger         *compoff.Ledger
	schedules      repositories.ScheduleRepository
	rotationStates repositories.RotationStateRepository
	log            logger.Logger
}

// ServiceConfig wires the service facade
type ServiceConfig struct {
	Orchestrator   *Orchestrator
	Swaps          *swap.Validator
	Ledger         *compoff.Ledger
	Schedules      repositories.ScheduleRepository
	RotationStates repositories.RotationStateRepository
	Logger         logger.Logger
}

// NewService creates the engine facade
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewDefaultLogger("engine-service", "INFO")
	}
	return &Service{
		orchestrator:   cfg.Orchestrator,
		swaps:          cfg.Swaps,
		ledger:         cfg.Ledger,
		schedules:      cfg.Schedules,
		rotationStates: cfg.RotationStates,
		log:            cfg.Logger,
	}
}

// Generate runs one schedule generation
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	return s.orchestrator.Generate(ctx, req)
}

// ValidateManagerSwap checks a pairwise swap between two analysts
func (s *Service) ValidateManagerSwap(ctx context.Context, sourceAnalyst string, sourceDate time.Time, targetAnalyst string, targetDate time.Time) ([]swap.Violation, error) {
	return s.swaps.ValidatePairwiseSwap(ctx, sourceAnalyst, sourceDate, targetAnalyst, targetDate)
}

// ValidateManagerRangeSwap checks a full range exchange between two
// analysts
func (s *Service) ValidateManagerRangeSwap(ctx context.Context, sourceAnalyst, targetAnalyst string, start, end time.Time) ([]swap.Violation, error) {
	return s.swaps.ValidateRangeSwap(ctx, sourceAnalyst, targetAnalyst, start, end)
}

// CompOff exposes the comp-off ledger operations
func (s *Service) CompOff() *compoff.Ledger {
	return s.ledger
}

// RotationState loads the persisted rotation snapshot for a shift
func (s *Service) RotationState(ctx context.Context, algorithmName, shiftType string) (*entities.RotationState, error) {
	return s.rotationStates.Load(ctx, algorithmName, shiftType)
}

// ResetRotation deletes the persisted rotation snapshot so the next
// generation reseeds the pools from fairness history
func (s *Service) ResetRotation(ctx context.Context, algorithmName, shiftType string) error {
	if err := s.rotationStates.Delete(ctx, algorithmName, shiftType); err != nil {
		return fmt.Errorf("failed to reset rotation %s/%s: %w", algorithmName, shiftType, err)
	}
	s.log.Info("rotation state reset for %s/%s", algorithmName, shiftType)
	return nil
}

// AnalystWeekendLoad summarizes rotation burden for one analyst
type AnalystWeekendLoad struct {
	AnalystID   string `json:"analystId"`
	WeekendDays int    `json:"weekendDays"`
	LastWeekend string `json:"lastWeekend,omitempty"`
}

// RotationStatistics reports weekend burden over a range
type RotationStatistics struct {
	RegionID string               `json:"regionId"`
	Loads    []AnalystWeekendLoad `json:"loads"`
}

// Statistics aggregates weekend days per analyst over persisted schedules
func (s *Service) Statistics(ctx context.Context, regionID string, start, end time.Time) (*RotationStatistics, error) {
	schedules, err := s.schedules.FindByRegionAndRange(ctx, regionID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules for statistics: %w", err)
	}

	counts := make(map[string]int)
	last := make(map[string]string)
	for _, sched := range schedules {
		wd := int(sched.Date.Weekday())
		if wd != 0 && wd != 6 {
			continue
		}
		counts[sched.AnalystID]++
		if key := sched.DateKey(); key > last[sched.AnalystID] {
			last[sched.AnalystID] = key
		}
	}

	stats := &RotationStatistics{RegionID: regionID}
	for analystID, count := range counts {
		stats.Loads = append(stats.Loads, AnalystWeekendLoad{
			AnalystID:   analystID,
			WeekendDays: count,
			LastWeekend: last[analystID],
		})
	}
	sort.Slice(stats.Loads, func(i, j int) bool {
		if stats.Loads[i].WeekendDays != stats.Loads[j].WeekendDays {
			return stats.Loads[i].WeekendDays > stats.Loads[j].WeekendDays
		}
		return stats.Loads[i].AnalystID < stats.Loads[j].AnalystID
	})
	return stats, nil
}
