/**
 * CONTEXT:   Engine and storage configuration with validation and defaults
 * INPUT:     Configuration files, caller overrides, and embedded defaults
 * OUTPUT:    Validated configuration ready for orchestrator and store initialization
 * BUSINESS:  Centralized configuration keeps generation behavior consistent across surfaces
 * CHANGE:    Initial configuration implementation with validation and defaults
 * RISK:      Low - Configuration management with comprehensive validation and defaults
 */

package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Optimization strategies recognized by the engine
const (
	OptimizationGreedy       = "GREEDY"
	OptimizationHillClimbing = "HILL_CLIMBING"
)

// Screener assignment strategies
const (
	ScreenerRoundRobin      = "ROUND_ROBIN"
	ScreenerWorkloadBalance = "WORKLOAD_BALANCE"
)

// Weekend rotation strategies
const (
	WeekendFairnessOptimized = "FAIRNESS_OPTIMIZED"
)

// AlgorithmConfig carries the recognized generation options. Every field
// is optional on the wire; Normalize fills defaults.
type AlgorithmConfig struct {
	OptimizationStrategy       string  `json:"optimizationStrategy"`
	MaxIterations              int     `json:"maxIterations"`
	FairnessWeight             float64 `json:"fairnessWeight"`
	EfficiencyWeight           float64 `json:"efficiencyWeight"`
	ConstraintWeight           float64 `json:"constraintWeight"`
	ScreenerAssignmentStrategy string  `json:"screenerAssignmentStrategy"`
	WeekendRotationStrategy    string  `json:"weekendRotationStrategy"`
	MinWeekendGapDays          int     `json:"minWeekendGapDays"`
	MaxConsecutiveWorkDays     int     `json:"maxConsecutiveWorkDays"`
	RandomizationFactor        float64 `json:"randomizationFactor"`
	AMToPMTargetCapacity       int     `json:"amToPmTargetCapacity"`
	HolidayCompOffEnabled      bool    `json:"holidayCompOffEnabled"`
}

// DefaultAlgorithmConfig returns the documented defaults
func DefaultAlgorithmConfig() AlgorithmConfig {
	return AlgorithmConfig{
		OptimizationStrategy:       OptimizationGreedy,
		MaxIterations:              1,
		FairnessWeight:             1.0,
		EfficiencyWeight:           0.0,
		ConstraintWeight:           0.0,
		ScreenerAssignmentStrategy: ScreenerRoundRobin,
		WeekendRotationStrategy:    WeekendFairnessOptimized,
		MinWeekendGapDays:          13,
		MaxConsecutiveWorkDays:     5,
		RandomizationFactor:        0,
		AMToPMTargetCapacity:       1,
	}
}

// Normalize fills unset options with defaults. A zero AMToPMTargetCapacity
// is kept and disables AM-to-PM rotation; only a negative one is reset.
func (c *AlgorithmConfig) Normalize() {
	defaults := DefaultAlgorithmConfig()
	if c.OptimizationStrategy == "" {
		c.OptimizationStrategy = defaults.OptimizationStrategy
	}
	if c.MaxIterations <= 0 {
		if c.OptimizationStrategy == OptimizationHillClimbing {
			c.MaxIterations = 1000
		} else {
			c.MaxIterations = 1
		}
	}
	if c.FairnessWeight == 0 && c.EfficiencyWeight == 0 && c.ConstraintWeight == 0 {
		c.FairnessWeight = defaults.FairnessWeight
	}
	if c.ScreenerAssignmentStrategy == "" {
		c.ScreenerAssignmentStrategy = defaults.ScreenerAssignmentStrategy
	}
	if c.WeekendRotationStrategy == "" {
		c.WeekendRotationStrategy = defaults.WeekendRotationStrategy
	}
	if c.MinWeekendGapDays <= 0 {
		c.MinWeekendGapDays = defaults.MinWeekendGapDays
	}
	if c.MaxConsecutiveWorkDays <= 0 {
		c.MaxConsecutiveWorkDays = defaults.MaxConsecutiveWorkDays
	}
	if c.AMToPMTargetCapacity < 0 {
		c.AMToPMTargetCapacity = defaults.AMToPMTargetCapacity
	}
}

// Validate checks option ranges after normalization
func (c *AlgorithmConfig) Validate() error {
	switch c.OptimizationStrategy {
	case OptimizationGreedy, OptimizationHillClimbing:
	default:
		return fmt.Errorf("unknown optimization strategy %q", c.OptimizationStrategy)
	}
	switch c.ScreenerAssignmentStrategy {
	case ScreenerRoundRobin, ScreenerWorkloadBalance:
	default:
		return fmt.Errorf("unknown screener assignment strategy %q", c.ScreenerAssignmentStrategy)
	}
	if c.WeekendRotationStrategy != WeekendFairnessOptimized {
		return fmt.Errorf("unknown weekend rotation strategy %q", c.WeekendRotationStrategy)
	}
	sum := c.FairnessWeight + c.EfficiencyWeight + c.ConstraintWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("fairness, efficiency, and constraint weights must sum to 1.0, got %.3f", sum)
	}
	if c.RandomizationFactor < 0 || c.RandomizationFactor > 1 {
		return fmt.Errorf("randomization factor %.3f outside [0,1]", c.RandomizationFactor)
	}
	return nil
}

// StorageBackend selects the persistence implementation
type StorageBackend string

const (
	BackendSQLite StorageBackend = "sqlite"
	BackendKuzu   StorageBackend = "kuzu"
)

// StorageConfig configures the persistence layer
type StorageConfig struct {
	Backend         StorageBackend `json:"backend"`
	DatabasePath    string         `json:"database_path"`
	MaxOpenConns    int            `json:"max_open_conns"`
	MaxIdleConns    int            `json:"max_idle_conns"`
	BusyTimeoutMs   int            `json:"busy_timeout_ms"`
	AnalyticsDBPath string         `json:"analytics_db_path"`
}

// DefaultStorageConfig returns sensible local defaults
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:       BackendSQLite,
		DatabasePath:  "shiftplanner.db",
		MaxOpenConns:  10,
		MaxIdleConns:  5,
		BusyTimeoutMs: 5000,
	}
}

// AppConfig is the top-level configuration loaded by the CLI
type AppConfig struct {
	Storage   StorageConfig   `json:"storage"`
	Algorithm AlgorithmConfig `json:"algorithm"`
	LogLevel  string          `json:"log_level"`
}

// DefaultAppConfig returns the embedded defaults
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Storage:   DefaultStorageConfig(),
		Algorithm: DefaultAlgorithmConfig(),
		LogLevel:  "INFO",
	}
}

// LoadAppConfig reads configuration from a JSON file, layering it over
// the defaults. A missing path returns the defaults untouched.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Algorithm.Normalize()
	if err := cfg.Algorithm.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid algorithm configuration: %w", err)
	}
	return cfg, nil
}
