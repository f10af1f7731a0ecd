package entities

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStatus is the terminal state of a schedule generation run
type GenerationStatus string

const (
	GenerationStatusSuccess GenerationStatus = "SUCCESS"
	GenerationStatusFailed  GenerationStatus = "FAILED"
	GenerationStatusPartial GenerationStatus = "PARTIAL"
)

// GenerationLog records one schedule generation run for auditability
type GenerationLog struct {
	RunID              string            `json:"runId"`
	Performer          string            `json:"performer"`
	AlgorithmName      string            `json:"algorithmName"`
	RegionID           string            `json:"regionId"`
	StartDate          time.Time         `json:"startDate"`
	EndDate            time.Time         `json:"endDate"`
	SchedulesGenerated int               `json:"schedulesGenerated"`
	ConflictsDetected  int               `json:"conflictsDetected"`
	FairnessScore      float64           `json:"fairnessScore"`
	ExecutionTimeMs    int64             `json:"executionTimeMs"`
	Status             GenerationStatus  `json:"status"`
	ErrorMessage       string            `json:"errorMessage,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// NewGenerationLog starts a log record for a run
func NewGenerationLog(performer, algorithmName, regionID string, start, end time.Time) *GenerationLog {
	return &GenerationLog{
		RunID:         uuid.New().String(),
		Performer:     performer,
		AlgorithmName: algorithmName,
		RegionID:      regionID,
		StartDate:     NormalizeDate(start),
		EndDate:       NormalizeDate(end),
		Status:        GenerationStatusFailed,
		Metadata:      make(map[string]string),
		CreatedAt:     time.Now().UTC(),
	}
}
