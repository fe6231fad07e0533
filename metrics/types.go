package metrics

import "time"

// StageRecord is one completed pipeline stage, kept in the recent history
// shown by the health endpoint.
type StageRecord struct {
	// Stage is "extract", "review" or "render"
	Stage string `json:"stage"`

	// Status is "success" or "error"
	Status string `json:"status"`

	// CorrelationID ties the record to log lines
	CorrelationID string `json:"correlation_id,omitempty"`

	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`

	// ErrorMsg holds the user-facing message when Status is "error"
	ErrorMsg string `json:"error_msg,omitempty"`
}

// StageMetrics aggregates all records of one stage.
type StageMetrics struct {
	Count       int64         `json:"count"`
	SuccessRate float64       `json:"success_rate"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// PipelineMetrics is the aggregate over every recorded stage.
type PipelineMetrics struct {
	TotalProcessed int64                    `json:"total_processed"`
	TotalSuccess   int64                    `json:"total_success"`
	TotalErrors    int64                    `json:"total_errors"`
	ByStage        map[string]*StageMetrics `json:"by_stage"`
}

// SystemStatus is the body of the health endpoint.
type SystemStatus struct {
	Health        string        `json:"health"`
	Version       string        `json:"version"`
	Uptime        time.Duration `json:"uptime"`
	LastCheck     time.Time     `json:"last_check"`
	ActiveRecords int           `json:"active_records"`
}

// Status constants for StageRecord
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Health constants for SystemStatus
const (
	SystemHealthRunning  = "running"
	SystemHealthDegraded = "degraded"
)

// Pipeline stages
const (
	StageExtract = "extract"
	StageReview  = "review"
	StageRender  = "render"
)
