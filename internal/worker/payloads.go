package worker

import "pipetask-service/internal/pipetask"

// Outcome values carried in TaskRunReport.Outcome.
const (
	OutcomeCompleted = "COMPLETED"
	OutcomeFailed    = "FAILED"
	OutcomeRejected  = "REJECTED"
)

// TaskRunRequest asks the worker to run one task variant.
type TaskRunRequest struct {
	RunID       string         `json:"run_id,omitempty"`
	TaskType    string         `json:"task_type"`
	VariantName string         `json:"variant_name"`
	Input       pipetask.Input `json:"input"`
}

// TaskRunReport describes one finished run. Outputs is null when the variant
// failed outright and [] when it succeeded without producing anything.
type TaskRunReport struct {
	RunID       string            `json:"run_id"`
	TaskType    string            `json:"task_type"`
	VariantName string            `json:"variant_name"`
	Outcome     string            `json:"outcome"`
	Status      bool              `json:"status"`
	Parallel    bool              `json:"parallel"`
	Outputs     []pipetask.Output `json:"outputs"`
	Error       string            `json:"error,omitempty"`
	Logs        []string          `json:"logs"`
	StartTime   int64             `json:"start_time,omitempty"`
	EndTime     int64             `json:"end_time,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
}
