package core

import "time"

// Run statuses.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunFailed  = "failed"
)

// Step statuses.
const (
	StepRunning = "running"
	StepSuccess = "success"
	StepSkipped = "skipped"
	StepFailed  = "failed"
)

// RunStep is one entry of a pipeline run's step log.
type RunStep struct {
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineRun records one execution of the daily pipeline.
type PipelineRun struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Status      string     `json:"status"`
	CurrentStep string     `json:"current_step,omitempty"`
	Error       string     `json:"error,omitempty"`
	Steps       []RunStep  `json:"steps"`
}

// Finished reports whether the run reached a terminal status.
func (r PipelineRun) Finished() bool {
	return r.Status == RunSuccess || r.Status == RunFailed
}

// Duration is the wall time of a finished run, or zero while running.
func (r PipelineRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
