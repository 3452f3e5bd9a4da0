package model

import "time"

// Run is one recorded invocation of a pipeline command.
type Run struct {
	ID         int64
	RunID      string // UUID, also written to every log line of the run
	Command    string // pull, push, decrypt, convert or all
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running or if the process died
	Status     string
	DryRun     bool
}

// RunStage is the outcome of one stage inside a Run.
type RunStage struct {
	ID        int64
	RunID     int64 // Foreign key to Run.ID
	Stage     string
	Status    string
	Detail    string
	CreatedAt time.Time
}

// Run statuses.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunFailed  = "failed"
)
