package app

import "wa-go/internal/model"

// RunOperation tracks one pipeline command for the run history.
// It is created in memory with ID=0; persisting it gives it the database id.
type RunOperation struct {
	ID      int64
	RunID   string
	Command string
	DryRun  bool
	Status  string
}

// NewRunOperation creates a new in-memory run operation.
func NewRunOperation(command, runID string, dryRun bool) *RunOperation {
	return &RunOperation{
		RunID:   runID,
		Command: command,
		DryRun:  dryRun,
		Status:  model.RunSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *RunOperation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation failed when err is non-nil.
func (op *RunOperation) Fail(err error) {
	if err != nil {
		op.Status = model.RunFailed
	}
}
