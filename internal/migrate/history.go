package migrate

import (
	"time"

	"wa-go/internal/model"
)

// History records runs and their stage results.
type History interface {
	CreateRun(runID, command string, startedAt time.Time, dryRun bool) (*model.Run, error)
	AddStage(runID int64, stage, status, detail string, at time.Time) error
	FinishRun(id int64, status string, at time.Time) error
	ListRuns(limit int) ([]*model.Run, error)
	ListStages(runID int64) ([]*model.RunStage, error)
	Close() error
}
