package app

import (
	"errors"
	"testing"

	"wa-go/internal/model"
)

func TestNewRunOperation(t *testing.T) {
	tests := []struct {
		name    string
		command string
		dryRun  bool
	}{
		{name: "pipeline", command: "all", dryRun: false},
		{name: "dry run pull", command: "pull", dryRun: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewRunOperation(tt.command, "run-1", tt.dryRun)

			if op.Command != tt.command {
				t.Errorf("Command = %q, want %q", op.Command, tt.command)
			}
			if op.RunID != "run-1" {
				t.Errorf("RunID = %q, want %q", op.RunID, "run-1")
			}
			if op.DryRun != tt.dryRun {
				t.Errorf("DryRun = %v, want %v", op.DryRun, tt.dryRun)
			}
			if op.Status != model.RunSuccess {
				t.Errorf("Status = %q, want %q", op.Status, model.RunSuccess)
			}
			if op.Persisted() {
				t.Error("Persisted() = true for a new operation")
			}
		})
	}
}

func TestRunOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &RunOperation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunOperation_Fail(t *testing.T) {
	op := NewRunOperation("pull", "run-1", false)

	op.Fail(nil)
	if op.Status != model.RunSuccess {
		t.Errorf("Status after Fail(nil) = %q, want %q", op.Status, model.RunSuccess)
	}

	op.Fail(errors.New("boom"))
	if op.Status != model.RunFailed {
		t.Errorf("Status after Fail(err) = %q, want %q", op.Status, model.RunFailed)
	}
}
