package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Run(t *testing.T) {
	requireSh(t)
	ctx := context.Background()

	t.Run("captures stdout", func(t *testing.T) {
		res, err := ExecRunner{}.Run(ctx, "sh", "-c", "echo hello")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if strings.TrimSpace(res.Stdout) != "hello" {
			t.Errorf("Stdout = %q, want hello", res.Stdout)
		}
	})

	t.Run("non-zero exit is an Error", func(t *testing.T) {
		res, err := ExecRunner{}.Run(ctx, "sh", "-c", "echo oops >&2; exit 3")
		if err == nil {
			t.Fatal("Run() expected error")
		}
		ce, ok := Exited(err)
		if !ok {
			t.Fatalf("Exited(%v) = false", err)
		}
		if ce.ExitCode != 3 || res.ExitCode != 3 {
			t.Errorf("ExitCode = %d/%d, want 3", ce.ExitCode, res.ExitCode)
		}
		if !strings.Contains(ce.Error(), "oops") {
			t.Errorf("Error() = %q, want stderr included", ce.Error())
		}
	})

	t.Run("missing binary did not exit", func(t *testing.T) {
		_, err := ExecRunner{}.Run(ctx, "wa-definitely-not-a-binary")
		if err == nil {
			t.Fatal("Run() expected error")
		}
		if _, ok := Exited(err); ok {
			t.Error("Exited() = true for a command that never started")
		}
		var ce *Error
		if !errors.As(err, &ce) || ce.ExitCode != -1 {
			t.Errorf("error = %v, want *Error with ExitCode -1", err)
		}
	})

	t.Run("extra environment", func(t *testing.T) {
		res, err := ExecRunner{Env: []string{"WA_TEST_VALUE=42"}}.Run(ctx, "sh", "-c", "echo $WA_TEST_VALUE")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if strings.TrimSpace(res.Stdout) != "42" {
			t.Errorf("Stdout = %q, want 42", res.Stdout)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ExecRunner{}.Run(ctx, "sh", "-c", "sleep 5")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	})
}
