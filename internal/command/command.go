// Package command runs external tools (adb, python, wadecrypt) and captures
// their output.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a program and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	LookPath(name string) (string, error)
}

// Error is returned when a command could not start or exited non-zero.
type Error struct {
	Name     string
	Args     []string
	ExitCode int // -1 when the command did not run
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Name, strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Exited reports whether err is a command that ran and exited non-zero.
func Exited(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) && ce.ExitCode > 0 {
		return ce, true
	}
	return nil, false
}

// ExecRunner runs commands with os/exec. Cancelling ctx kills the child.
type ExecRunner struct {
	Dir string   // working directory, empty for the current one
	Env []string // extra KEY=value pairs appended to the environment
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	cerr := &Error{Name: name, Args: args, ExitCode: -1, Stderr: res.Stderr, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		cerr.ExitCode = res.ExitCode
	} else if ctx.Err() != nil {
		cerr.Err = ctx.Err()
	}
	return res, cerr
}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
