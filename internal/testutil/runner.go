package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"wa-go/internal/command"
)

// Response is what FakeRunner returns for a matching command line.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int   // non-zero returns a *command.Error
	Err      error // returned as is, for commands that fail to start
}

// FakeRunner answers commands from a table keyed by command-line prefix
// ("adb -s X shell"). The longest matching prefix wins; unmatched commands
// succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	Paths     map[string]string // LookPath results

	Calls []string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]Response),
		Paths:     make(map[string]string),
	}
}

// On registers the response for commands starting with prefix.
func (r *FakeRunner) On(prefix string, resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[prefix] = resp
}

func (r *FakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := strings.Join(append([]string{name}, args...), " ")
	r.Calls = append(r.Calls, line)

	var (
		best  string
		resp  Response
		found bool
	)
	for prefix, candidate := range r.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, resp, found = prefix, candidate, true
		}
	}
	if !found {
		return command.Result{}, nil
	}

	res := command.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return res, &command.Error{Name: name, Args: args, ExitCode: -1, Err: resp.Err}
	}
	if resp.ExitCode != 0 {
		return res, &command.Error{Name: name, Args: args, ExitCode: resp.ExitCode, Stderr: resp.Stderr,
			Err: errors.New("exit status")}
	}
	return res, nil
}

func (r *FakeRunner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.Paths[name]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

// Called reports whether any recorded command line starts with prefix.
func (r *FakeRunner) Called(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

var _ command.Runner = (*FakeRunner)(nil)
