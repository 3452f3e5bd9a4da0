package decrypt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wa-go/internal/command"
	"wa-go/internal/migrate"
)

// Tool implements migrate.Decrypter with wadecrypt:
//
//	wadecrypt <key> <encrypted> <decrypted>
type Tool struct {
	provisioner *Provisioner
	runner      command.Runner
	path        string
}

func NewTool(provisioner *Provisioner, runner command.Runner) *Tool {
	return &Tool{provisioner: provisioner, runner: runner}
}

// Ensure resolves (and if needed installs) the executable.
func (t *Tool) Ensure(ctx context.Context) error {
	path, err := t.provisioner.Ensure(ctx)
	if err != nil {
		return err
	}
	t.path = path
	return nil
}

func (t *Tool) Decrypt(ctx context.Context, key, in, out string) error {
	if t.path == "" {
		if err := t.Ensure(ctx); err != nil {
			return err
		}
	}

	if _, err := t.runner.Run(ctx, t.path, key, in, out); err != nil {
		// command.Error prints its arguments, and the key is one of them
		var ce *command.Error
		if !errors.As(err, &ce) {
			return fmt.Errorf("decrypting %s: %w", in, err)
		}
		if ce.ExitCode > 0 {
			return fmt.Errorf("decrypting %s: %s exited with status %d: %s", in, t.path, ce.ExitCode, strings.TrimSpace(ce.Stderr))
		}
		return fmt.Errorf("decrypting %s: running %s: %w", in, t.path, ce.Err)
	}
	return nil
}

var _ migrate.Decrypter = (*Tool)(nil)
