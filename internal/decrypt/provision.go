// Package decrypt runs the external crypt15 decryption utility (wadecrypt from
// the wa-crypt-tools Python package) and installs it on demand.
package decrypt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wa-go/internal/command"
	"wa-go/internal/migrate"
)

const (
	// ToolName is the decryption executable.
	ToolName = "wadecrypt"
	// VenvName is the virtual environment created under the tools directory.
	VenvName = "wa-crypt-tools"
	// PackageName is the pip package providing ToolName.
	PackageName = "wa-crypt-tools"
)

// ErrToolMissing is returned when no decryption utility could be found or installed.
var ErrToolMissing = errors.New("decryption tool not available")

// Provisioner locates wadecrypt, creating a Python virtual environment for
// it when it is not installed anywhere.
//
// Lookup order: the configured decrypt_tool, wadecrypt on $PATH, then
// <tools_dir>/wa-crypt-tools/bin/wadecrypt.
type Provisioner struct {
	runner     command.Runner
	configured string
	toolsDir   string
	logger     migrate.Logger
}

func NewProvisioner(runner command.Runner, configured, toolsDir string, logger migrate.Logger) *Provisioner {
	if logger == nil {
		logger = migrate.NewNopLogger()
	}
	return &Provisioner{runner: runner, configured: configured, toolsDir: toolsDir, logger: logger}
}

// VenvPath is where the virtual environment lives, or "" without a tools dir.
func (p *Provisioner) VenvPath() string {
	if p.toolsDir == "" {
		return ""
	}
	return filepath.Join(p.toolsDir, VenvName)
}

func (p *Provisioner) venvBin(name string) string {
	return filepath.Join(p.VenvPath(), "bin", name)
}

// Ensure returns the path of a usable wadecrypt, installing it if needed.
func (p *Provisioner) Ensure(ctx context.Context) (string, error) {
	if p.configured != "" {
		if !isExecutable(p.configured) {
			return "", fmt.Errorf("%w: decrypt_tool %s is not an executable file", ErrToolMissing, p.configured)
		}
		return p.configured, nil
	}

	if path, err := p.runner.LookPath(ToolName); err == nil {
		p.logger.Debug("using decryption tool from PATH", "path", path)
		return path, nil
	}

	if p.toolsDir == "" {
		return "", fmt.Errorf("%w: %s not on PATH and no tools_dir configured", ErrToolMissing, ToolName)
	}

	tool := p.venvBin(ToolName)
	if isExecutable(tool) {
		return tool, nil
	}

	if err := p.install(ctx); err != nil {
		return "", err
	}

	if !isExecutable(tool) {
		return "", fmt.Errorf("%w: %s missing after install", ErrToolMissing, tool)
	}
	return tool, nil
}

func (p *Provisioner) install(ctx context.Context) error {
	venv := p.VenvPath()

	if info, err := os.Stat(venv); err != nil || !info.IsDir() {
		python, err := p.runner.LookPath("python3")
		if err != nil {
			return fmt.Errorf("%w: python3 is required to install %s: %v", ErrToolMissing, PackageName, err)
		}
		if err := os.MkdirAll(p.toolsDir, 0755); err != nil {
			return fmt.Errorf("creating tools directory: %w", err)
		}

		p.logger.Info("creating virtual environment", "path", venv)
		if _, err := p.runner.Run(ctx, python, "-m", "venv", venv); err != nil {
			return fmt.Errorf("creating virtual environment: %w", err)
		}
	}

	p.logger.Info("installing decryption tool", "package", PackageName)
	if _, err := p.runner.Run(ctx, p.venvBin("pip"), "install", PackageName); err != nil {
		// the tool may already be installed; Ensure checks afterwards
		p.logger.Warn("failed to install dependencies in virtual environment", "error", err)
	}
	return nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}
