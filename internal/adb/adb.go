// Package adb talks to Android devices through the adb command-line tool.
package adb

import (
	"context"
	"fmt"
	"strings"

	"wa-go/internal/command"
	"wa-go/internal/migrate"
)

const (
	// UnknownModel is used when the device listing has no model field.
	UnknownModel = "Unknown"
	// UnknownProductModel is returned when getprop fails.
	UnknownProductModel = "Unknown Model"
)

// Client implements migrate.Transport by running adb.
type Client struct {
	bin    string
	runner command.Runner
	logger migrate.Logger
}

// NewClient creates a Client running bin (usually "adb").
func NewClient(bin string, runner command.Runner, logger migrate.Logger) *Client {
	if bin == "" {
		bin = "adb"
	}
	if logger == nil {
		logger = migrate.NewNopLogger()
	}
	return &Client{bin: bin, runner: runner, logger: logger}
}

// args prefixes args with -s <serial> when a selector is given.
func (c *Client) args(selector string, args ...string) []string {
	if selector == "" {
		return args
	}
	return append([]string{"-s", selector}, args...)
}

func (c *Client) run(ctx context.Context, selector string, args ...string) (command.Result, error) {
	full := c.args(selector, args...)
	c.logger.Debug("running adb", "args", strings.Join(full, " "))
	return c.runner.Run(ctx, c.bin, full...)
}

func (c *Client) ListDevices(ctx context.Context) ([]migrate.Device, error) {
	res, err := c.run(ctx, "", "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	devices := ParseDevices(res.Stdout)
	for i, d := range devices {
		if d.Model == UnknownModel && d.State == "device" {
			devices[i].Model = c.ProductModel(ctx, d.ID)
		}
	}
	return devices, nil
}

// ProductModel returns ro.product.model for serial, or UnknownProductModel.
func (c *Client) ProductModel(ctx context.Context, serial string) string {
	res, err := c.run(ctx, serial, "shell", "getprop", "ro.product.model")
	if err != nil {
		return UnknownProductModel
	}
	model := strings.TrimSpace(res.Stdout)
	if model == "" {
		return UnknownProductModel
	}
	return model
}

func (c *Client) IsConnected(ctx context.Context, selector string) bool {
	_, err := c.run(ctx, selector, "get-state")
	if err != nil {
		c.logger.Debug("device not reachable", "device", selector, "error", err)
		return false
	}
	return true
}

func (c *Client) Pull(ctx context.Context, selector, remote, local string) error {
	if _, err := c.run(ctx, selector, "pull", remote, local); err != nil {
		return fmt.Errorf("pulling %s: %w", remote, err)
	}
	return nil
}

func (c *Client) Push(ctx context.Context, selector, local, remote string) error {
	if _, err := c.run(ctx, selector, "push", local, remote); err != nil {
		return fmt.Errorf("pushing %s: %w", local, err)
	}
	return nil
}

// TestPath runs `[ -f path ]` (or -d) on the device. A plain non-zero exit
// means absent; anything adb prints to stderr means the check failed.
func (c *Client) TestPath(ctx context.Context, selector, remote string, kind migrate.PathKind) (bool, error) {
	flag := "-f"
	if kind == migrate.Directory {
		flag = "-d"
	}

	_, err := c.run(ctx, selector, "shell", fmt.Sprintf("[ %s %s ]", flag, ShellQuote(remote)))
	if err == nil {
		return true, nil
	}
	if ce, ok := command.Exited(err); ok && strings.TrimSpace(ce.Stderr) == "" {
		return false, nil
	}
	return false, fmt.Errorf("testing %s: %w", remote, err)
}

func (c *Client) MakeDir(ctx context.Context, selector, remote string) error {
	if _, err := c.run(ctx, selector, "shell", "mkdir -p "+ShellQuote(remote)); err != nil {
		return fmt.Errorf("creating %s: %w", remote, err)
	}
	return nil
}

// ShellQuote single-quotes s for the device shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var _ migrate.Transport = (*Client)(nil)
