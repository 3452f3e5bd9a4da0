package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// DefaultAppID is the Android package whose media folder holds the backups.
const DefaultAppID = "com.whatsapp"

// DefaultOutputDirName is used under the working directory when no output is configured.
const DefaultOutputDirName = "output"

// ErrInvalidConfig is wrapped by every resolution failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var appIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// Overrides holds values given on the command line. Empty strings mean "not set".
type Overrides struct {
	Output     string
	Input      string
	Key        string
	Device     string
	PullDevice string
	PushDevice string
	DryRun     bool
}

// Settings is the resolved, immutable configuration for one invocation.
// Paths are absolute. Build it with Resolve.
type Settings struct {
	output      string
	input       string
	key         string
	keyFile     string
	pullDevice  string
	pushDevice  string
	dryRun      bool
	appID       string
	adbPath     string
	decryptTool string
	toolsDir    string
}

// Resolve merges file configuration with CLI overrides (CLI wins) and makes
// every path absolute relative to cwd. file may be nil.
func Resolve(file *Config, o Overrides, cwd string) (*Settings, error) {
	if file == nil {
		file = &Config{}
	}
	if !filepath.IsAbs(cwd) {
		abs, err := filepath.Abs(cwd)
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		cwd = abs
	}

	s := &Settings{
		key:         first(o.Key, file.Key),
		keyFile:     resolvePath(file.KeyFile, cwd),
		pullDevice:  first(o.PullDevice, o.Device, file.PullDevice, file.Device),
		pushDevice:  first(o.PushDevice, o.Device, file.PushDevice, file.Device),
		dryRun:      o.DryRun || file.DryRun,
		appID:       first(file.AppID, DefaultAppID),
		adbPath:     first(file.AdbPath, "adb"),
		decryptTool: resolvePath(file.DecryptTool, cwd),
		toolsDir:    resolvePath(file.ToolsDir, cwd),
	}

	if !appIDPattern.MatchString(s.appID) {
		return nil, fmt.Errorf("%w: app_id %q contains unsupported characters", ErrInvalidConfig, s.appID)
	}

	output := first(o.Output, file.Output)
	if output == "" {
		s.output = filepath.Join(cwd, DefaultOutputDirName)
	} else {
		s.output = resolvePath(output, cwd)
	}

	// Input falls back to the resolved output: decrypt and push read what pull wrote.
	input := first(o.Input, file.Input)
	if input == "" {
		s.input = s.output
	} else {
		s.input = resolvePath(input, cwd)
	}

	return s, nil
}

// WithKey returns a copy of s carrying key. Used once the CLI has unlocked a
// sealed key file; s itself is left untouched.
func (s *Settings) WithKey(key string) *Settings {
	c := *s
	c.key = key
	return &c
}

func (s *Settings) Output() string      { return s.output }
func (s *Settings) Input() string       { return s.input }
func (s *Settings) Key() string         { return s.key }
func (s *Settings) KeyFile() string     { return s.keyFile }
func (s *Settings) PullDevice() string  { return s.pullDevice }
func (s *Settings) PushDevice() string  { return s.pushDevice }
func (s *Settings) DryRun() bool        { return s.dryRun }
func (s *Settings) AppID() string       { return s.appID }
func (s *Settings) AdbPath() string     { return s.adbPath }
func (s *Settings) DecryptTool() string { return s.decryptTool }
func (s *Settings) ToolsDir() string    { return s.toolsDir }

// resolvePath returns p unchanged when absolute, joined onto base when relative,
// and "" when empty.
func resolvePath(p, base string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
