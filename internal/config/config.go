package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the on-disk configuration for wa.
// Every key is optional; CLI flags override file values.
type Config struct {
	Output     string `json:"output,omitempty" toml:"output,omitempty"`
	Input      string `json:"input,omitempty" toml:"input,omitempty"`
	Key        string `json:"key,omitempty" toml:"key,omitempty"`
	KeyFile    string `json:"key_file,omitempty" toml:"key_file,omitempty"` // age-sealed key, see internal/keystore
	Device     string `json:"device,omitempty" toml:"device,omitempty"`
	PullDevice string `json:"pull_device,omitempty" toml:"pull_device,omitempty"`
	PushDevice string `json:"push_device,omitempty" toml:"push_device,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty" toml:"dry_run,omitempty"`

	// Tooling
	AppID       string `json:"app_id,omitempty" toml:"app_id,omitempty"` // defaults to com.whatsapp
	AdbPath     string `json:"adb_path,omitempty" toml:"adb_path,omitempty"`
	DecryptTool string `json:"decrypt_tool,omitempty" toml:"decrypt_tool,omitempty"`
	ToolsDir    string `json:"tools_dir,omitempty" toml:"tools_dir,omitempty"`
}

// Format identifies the encoding of a config file.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatForPath picks the format from the file extension.
// Anything that is not .toml is read as JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// NewConfig creates a starter Config rooted at outputDir.
func NewConfig(outputDir string) *Config {
	return &Config{
		Output: outputDir,
		AppID:  DefaultAppID,
	}
}

// Manager handles reading and writing configuration in one format.
type Manager struct {
	Format Format
}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	switch m.Format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	switch m.Format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
// A missing file is an error: wa refuses to run without one.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s", path)
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{Format: FormatForPath(path)}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{Format: FormatForPath(path)}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. It never overwrites an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
