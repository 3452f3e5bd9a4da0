package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigName is looked up in the working directory when neither
// --config nor WA_CONFIG_PATH is given.
const DefaultConfigName = "config.json"

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - WA_CONFIG_PATH: config file location (default: <cwd>/config.json)
//   - WA_HOME: base directory for wa data (default: ~/.local/share/wa)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"data_dir":    baseDir,
		"tools_dir":   filepath.Join(baseDir, "tools"),
		"key_file":    filepath.Join(baseDir, "key.age"),
	}, nil
}

// getConfigPath returns the config file path, checking WA_CONFIG_PATH env var first,
// then falling back to config.json in the working directory.
func getConfigPath() (string, error) {
	if path := os.Getenv("WA_CONFIG_PATH"); path != "" {
		return path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	return filepath.Join(cwd, DefaultConfigName), nil
}

// getBaseDir returns the base directory for wa data, checking WA_HOME env var first,
// then falling back to the XDG default ~/.local/share/wa.
func getBaseDir() (string, error) {
	if path := os.Getenv("WA_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "wa"), nil
}
