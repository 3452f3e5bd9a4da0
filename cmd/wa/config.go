package main

import (
	"fmt"
	"os"
	"path/filepath"

	"wa-go/internal/app"
	"wa-go/internal/config"

	"github.com/spf13/cobra"
)

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		path := globalFlags.config
		if path == "" {
			path = defaults["config_path"]
		}

		output := globalFlags.output
		if output == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			output = filepath.Join(cwd, config.DefaultOutputDirName)
		}

		cfg := config.NewConfig(output)
		cfg.ToolsDir = defaults["tools_dir"]
		if err := config.Init(path, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		fmt.Printf("Output:    %s\n", cfg.Output)
		fmt.Printf("Tools Dir: %s\n", cfg.ToolsDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		st, err := loadSettings(cmd, defaults)
		if err != nil {
			return err
		}

		path := globalFlags.config
		if path == "" {
			path = defaults["config_path"]
		}
		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Output:       %s\n", st.Output())
		fmt.Printf("Input:        %s\n", st.Input())
		fmt.Printf("Key:          %s\n", maskKey(st.Key()))
		fmt.Printf("Key File:     %s\n", orNone(st.KeyFile()))
		fmt.Printf("Pull Device:  %s\n", orNone(st.PullDevice()))
		fmt.Printf("Push Device:  %s\n", orNone(st.PushDevice()))
		fmt.Printf("Dry Run:      %v\n", st.DryRun())
		fmt.Printf("App ID:       %s\n", st.AppID())
		fmt.Printf("adb:          %s\n", st.AdbPath())
		fmt.Printf("Decrypt Tool: %s\n", orNone(st.DecryptTool()))
		fmt.Printf("Tools Dir:    %s\n", orNone(st.ToolsDir()))
		fmt.Printf("Log Dir:      %s\n", defaults["log_dir"])
		return nil
	},
}

// maskKey keeps the first and last four characters of a key.
func maskKey(key string) string {
	switch {
	case key == "":
		return "(none)"
	case len(key) <= 8:
		return "********"
	default:
		return key[:4] + "********" + key[len(key)-4:]
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
}
