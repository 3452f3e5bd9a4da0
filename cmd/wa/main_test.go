package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(none)"},
		{"abcd", "********"},
		{"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef", "0123********cdef"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLocalString(t *testing.T) {
	cmd := &cobra.Command{Use: "push"}
	cmd.Flags().String("push-device", "", "")
	if err := cmd.Flags().Set("push-device", "NEW"); err != nil {
		t.Fatal(err)
	}

	if got := localString(cmd, "push-device"); got != "NEW" {
		t.Errorf("localString(push-device) = %q, want NEW", got)
	}
	if got := localString(cmd, "pull-device"); got != "" {
		t.Errorf("localString(pull-device) = %q, want empty", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"pull", "push", "decrypt", "convert", "all", "devices", "history", "config", "key"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestLoadSettings_MissingConfig(t *testing.T) {
	saved := globalFlags
	t.Cleanup(func() { globalFlags = saved })

	missing := filepath.Join(t.TempDir(), "nope.json")
	globalFlags.config = missing

	_, err := loadSettings(pullCmd, map[string]string{"config_path": filepath.Join(t.TempDir(), "config.json")})
	if err == nil {
		t.Fatal("loadSettings() expected error for a missing config file")
	}
	if !strings.Contains(err.Error(), "reading config") || !strings.Contains(err.Error(), missing) {
		t.Errorf("error = %q, want it to name the missing --config path", err)
	}
}

func TestPull_MissingConfigStopsBeforeStages(t *testing.T) {
	saved := globalFlags
	t.Cleanup(func() { globalFlags = saved })

	home := t.TempDir()
	t.Setenv("WA_HOME", home)
	missing := filepath.Join(t.TempDir(), "nope.json")

	rootCmd.SetArgs([]string{"pull", "--config", missing})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Fatalf("Execute() error = %v, want a config read error", err)
	}
	// the app, and with it the log file, is only created once settings load
	if _, err := os.Stat(filepath.Join(home, "log")); !os.IsNotExist(err) {
		t.Errorf("log directory exists (stat error %v); a stage ran", err)
	}
}
