package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("WA_CONFIG_PATH", "/custom/wa.toml")
		t.Setenv("WA_HOME", "/custom/wa")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		want := map[string]string{
			"config_path": "/custom/wa.toml",
			"base_dir":    "/custom/wa",
			"log_dir":     "/custom/wa/log",
			"data_dir":    "/custom/wa",
			"tools_dir":   "/custom/wa/tools",
			"key_file":    "/custom/wa/key.age",
		}
		for k, v := range want {
			if defaults[k] != v {
				t.Errorf("%s = %q, want %q", k, defaults[k], v)
			}
		}
	})

	t.Run("falls back to cwd and home dir defaults", func(t *testing.T) {
		t.Setenv("WA_CONFIG_PATH", "")
		t.Setenv("WA_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		cwd, _ := os.Getwd()
		wantConfig := filepath.Join(cwd, "config.json")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		homeDir, _ := os.UserHomeDir()
		wantBase := filepath.Join(homeDir, ".local", "share", "wa")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}
