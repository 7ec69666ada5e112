package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tray.toml")
	body := `
[logging]
level = "debug"

[database]
driver = "postgres"
conn_max_lifetime = "5m"

[load]
workers = 0
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("format = %q, want default console", cfg.Logging.Format)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.ConnMaxLifetime.Duration != 5*time.Minute {
		t.Errorf("lifetime = %v", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Load.Workers != 1 {
		t.Errorf("workers = %d, want clamp to 1", cfg.Load.Workers)
	}
	if !cfg.Text.TabsToSpaces {
		t.Error("tabs_to_spaces default lost")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing file: want error")
	}
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[database]\nconn_max_lifetime = \"soon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("bad duration: want error")
	}
}
