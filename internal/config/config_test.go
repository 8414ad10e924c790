package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:5285" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeoutSeconds != 15 {
		t.Errorf("HTTPTimeoutSeconds = %d", cfg.HTTPTimeoutSeconds)
	}
	if cfg.LedgerDir != "ledger" {
		t.Errorf("LedgerDir = %q", cfg.LedgerDir)
	}
	if cfg.DryRun {
		t.Error("DryRun should default to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOCIOCTL_API_URL", "https://api.example.com")
	t.Setenv("SOCIOCTL_DB_PATH", "/tmp/cdp.db")
	t.Setenv("SOCIOCTL_LOG_LEVEL", "debug")
	t.Setenv("SOCIOCTL_HTTP_TIMEOUT", "30")
	t.Setenv("SOCIOCTL_DRY_RUN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.DBPath != "/tmp/cdp.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.HTTPTimeoutSeconds != 30 {
		t.Errorf("HTTPTimeoutSeconds = %d", cfg.HTTPTimeoutSeconds)
	}
	if !cfg.DryRun {
		t.Error("DryRun should be true")
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("SOCIOCTL_HTTP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestAdminPasswordFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pw")
	if err := os.WriteFile(path, []byte("secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SOCIOCTL_ADMIN_PASSWORD_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AdminPassword != "secret" {
		t.Errorf("AdminPassword = %q", cfg.AdminPassword)
	}
}
