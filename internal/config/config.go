// Package config loads socioctl configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	APIBaseURL         string `yaml:"api_base_url"`
	DBPath             string `yaml:"db_path"`
	LedgerDir          string `yaml:"ledger_dir"`
	AdminEmail         string `yaml:"admin_email"`
	AdminPassword      string `yaml:"admin_password"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
	LogLevel           string `yaml:"log_level"`
	DryRun             bool   `yaml:"dry_run"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/socioctl/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:         "http://localhost:5285",
		LedgerDir:          "ledger",
		HTTPTimeoutSeconds: 15,
		LogLevel:           "info",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Load ~/.config/socioctl/config.yaml if it exists
	if err := loadYAMLConfig(cfg); err != nil {
		// YAML config is optional, so we don't fail if it doesn't exist
	}

	// Override with environment variables
	if v := os.Getenv("SOCIOCTL_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("SOCIOCTL_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SOCIOCTL_LEDGER_DIR"); v != "" {
		cfg.LedgerDir = v
	}
	if v := os.Getenv("SOCIOCTL_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := getEnvOrFile("SOCIOCTL_ADMIN_PASSWORD", "SOCIOCTL_ADMIN_PASSWORD_FILE"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("SOCIOCTL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SOCIOCTL_HTTP_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SOCIOCTL_HTTP_TIMEOUT %q: %w", v, err)
		}
		cfg.HTTPTimeoutSeconds = secs
	}
	if v := os.Getenv("SOCIOCTL_DRY_RUN"); v != "" {
		cfg.DryRun = v == "1" || strings.EqualFold(v, "true")
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from ~/.config/socioctl/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "socioctl", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	if path := os.Getenv(fileVar); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

// findEnvLocal walks up from the current directory looking for .env.local
func findEnvLocal() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
