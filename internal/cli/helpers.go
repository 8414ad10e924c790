package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mferreira/socioctl/internal/config"
	"github.com/mferreira/socioctl/internal/db"
	"github.com/mferreira/socioctl/internal/remote"
)

// loadConfig loads configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v := cmd.Flag("db").Value.String(); v != "" {
		cfg.DBPath = v
	}
	if v := cmd.Flag("api").Value.String(); v != "" {
		cfg.APIBaseURL = v
	}
	if v := cmd.Flag("ledger-dir").Value.String(); v != "" {
		cfg.LedgerDir = v
	}
	if v := cmd.Flag("log-level").Value.String(); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// newLogger builds the run logger writing to stderr so stdout stays
// pipe-friendly.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()
}

// openTarget opens the target database. Returns nil when no path is
// configured or the open fails; callers that can degrade (snapshot)
// accept nil, callers that cannot (sweep, repair) treat nil as fatal.
func openTarget(cfg *config.Config, logger zerolog.Logger) *db.DB {
	if cfg.DBPath == "" {
		logger.Warn().Msg("no target database configured")
		return nil
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.DBPath).Msg("failed to open target database")
		return nil
	}
	return database
}

// newClient builds the API client and logs in when operator credentials
// are configured. A failed login is fatal only if required is true: the
// create endpoints accept anonymous calls, the repair endpoints do not.
func newClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger, required bool) (*remote.Client, error) {
	client := remote.New(cfg.APIBaseURL, time.Duration(cfg.HTTPTimeoutSeconds)*time.Second, logger)
	if cfg.AdminEmail == "" {
		if required {
			logger.Warn().Msg("no operator credentials configured; repair calls may be rejected")
		}
		return client, nil
	}
	if err := client.Login(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		if required {
			return nil, err
		}
		logger.Warn().Err(err).Msg("operator login failed; continuing unauthenticated")
	}
	return client, nil
}
