package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mferreira/socioctl/internal/engine"
	"github.com/mferreira/socioctl/internal/ledger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Repair users left without a member profile by earlier runs",
	Long: `Sweep finds users created within the operating window that have no
member profile and creates it, using the membership status recorded in
the run ledger (defaulting to pending for users the ledger does not
know). The user itself is never re-created, and a second sweep finds
nothing to do.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	sweepSince  string
	sweepLedger string
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepSince, "since", "", "Only touch users created on or after this date (YYYY-MM-DD, default today UTC)")
	sweepCmd.Flags().StringVar(&sweepLedger, "ledger", "", "Ledger file to read intended statuses from (default: latest in ledger dir)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	since, err := parseWindow(sweepSince)
	if err != nil {
		return err
	}

	database := openTarget(cfg, logger)
	if database == nil {
		return fmt.Errorf("sweep requires the target database (set SOCIOCTL_DB_PATH or --db)")
	}
	defer database.Close()

	idx, err := loadLedgerIndex(cfg.LedgerDir, sweepLedger, logger)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, cfg, logger, true)
	if err != nil {
		return err
	}

	sweeper := &engine.Sweeper{DB: database.DB, Client: client, Logger: logger}
	report, err := sweeper.Sweep(ctx, idx, since)
	if err != nil {
		return err
	}

	fmt.Printf("candidates: %d\n", report.Candidates)
	fmt.Printf("repaired:   %d\n", report.Repaired)
	fmt.Printf("defaulted:  %d\n", report.Defaulted)
	fmt.Printf("errors:     %d\n", report.Errors)
	return nil
}

// parseWindow parses the --since flag, defaulting to today at midnight
// UTC: the window a same-day migration run created users in.
func parseWindow(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since date %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// loadLedgerIndex reads the given ledger file, or the latest one in dir.
// A missing ledger is not fatal: repairs then run with defaults and the
// report flags every defaulted record.
func loadLedgerIndex(dir, explicit string, logger zerolog.Logger) (*ledger.Index, error) {
	path := explicit
	if path == "" {
		latest, err := ledger.Latest(dir)
		if err != nil {
			return nil, err
		}
		path = latest
	}
	if path == "" {
		logger.Warn().Str("dir", dir).Msg("no run ledger found; statuses will default to pending")
		return ledger.BuildIndex(nil), nil
	}

	entries, err := ledger.Read(path)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("ledger", path).Int("entries", len(entries)).Msg("run ledger loaded")
	return ledger.BuildIndex(entries), nil
}
