package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mferreira/socioctl/internal/engine"
	"github.com/mferreira/socioctl/internal/ledger"
	"github.com/mferreira/socioctl/internal/siblings"
	"github.com/mferreira/socioctl/internal/snapshot"
	"github.com/mferreira/socioctl/internal/source"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <export.csv>",
	Short: "Migrate member records from a spreadsheet export",
	Long: `Migrate runs the full pipeline: load and normalize the export, match
every record against the identities already in the target, and create
the missing ones through the service API (user, then member profile).

When several rows share one email, the first keeps the address and
migrates normally; the rest are held back as manual-review work. Use
"socioctl siblings" to inspect and apply them under alias addresses.

The run always completes and prints a tally, even when some remote
calls fail. Partial creations are repaired later by "socioctl sweep".`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

var migrateDryRun bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Classify and log without calling the API")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	dryRun := migrateDryRun || cfg.DryRun

	src, err := source.Load(args[0])
	if err != nil {
		return err
	}
	logger.Info().Int("records", len(src.Records)).
		Int("excluded_nif", src.ExcludedNIF).Int("duplicates", src.Duplicates).
		Int("warnings", len(src.Warnings)).Msg("source loaded")
	for _, w := range src.Warnings {
		logger.Warn().Msg(w)
	}

	database := openTarget(cfg, logger)
	var snap *snapshot.Snapshot
	if database != nil {
		defer database.Close()
		snap = snapshot.Build(ctx, database.DB, logger)
	} else {
		snap = snapshot.Build(ctx, nil, logger)
	}

	client, err := newClient(ctx, cfg, logger, false)
	if err != nil {
		return err
	}

	ledgerWriter, err := ledger.NewWriter(cfg.LedgerDir)
	if err != nil {
		return err
	}
	defer ledgerWriter.Close()

	orch := &engine.Orchestrator{
		Client:    client,
		Ledger:    ledgerWriter,
		Logger:    logger,
		DryRun:    dryRun,
		Overrides: siblings.Classify(src.Records),
	}
	tally, err := orch.Run(ctx, src.Records, snap)
	if err != nil {
		return err
	}

	fmt.Printf("inserted:   %d\n", tally.Inserted)
	fmt.Printf("incomplete: %d\n", tally.Incomplete)
	fmt.Printf("skipped:    %d\n", tally.Skipped)
	fmt.Printf("failed:     %d\n", tally.Failed)
	if dryRun {
		fmt.Printf("dry-run:    %d\n", tally.DryRun)
	}
	fmt.Printf("ledger:     %s\n", ledgerWriter.Path())
	return nil
}
