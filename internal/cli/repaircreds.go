package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mferreira/socioctl/internal/credential"
	"github.com/mferreira/socioctl/internal/source"
)

var repairCredsCmd = &cobra.Command{
	Use:   "repair-credentials",
	Short: "Restore the deterministic temporary passwords of migrated users",
	Long: `The create-user endpoint discards the password the migration sends
and generates its own, so migrated members cannot log in with the
published temporary password. Repair-credentials overwrites the stored
hash of every user created in the window that still holds an activation
token, with the hash of that member's deterministic temporary password.

The email → member number mapping comes from the run ledger, or from
the original export when --source is given. Running it again is a
no-op: repaired users no longer hold an activation token.`,
	Args: cobra.NoArgs,
	RunE: runRepairCreds,
}

var (
	repairSince  string
	repairLedger string
	repairSource string
	repairDryRun bool
)

func init() {
	rootCmd.AddCommand(repairCredsCmd)
	repairCredsCmd.Flags().StringVar(&repairSince, "since", "", "Only touch users created on or after this date (YYYY-MM-DD, default today UTC)")
	repairCredsCmd.Flags().StringVar(&repairLedger, "ledger", "", "Ledger file to read member numbers from (default: latest in ledger dir)")
	repairCredsCmd.Flags().StringVar(&repairSource, "source", "", "Read member numbers from this export instead of the ledger")
	repairCredsCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "Report what would change without writing")
}

func runRepairCreds(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	since, err := parseWindow(repairSince)
	if err != nil {
		return err
	}

	var numberByEmail map[string]string
	if repairSource != "" {
		src, err := source.Load(repairSource)
		if err != nil {
			return err
		}
		numberByEmail = make(map[string]string, len(src.Records))
		for _, rec := range src.Records {
			if rec.Email != "" && rec.MemberNumber != "" {
				numberByEmail[rec.Email] = rec.MemberNumber
			}
		}
	} else {
		idx, err := loadLedgerIndex(cfg.LedgerDir, repairLedger, logger)
		if err != nil {
			return err
		}
		numberByEmail = idx.NumberByEmail()
	}
	logger.Info().Int("mapped_emails", len(numberByEmail)).Msg("member number mapping loaded")

	database := openTarget(cfg, logger)
	if database == nil {
		return fmt.Errorf("repair-credentials requires the target database (set SOCIOCTL_DB_PATH or --db)")
	}
	defer database.Close()

	repairer := &credential.Repairer{DB: database.DB, Logger: logger, DryRun: repairDryRun}
	result, err := repairer.Repair(ctx, numberByEmail, since)
	if err != nil {
		return err
	}

	fmt.Printf("candidates: %d\n", result.Candidates)
	fmt.Printf("updated:    %d\n", result.Updated)
	fmt.Printf("unmatched:  %d\n", result.Unmatched)
	fmt.Printf("errors:     %d\n", result.Errors)
	return nil
}
