package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "socioctl",
	Short: "Migrate legacy member records into the club's member service",
	Long: `socioctl migrates member records from the legacy spreadsheet export
into the member service, and repairs the partial state earlier runs may
have left behind. Runs are safe to repeat: already-migrated members are
detected and skipped, and every run writes an append-only ledger that
later repair passes consume.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the target database (overrides SOCIOCTL_DB_PATH)")
	rootCmd.PersistentFlags().String("api", "", "Base URL of the member service API (overrides SOCIOCTL_API_URL)")
	rootCmd.PersistentFlags().String("ledger-dir", "", "Directory for run ledgers (overrides SOCIOCTL_LEDGER_DIR)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}
