package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mferreira/socioctl/internal/domain"
	"github.com/mferreira/socioctl/internal/engine"
	"github.com/mferreira/socioctl/internal/ledger"
	"github.com/mferreira/socioctl/internal/siblings"
	"github.com/mferreira/socioctl/internal/source"
)

var siblingsCmd = &cobra.Command{
	Use:   "siblings <export.csv>",
	Short: "Inspect and resolve shared-email member groups",
	Long: `Several members of one family often share a single email in the
export. Which of them owns the address, and whether the others should
get plus-addressed aliases, is a judgement call, so the migrate command
holds these records back for manual review.

Without --apply, siblings prints each group and the alias emails an
apply pass would use. With --apply, the remaining members are created
with their aliases through the same two-step protocol as migrate; the
first member of each group was already migrated under the original
address by the migrate command.`,
	Args: cobra.ExactArgs(1),
	RunE: runSiblings,
}

var siblingsApply bool

func init() {
	rootCmd.AddCommand(siblingsCmd)
	siblingsCmd.Flags().BoolVar(&siblingsApply, "apply", false, "Create the aliased sibling accounts")
}

func runSiblings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)

	src, err := source.Load(args[0])
	if err != nil {
		return err
	}

	groups := siblings.Groups(src.Records)
	if len(groups) == 0 {
		fmt.Println("no shared-email groups found")
		return nil
	}

	for _, g := range groups {
		fmt.Printf("%s (%d members)\n", g.Email, len(g.Members))
		create, unresolvable := siblings.Plan(g)
		fmt.Printf("  keep:  %s\n", g.Members[0].RawName)
		for _, rec := range create {
			fmt.Printf("  alias: %-40s → %s\n", rec.RawName, rec.Email)
		}
		for _, rec := range unresolvable {
			fmt.Printf("  manual: %s (no derivable alias)\n", rec.RawName)
		}
	}

	if !siblingsApply {
		fmt.Printf("\n%d groups; rerun with --apply to create the aliased accounts\n", len(groups))
		return nil
	}

	client, err := newClient(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	ledgerWriter, err := ledger.NewWriter(cfg.LedgerDir)
	if err != nil {
		return err
	}
	defer ledgerWriter.Close()

	orch := &engine.Orchestrator{Client: client, Ledger: ledgerWriter, Logger: logger, DryRun: cfg.DryRun}
	var tally engine.Tally
	for _, g := range groups {
		create, _ := siblings.Plan(g)
		for _, rec := range create {
			outcome, err := orch.Process(ctx, rec, domain.ClassNew)
			if err != nil {
				return err
			}
			switch outcome.State {
			case domain.StateInserted:
				tally.Inserted++
			case domain.StateIncomplete:
				tally.Incomplete++
			case domain.StateFailed:
				tally.Failed++
			case domain.StateDryRun:
				tally.DryRun++
			}
		}
	}

	fmt.Printf("\ninserted:   %d\n", tally.Inserted)
	fmt.Printf("incomplete: %d\n", tally.Incomplete)
	fmt.Printf("failed:     %d\n", tally.Failed)
	fmt.Printf("ledger:     %s\n", ledgerWriter.Path())
	return nil
}
