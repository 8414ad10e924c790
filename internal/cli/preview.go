package cli

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/mferreira/socioctl/internal/domain"
	"github.com/mferreira/socioctl/internal/ledger"
	"github.com/mferreira/socioctl/internal/match"
	"github.com/mferreira/socioctl/internal/siblings"
	"github.com/mferreira/socioctl/internal/snapshot"
	"github.com/mferreira/socioctl/internal/source"
)

var previewCmd = &cobra.Command{
	Use:   "preview <export.csv>",
	Short: "Show what a migration run would do, without changing anything",
	Long: `Preview classifies every record in the export against the current
target state and prints the per-class tally. With a previous run ledger
present, it also prints a diff of each member's planned disposition
against that run, so drift between runs is visible before migrating.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
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

	database := openTarget(cfg, logger)
	var snap *snapshot.Snapshot
	if database != nil {
		defer database.Close()
		snap = snapshot.Build(ctx, database.DB, logger)
	} else {
		snap = snapshot.Build(ctx, nil, logger)
	}

	manual := siblings.Classify(src.Records)
	counts := make(map[domain.Classification]int)
	var planned []string
	for _, rec := range src.Records {
		class, ok := manual[rec.MemberNumber]
		if !ok {
			class = match.Classify(rec, snap)
		}
		counts[class]++
		planned = append(planned, planLine(rec.MemberNumber, rec.Email, dispositionOf(class)))
	}

	fmt.Printf("records:                %d\n", len(src.Records))
	for _, class := range []domain.Classification{
		domain.ClassNew,
		domain.ClassInsertNameConflict,
		domain.ClassSkipExactDuplicate,
		domain.ClassSkipNoEmail,
		domain.ClassManualReviewRequired,
	} {
		fmt.Printf("%-23s %d\n", class.String()+":", counts[class])
	}
	if snap.Degraded() {
		fmt.Println("warning: target unreachable; duplicate check was disabled")
	}

	previous, err := ledger.Latest(cfg.LedgerDir)
	if err != nil || previous == "" {
		return nil
	}
	entries, err := ledger.Read(previous)
	if err != nil {
		logger.Warn().Err(err).Str("path", previous).Msg("previous ledger unreadable; skipping diff")
		return nil
	}
	var prior []string
	for _, e := range entries {
		prior = append(prior, planLine(e.MemberNumber, e.Email, dispositionOfEntry(e)))
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        prior,
		B:        planned,
		FromFile: previous,
		ToFile:   "planned",
		Context:  0,
	})
	if err != nil {
		return fmt.Errorf("failed to diff against previous run: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		fmt.Println("no drift against previous run")
	} else {
		fmt.Print(diff)
	}
	return nil
}

func planLine(number, email, disposition string) string {
	return fmt.Sprintf("%s\t%s\t%s\n", number, email, disposition)
}

func dispositionOf(class domain.Classification) string {
	switch {
	case class == domain.ClassManualReviewRequired:
		return "manual-review"
	case class.Admitted():
		return "create"
	default:
		return "skip"
	}
}

func dispositionOfEntry(e ledger.Entry) string {
	if domain.OutcomeState(e.State) != domain.StateSkipped {
		return "create"
	}
	if e.Reason == domain.ClassManualReviewRequired.String() {
		return "manual-review"
	}
	return "skip"
}
