package cli

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/yigit/supervision/internal/app/dedupe"
	"github.com/yigit/supervision/internal/bootstrap"
)

func newDedupeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Merge duplicate records already in the database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "subjects",
		Short: "Merge subjects sharing name, title, degree and kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				summary, err := deps.Engine.DedupeSubjects(ctx)
				if err != nil {
					return err
				}
				return printDedupeSummary(cmd, "subjects", summary)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "supervisors",
		Short: "Merge supervisors sharing a normalized name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				summary, err := deps.Engine.DedupeSupervisors(ctx)
				if err != nil {
					return err
				}
				return printDedupeSummary(cmd, "supervisors", summary)
			})
		},
	})

	return cmd
}

func printDedupeSummary(cmd *cobra.Command, entity string, summary *dedupe.Summary) error {
	out := cmd.OutOrStdout()
	data := pterm.TableData{
		{"Metric", "Count"},
		{"Groups merged", strconv.Itoa(summary.GroupsMerged)},
		{"Duplicates deleted", strconv.Itoa(summary.DuplicatesDeleted)},
		{"Links moved", strconv.Itoa(summary.LinksMoved)},
	}
	if entity == "subjects" {
		data = append(data, []string{"Fee payments moved", strconv.Itoa(summary.PaymentsMoved)})
	}
	if err := renderTable(out, data); err != nil {
		return err
	}
	success(out, "Merged %s (run %s)", entity, summary.RunID)
	return nil
}
