package cli

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/yigit/supervision/internal/app/exporter"
	"github.com/yigit/supervision/internal/bootstrap"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		statusFilter string
		query        string
		supervisorID int64
	)

	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "Export subjects, supervisor load and stats to Excel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				raw := deps.Config.Export.StatusFilter
				if cmd.Flags().Changed("filter") {
					raw = statusFilter
				}
				sf, err := exporter.ParseStatusFilter(raw)
				if err != nil {
					return err
				}

				filter := exporter.Filter{Status: sf, Query: query}
				if cmd.Flags().Changed("supervisor") {
					filter.SupervisorID = &supervisorID
				}

				res, err := deps.Exporter.Export(ctx, args[0], filter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if err := renderTable(out, pterm.TableData{
					{"Sheet", "Rows"},
					{exporter.SheetResearches, strconv.Itoa(res.Researches)},
					{exporter.SheetSupervisors, strconv.Itoa(res.Supervisors)},
				}); err != nil {
					return err
				}
				success(out, "Export written to %s (filter %s)", args[0], res.Filter)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&statusFilter, "filter", "", "Status filter: active, discussed, active_discussed, dismissed or all")
	f.StringVar(&query, "query", "", "Only subjects whose name or title contains this text")
	f.Int64Var(&supervisorID, "supervisor", 0, "Only subjects linked to this supervisor id")
	return cmd
}
