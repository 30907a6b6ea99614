package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/yigit/supervision/internal/app/importer"
	"github.com/yigit/supervision/internal/bootstrap"
	"github.com/yigit/supervision/internal/pkg/apperrors"
)

type importFlags struct {
	sheet      string
	headerRow  int
	maxScan    int
	degree     string
	name       string
	title      string
	supervisor string
	department string
	status     string
	kind       string
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import <xlsx>",
		Short: "Import a registration spreadsheet, merging duplicates",
		Long: "Import reads one sheet of an Excel workbook, detects its header row and\n" +
			"creates or updates subjects, supervisors and supervision links.\n" +
			"The whole file is applied in a single transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				cfg := deps.Config
				columns := importer.ColumnsFromConfig(cfg.Import.Columns)
				override := func(flag string, target *string, value string) {
					if cmd.Flags().Changed(flag) {
						*target = value
					}
				}
				override("col-degree", &columns.Degree, flags.degree)
				override("col-name", &columns.Name, flags.name)
				override("col-title", &columns.Title, flags.title)
				override("col-supervisor", &columns.Supervisor, flags.supervisor)
				override("col-supervisor-dept", &columns.SupervisorDepartment, flags.department)
				override("col-status", &columns.Status, flags.status)
				override("col-type", &columns.Kind, flags.kind)

				importOpts := importer.Options{
					Path:        args[0],
					Sheet:       cfg.Import.Sheet,
					Columns:     columns,
					MaxScanRows: cfg.Import.MaxScanRows,
				}
				if cmd.Flags().Changed("sheet") {
					importOpts.Sheet = flags.sheet
				}
				if cmd.Flags().Changed("max-scan-rows") {
					importOpts.MaxScanRows = flags.maxScan
				}
				if cmd.Flags().Changed("header-row") {
					importOpts.HeaderRow = &flags.headerRow
				}

				summary, err := deps.Importer.Import(ctx, importOpts)
				if err != nil {
					return describeImportError(err)
				}
				return printImportSummary(cmd, summary)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.sheet, "sheet", "", "Sheet name (first sheet when empty)")
	f.IntVar(&flags.headerRow, "header-row", 0, "1-based line of the header row (auto-detected when omitted)")
	f.IntVar(&flags.maxScan, "max-scan-rows", 0, "How many top rows to search for the header")
	f.StringVar(&flags.degree, "col-degree", "", "Degree column name")
	f.StringVar(&flags.name, "col-name", "", "Subject name column name")
	f.StringVar(&flags.title, "col-title", "", "Title column name")
	f.StringVar(&flags.supervisor, "col-supervisor", "", "Supervisors column name")
	f.StringVar(&flags.department, "col-supervisor-dept", "", "Supervisor department column name")
	f.StringVar(&flags.status, "col-status", "", "Status column name")
	f.StringVar(&flags.kind, "col-type", "", "Researcher/assistant column name")
	return cmd
}

// describeImportError appends the expected and found columns to header errors
func describeImportError(err error) error {
	if !errors.Is(err, apperrors.ErrHeaderNotFound) && !errors.Is(err, apperrors.ErrMissingColumns) {
		return err
	}
	details := apperrors.DetailsOf(err)
	if len(details) == 0 {
		return err
	}
	return fmt.Errorf("%w (details: %v)", err, details)
}

func printImportSummary(cmd *cobra.Command, summary *importer.Summary) error {
	out := cmd.OutOrStdout()
	data := pterm.TableData{
		{"Metric", "Count"},
		{"Rows read", strconv.Itoa(summary.RowsRead)},
		{"Records created", strconv.Itoa(summary.RecordsCreated)},
		{"Supervisors created", strconv.Itoa(summary.SupervisorsCreated)},
		{"Links created", strconv.Itoa(summary.LinksCreated)},
		{"Duplicates merged", strconv.Itoa(summary.DuplicatesMerged)},
		{"Rows skipped", strconv.Itoa(len(summary.Skipped))},
	}
	if err := renderTable(out, data); err != nil {
		return err
	}

	if len(summary.Skipped) > 0 {
		skipped := pterm.TableData{{"Line", "Reason"}}
		for _, s := range summary.Skipped {
			skipped = append(skipped, []string{strconv.Itoa(s.Line), s.Reason})
		}
		warning(out, "%d rows were skipped", len(summary.Skipped))
		if err := renderTable(out, skipped); err != nil {
			return err
		}
	}

	success(out, "Import %s done", summary.RunID)
	return nil
}
