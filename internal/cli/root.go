// Package cli exposes the supervision tooling as cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/yigit/supervision/internal/bootstrap"
	"github.com/yigit/supervision/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the supervise command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "supervise",
		Short: "Import, deduplicate and export research supervision records",
		Long: "supervise keeps the register of researchers, assistants and their supervisors.\n" +
			"It imports registration spreadsheets, merges duplicate records and exports reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the YAML config file")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newImportCmd(opts),
		newDedupeCmd(opts),
		newFeesCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// withDeps runs fn with fully wired dependencies, closing them afterwards
func withDeps(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, deps *bootstrap.Dependencies) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := bootstrap.Setup(ctx, opts.configPath)
	if err != nil {
		return err
	}
	defer deps.Close()

	return fn(ctx, deps)
}

func renderTable(w io.Writer, data pterm.TableData) error {
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithWriter(w).
		WithData(data).
		Render()
}

func success(w io.Writer, format string, args ...any) {
	pterm.Success.WithWriter(w).Println(fmt.Sprintf(format, args...))
}

func warning(w io.Writer, format string, args ...any) {
	pterm.Warning.WithWriter(w).Println(fmt.Sprintf(format, args...))
}
