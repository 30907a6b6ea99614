package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/supervision/internal/bootstrap"
	"github.com/yigit/supervision/internal/db"
	"github.com/yigit/supervision/internal/seed"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(opts.configPath)
			if err != nil {
				return err
			}
			database, err := db.Open(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := bootstrap.Migrate(cmd.Context(), database, lgr)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				success(cmd.OutOrStdout(), "Schema is up to date (%s)", cfg.Database.Driver)
				return nil
			}
			success(cmd.OutOrStdout(), "Applied %d migrations: %s", len(applied), strings.Join(applied, ", "))
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the standard department list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				created, err := seed.CreateDefaultData(ctx, deps.DepartmentService, deps.Logger)
				if err != nil {
					return err
				}
				departments, err := deps.DepartmentService.GetAllDepartments(ctx)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(departments))
				for _, d := range departments {
					names = append(names, d.Name)
				}
				success(cmd.OutOrStdout(), "%d departments created, %d total: %s", created, len(departments), strings.Join(names, "، "))
				return nil
			})
		},
	}
}
