package cli

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/yigit/supervision/internal/app/models"
	"github.com/yigit/supervision/internal/bootstrap"
)

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func newFeesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Manage yearly fee records of a subject",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <subject-id>",
		Short: "List fee years, ensuring the current year exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				if _, err := deps.FeeService.EnsureCurrentYear(ctx, subjectID); err != nil {
					return err
				}
				payments, err := deps.FeeService.List(ctx, subjectID)
				if err != nil {
					return err
				}
				return printPayments(cmd, payments)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <subject-id> <year>",
		Short: "Add an unpaid fee year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, year, err := parseSubjectYear(args)
			if err != nil {
				return err
			}
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				_, created, err := deps.FeeService.AddYear(ctx, subjectID, year)
				if err != nil {
					return err
				}
				if !created {
					warning(cmd.OutOrStdout(), "Year %d already recorded for subject %d", year, subjectID)
					return nil
				}
				success(cmd.OutOrStdout(), "Year %d added for subject %d", year, subjectID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <subject-id> <year>",
		Short: "Flip the paid flag of a fee year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, year, err := parseSubjectYear(args)
			if err != nil {
				return err
			}
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				payment, err := deps.FeeService.Toggle(ctx, subjectID, year)
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Year %d is now %s", year, paidLabel(payment))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <subject-id> <year>",
		Short: "Delete a fee year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID, year, err := parseSubjectYear(args)
			if err != nil {
				return err
			}
			return withDeps(cmd, opts, func(ctx context.Context, deps *bootstrap.Dependencies) error {
				if err := deps.FeeService.DeleteYear(ctx, subjectID, year); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Year %d deleted for subject %d", year, subjectID)
				return nil
			})
		},
	})

	return cmd
}

func parseSubjectYear(args []string) (int64, int, error) {
	subjectID, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	year, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, err
	}
	return subjectID, year, nil
}

func paidLabel(p *models.FeePayment) string {
	if p.IsPaid {
		return "paid"
	}
	return "unpaid"
}

func printPayments(cmd *cobra.Command, payments []*models.FeePayment) error {
	data := pterm.TableData{{"Year", "Status", "Paid at"}}
	for _, p := range payments {
		paidAt := ""
		if p.PaidAt != nil {
			paidAt = p.PaidAt.Format("2006-01-02 15:04")
		}
		data = append(data, []string{strconv.Itoa(p.Year), paidLabel(p), paidAt})
	}
	return renderTable(cmd.OutOrStdout(), data)
}
