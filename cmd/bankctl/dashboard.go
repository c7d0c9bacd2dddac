package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/model"
)

// dashboardView is the dashboard as printed by -o json and -o yaml.
type dashboardView struct {
	Months  []model.MonthlyTotal   `json:"months" yaml:"months"`
	Summary model.DashboardSummary `json:"summary" yaml:"summary"`
	Year    int                    `json:"year" yaml:"year"`
}

func dashboardCmd() *cobra.Command {
	var (
		output string
		year   int
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show bill and user analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseFormat(output)
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().Year()
			}
			return withApp(cmd.Context(), func(a *app) error {
				view := dashboardView{Year: year}

				g, ctx := errgroup.WithContext(cmd.Context())
				g.Go(func() error {
					summary, err := a.client.DashboardSummary(ctx)
					if err != nil {
						return fmt.Errorf("failed to load dashboard summary: %w", err)
					}
					view.Summary = summary
					return nil
				})
				g.Go(func() error {
					months, err := a.client.BillsByMonth(ctx, year)
					if err != nil {
						return fmt.Errorf("failed to load bills by month: %w", err)
					}
					view.Months = months
					return nil
				})
				if err := g.Wait(); err != nil {
					return err
				}

				return cli.PrintValue(cmd.OutOrStdout(), format, view, func(w io.Writer) error {
					return renderDashboard(w, view)
				})
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year for the monthly breakdown (default: current year)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

func renderDashboard(w io.Writer, view dashboardView) error {
	s := view.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Users   %d total, %d active\n", s.TotalUsers, s.ActiveUsers)
	fmt.Fprintf(&b, "Bills   %d total, %d paid, %d unpaid (%.0f%% paid)\n", s.TotalBills, s.PaidBills, s.UnpaidBills, s.PaidRatio()*100)
	fmt.Fprintf(&b, "Amount  %.2f billed, %.2f outstanding", s.TotalAmount, s.OutstandingAmount)
	if _, err := fmt.Fprintln(w, cli.RenderBox(cli.BankIcon+" Dashboard", b.String())); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nBills by month, %d\n", view.Year); err != nil {
		return err
	}
	return cli.RenderTable(w, monthColumns(), view.Months)
}

func monthColumns() []cli.Column[model.MonthlyTotal] {
	return []cli.Column[model.MonthlyTotal]{
		{Title: "MONTH", Width: 10, Value: func(m model.MonthlyTotal) string { return m.Month }},
		{Title: "BILLS", Width: 6, Value: func(m model.MonthlyTotal) string { return fmt.Sprint(m.Count) }},
		{Title: "AMOUNT", Width: 14, Value: func(m model.MonthlyTotal) string { return fmt.Sprintf("%.2f", m.Amount) }},
	}
}
