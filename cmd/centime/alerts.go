package main

import (
	"fmt"

	"github.com/mgauthier/centime/internal/alert"
	"github.com/mgauthier/centime/internal/cli"
	"github.com/mgauthier/centime/internal/insights"
	"github.com/spf13/cobra"
)

func alertsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Check budgets against actual spending",
		Long: `Compare the global monthly budget and every per-category budget
against the month's actual spending, and report each overage.
Defaults to the current month.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			year, month, err := monthFlags(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := alert.NewEngine(store, insights.NewEngine(store))
			alerts, err := engine.BudgetAlerts(ctx, year, month)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(map[string]any{"alerts": alerts})
			}

			if len(alerts) == 0 {
				fmt.Println(cli.FormatSuccess("All budgets on track for " + monthLabel(year, month)))
				return nil
			}

			fmt.Println(cli.FormatTitle("Budget alerts for " + monthLabel(year, month)))
			for _, a := range alerts {
				label := "Global budget"
				if a.Scope == alert.ScopeCategory {
					label = a.Category
				}
				fmt.Println(cli.FormatWarning(fmt.Sprintf(
					"%s over by %.2f (spent %.2f of %.2f)",
					label, a.Delta, a.Actual, a.Budget)))
			}
			return nil
		},
	}

	addMonthFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit alerts as JSON")

	return cmd
}
