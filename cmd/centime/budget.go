package main

import (
	"fmt"
	"strconv"

	"github.com/mgauthier/centime/internal/cli"
	"github.com/spf13/cobra"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage the global monthly budget",
		Long: `Show, set, or clear the global monthly budget stored in settings.
Per-category budgets are managed through 'centime categories update'.`,
	}

	cmd.AddCommand(showBudgetCmd())
	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(clearBudgetCmd())

	return cmd
}

func showBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configured global monthly budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings, err := store.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			if settings.GlobalMonthlyBudget == nil {
				fmt.Println(cli.SubtleStyle.Render("No global monthly budget configured."))
				return nil
			}

			fmt.Printf("Global monthly budget: %.2f (last updated %s)\n",
				*settings.GlobalMonthlyBudget,
				settings.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func setBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <amount>",
		Short: "Set the global monthly budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid budget %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.SetGlobalBudget(ctx, &amount); err != nil {
				return fmt.Errorf("failed to set budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Global monthly budget set to %.2f", amount)))
			return nil
		},
	}
}

func clearBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the global monthly budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.SetGlobalBudget(ctx, nil); err != nil {
				return fmt.Errorf("failed to clear budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Global monthly budget cleared"))
			return nil
		},
	}
}
