package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mgauthier/centime/internal/cli"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
		Long:  `List, add, update, and delete the categories transactions are grouped under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No categories found. Use 'centime categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Color"),
				cli.HeaderStyle.Render("Monthly budget"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 8),
				strings.Repeat("-", 14))

			for _, cat := range categories {
				budget := cli.SubtleStyle.Render("(none)")
				if cat.MonthlyBudget != nil {
					budget = fmt.Sprintf("%.2f", *cat.MonthlyBudget)
				}
				color := cat.Color
				if color == "" {
					color = cli.SubtleStyle.Render("-")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, cat.Name, color, budget)
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		color  string
		budget float64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var monthlyBudget *float64
			if cmd.Flags().Changed("budget") {
				monthlyBudget = &budget
			}

			category, err := store.CreateCategory(ctx, args[0], color, monthlyBudget)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (ID: %d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "display color as #RRGGBB")
	cmd.Flags().Float64Var(&budget, "budget", 0, "monthly budget for the category")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name        string
		color       string
		budget      float64
		clearBudget bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category's name, color, or budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.GetCategoryByID(ctx, id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				category.Name = name
			}
			if cmd.Flags().Changed("color") {
				category.Color = color
			}
			switch {
			case clearBudget:
				category.MonthlyBudget = nil
			case cmd.Flags().Changed("budget"):
				category.MonthlyBudget = &budget
			}

			if err := store.UpdateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %q", category.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&color, "color", "", "new display color as #RRGGBB")
	cmd.Flags().Float64Var(&budget, "budget", 0, "new monthly budget")
	cmd.Flags().BoolVar(&clearBudget, "clear-budget", false, "remove the monthly budget")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category, detaching its transactions",
		Long: `Delete a category. Its transactions are kept and become uncategorized;
they are never deleted along with the category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid category id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted category %d (transactions detached)", id)))
			return nil
		},
	}
}
