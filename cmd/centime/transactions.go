package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mgauthier/centime/internal/cli"
	"github.com/mgauthier/centime/internal/model"
	"github.com/mgauthier/centime/internal/service"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "Manage ledger transactions",
		Long:    `Add, list, update, and delete individual transactions in the ledger.`,
	}

	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		date     string
		category string
	)

	cmd := &cobra.Command{
		Use:   "add <description> <amount>",
		Short: "Add a transaction",
		Long: `Add a transaction to the ledger. Amount may be negative for refunds
but never zero; the date defaults to today and cannot be in the future.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn := model.Transaction{
				Description: args[0],
				Amount:      amount,
			}

			if date != "" {
				txn.Date, err = parseDate(date)
				if err != nil {
					return err
				}
			} else {
				y, m, d := time.Now().UTC().Date()
				txn.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			}

			if category != "" {
				id, err := resolveCategoryArg(ctx, store, category)
				if err != nil {
					return err
				}
				txn.CategoryID = &id
			}

			if err := store.CreateTransaction(ctx, &txn); err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %q for %s (ID: %d)",
				txn.Description, cli.FormatAmount(txn.Amount), txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "transaction date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name or id")

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		from     string
		to       string
		category string
		search   string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{
				Search: search,
				Limit:  limit,
				Offset: offset,
			}
			if from != "" {
				start, err := parseDate(from)
				if err != nil {
					return err
				}
				filter.StartDate = &start
			}
			if to != "" {
				end, err := parseDate(to)
				if err != nil {
					return err
				}
				filter.EndDate = &end
			}
			if category != "" {
				id, err := resolveCategoryArg(ctx, store, category)
				if err != nil {
					return err
				}
				filter.CategoryID = &id
			}

			transactions, err := store.GetTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(transactions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions found."))
				return nil
			}

			categoryNames, err := categoryNameIndex(ctx, store)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("Description"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Category"))

			for _, txn := range transactions {
				label := cli.SubtleStyle.Render(service.UncategorizedLabel)
				if txn.CategoryID != nil {
					if name, ok := categoryNames[*txn.CategoryID]; ok {
						label = name
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					txn.ID,
					txn.Date.Format("2006-01-02"),
					txn.Description,
					cli.FormatAmount(txn.Amount),
					label)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date as YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end date as YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category name or id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by description substring")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var (
		date         string
		description  string
		amount       float64
		category     string
		uncategorize bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransactionByID(ctx, id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("date") {
				txn.Date, err = parseDate(date)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("description") {
				txn.Description = description
			}
			if cmd.Flags().Changed("amount") {
				txn.Amount = amount
			}
			switch {
			case uncategorize:
				txn.CategoryID = nil
			case cmd.Flags().Changed("category"):
				catID, err := resolveCategoryArg(ctx, store, category)
				if err != nil {
					return err
				}
				txn.CategoryID = &catID
			}

			if err := store.UpdateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated transaction %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "new date as YYYY-MM-DD")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "new amount")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category name or id")
	cmd.Flags().BoolVar(&uncategorize, "uncategorize", false, "remove the category reference")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}
}

// resolveCategoryArg accepts a category id or exact display name.
func resolveCategoryArg(ctx context.Context, store service.Storage, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if _, err := store.GetCategoryByID(ctx, id); err != nil {
			return 0, err
		}
		return id, nil
	}

	category, err := store.GetCategoryByName(ctx, arg)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, fmt.Errorf("category %q not found", arg)
	}
	return category.ID, nil
}

func categoryNameIndex(ctx context.Context, store service.Storage) (map[int64]string, error) {
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names, nil
}
