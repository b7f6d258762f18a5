package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/mgauthier/centime/internal/cli"
	"github.com/mgauthier/centime/internal/insights"
	"github.com/spf13/cobra"
)

func insightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Monthly spending aggregates",
		Long: `Compute spending aggregates for a calendar month: total spend,
per-category breakdown with percentages, and a combined summary.
Defaults to the current month.`,
	}

	cmd.AddCommand(insightsTotalCmd())
	cmd.AddCommand(insightsBreakdownCmd())
	cmd.AddCommand(insightsSummaryCmd())

	return cmd
}

func insightsTotalCmd() *cobra.Command {
	var (
		categoryArg string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "total",
		Short: "Total spend for a month",
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

			var categoryID *int64
			if categoryArg != "" {
				id, err := resolveCategoryArg(ctx, store, categoryArg)
				if err != nil {
					return err
				}
				categoryID = &id
			}

			engine := insights.NewEngine(store)
			total, err := engine.MonthlyTotal(ctx, year, month, categoryID)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(map[string]float64{"total": insights.Round2(total)})
			}

			fmt.Printf("%s %s\n", monthLabel(year, month), cli.FormatAmount(insights.Round2(total)))
			return nil
		},
	}

	addMonthFlags(cmd)
	cmd.Flags().StringVar(&categoryArg, "category", "", "Restrict to one category (id or name)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the total as JSON")

	return cmd
}

func insightsBreakdownCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Per-category spend shares for a month",
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

			engine := insights.NewEngine(store)
			breakdown, err := engine.CategoryBreakdown(ctx, year, month)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(breakdown)
			}

			if len(breakdown) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No spending recorded for " + monthLabel(year, month) + "."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Breakdown for " + monthLabel(year, month)))
			renderBreakdown(breakdown)
			return nil
		},
	}

	addMonthFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the breakdown as JSON")

	return cmd
}

func insightsSummaryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Combined monthly report",
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

			engine := insights.NewEngine(store)
			summary, err := engine.Summary(ctx, year, month)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(summary)
			}

			fmt.Println(cli.FormatTitle("Summary for " + monthLabel(year, month)))
			fmt.Printf("  Total:        %s\n", cli.FormatAmount(summary.Total))
			fmt.Printf("  Transactions: %d\n", summary.Count)
			fmt.Printf("  Average:      %s\n", cli.FormatAmount(summary.Average))
			if len(summary.ByCategory) > 0 {
				fmt.Println()
				renderBreakdown(summary.ByCategory)
			}
			return nil
		},
	}

	addMonthFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the summary as JSON")

	return cmd
}

// renderBreakdown prints breakdown entries sorted by descending total so the
// biggest spenders come first.
func renderBreakdown(breakdown map[string]insights.BreakdownEntry) {
	labels := make([]string, 0, len(breakdown))
	for label := range breakdown {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return breakdown[labels[i]].Total > breakdown[labels[j]].Total
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  Category\tTotal\tShare\tCount")
	for _, label := range labels {
		entry := breakdown[label]
		fmt.Fprintf(w, "  %s\t%.2f\t%.1f%%\t%d\n", label, entry.Total, entry.Percentage, entry.Count)
	}
	_ = w.Flush()
}

func monthLabel(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}
