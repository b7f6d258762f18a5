package main

import (
	"fmt"
	"os"

	"github.com/mgauthier/centime/internal/cli"
	"github.com/mgauthier/centime/internal/importer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions from a CSV file with date, description, amount,
and optional category columns. Rows that fail validation are skipped and
reported; categories named in the file are created on the fly.

Use 'centime import ofx' for bank-exported OFX/QFX files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pipeline := importer.NewPipeline(store)

			var bar *progressbar.ProgressBar
			if !asJSON {
				pipeline.OnProgress(func(done, total int) {
					if bar == nil {
						bar = newImportBar(total)
					}
					_ = bar.Set(done)
				})
			}

			report, err := pipeline.ImportCSV(ctx, payload)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			return renderReport(report, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the import report as JSON")
	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importOFXCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ofx <file>",
		Short: "Import transactions from an OFX/QFX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = file.Close() }()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pipeline := importer.NewPipeline(store)

			var bar *progressbar.ProgressBar
			if !asJSON {
				pipeline.OnProgress(func(done, total int) {
					if bar == nil {
						bar = newImportBar(total)
					}
					_ = bar.Set(done)
				})
			}

			report, err := pipeline.ImportOFX(ctx, file)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			return renderReport(report, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the import report as JSON")

	return cmd
}

func newImportBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func renderReport(report *importer.Report, asJSON bool) error {
	if asJSON {
		return printJSON(report)
	}

	if report.Inserted > 0 {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s)", report.Inserted)))
	}
	if report.Skipped > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Skipped %d row(s)", report.Skipped)))
	}
	for _, msg := range report.Errors {
		fmt.Println(cli.SubtleStyle.Render("  " + msg))
	}
	if report.Inserted == 0 && report.Skipped == 0 {
		fmt.Println(cli.SubtleStyle.Render("Nothing to import."))
	}

	return nil
}
