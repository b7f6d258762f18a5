package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mgauthier/centime/internal/config"
	"github.com/mgauthier/centime/internal/service"
	"github.com/mgauthier/centime/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/centime/centime.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// addMonthFlags registers the --year/--month window flags shared by the
// insights and alerts commands, defaulting to the current month.
func addMonthFlags(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().IntP("year", "y", now.Year(), "year of the month window")
	cmd.Flags().IntP("month", "m", int(now.Month()), "month of the window (1-12)")
}

func monthFlags(cmd *cobra.Command) (year, month int, err error) {
	year, _ = cmd.Flags().GetInt("year")
	month, _ = cmd.Flags().GetInt("month")
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d: must be between 1 and 12", month)
	}
	return year, month, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDate parses a YYYY-MM-DD argument.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
