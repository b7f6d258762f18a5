package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mgauthier/centime/internal/model"
)

// The settings table holds exactly one row. The accessor contract enforces
// the invariant: GetSettings creates the row with a null budget if it is
// missing, and nothing ever deletes it.
const settingsRowID = 1

// GetSettings returns the settings record, creating it with defaults on
// first read.
func (s *SQLiteStorage) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getSettings(ctx, s.db)
}

// GetSettings returns the settings record within a transaction.
func (t *sqliteTransaction) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getSettings(ctx, t.tx)
}

func (s *SQLiteStorage) getSettings(ctx context.Context, q querier) (*model.Settings, error) {
	settings, err := s.readSettings(ctx, q)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Lazy initialization on first read.
	now := time.Now().UTC()
	if _, err := q.ExecContext(ctx,
		`INSERT INTO settings (id, global_monthly_budget, updated_at) VALUES (?, NULL, ?)`,
		settingsRowID, now); err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", mapConstraintError(err))
	}

	slog.Info("initialized settings record")
	return &model.Settings{UpdatedAt: now}, nil
}

func (s *SQLiteStorage) readSettings(ctx context.Context, q querier) (*model.Settings, error) {
	var (
		settings model.Settings
		budget   sql.NullFloat64
	)
	err := q.QueryRowContext(ctx,
		`SELECT global_monthly_budget, updated_at FROM settings WHERE id = ?`,
		settingsRowID).Scan(&budget, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	if budget.Valid {
		b := budget.Float64
		settings.GlobalMonthlyBudget = &b
	}
	return &settings, nil
}

// SetGlobalBudget updates the global monthly budget. A nil budget clears it.
// The last-modified timestamp is bumped on every write.
func (s *SQLiteStorage) SetGlobalBudget(ctx context.Context, budget *float64) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.setGlobalBudget(ctx, s.db, budget)
}

// SetGlobalBudget updates the global monthly budget within a transaction.
func (t *sqliteTransaction) SetGlobalBudget(ctx context.Context, budget *float64) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.setGlobalBudget(ctx, t.tx, budget)
}

func (s *SQLiteStorage) setGlobalBudget(ctx context.Context, q querier, budget *float64) (*model.Settings, error) {
	if err := validateBudget(budget); err != nil {
		return nil, err
	}

	// Make sure the row exists before updating it.
	if _, err := s.getSettings(ctx, q); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := q.ExecContext(ctx,
		`UPDATE settings SET global_monthly_budget = ?, updated_at = ? WHERE id = ?`,
		nullableFloat(budget), now, settingsRowID); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", mapConstraintError(err))
	}

	return &model.Settings{GlobalMonthlyBudget: budget, UpdatedAt: now}, nil
}
