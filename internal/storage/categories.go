package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mgauthier/centime/internal/common"
	"github.com/mgauthier/centime/internal/model"
)

// GetCategories returns all categories in creation order.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategories(ctx, s.db)
}

// GetCategories returns all categories in creation order within a transaction.
func (t *sqliteTransaction) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategories(ctx, t.tx)
}

func (s *SQLiteStorage) getCategories(ctx context.Context, q querier) ([]model.Category, error) {
	// Creation order: budget alerts are emitted in this enumeration order.
	query := `
		SELECT id, name, color, monthly_budget, created_at
		FROM categories
		ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByID returns a category by its id, or ErrNotFound.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoryByID(ctx, s.db, id)
}

// GetCategoryByID returns a category by its id within a transaction.
func (t *sqliteTransaction) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategoryByID(ctx, t.tx, id)
}

func (s *SQLiteStorage) getCategoryByID(ctx context.Context, q querier, id int64) (*model.Category, error) {
	query := `
		SELECT id, name, color, monthly_budget, created_at
		FROM categories
		WHERE id = ?`

	cat, err := scanCategory(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// GetCategoryByName returns a category by its exact display name. It returns
// (nil, nil) when no category carries that name, so callers can distinguish
// "absent" from a query failure.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCategoryByName(ctx, s.db, name)
}

// GetCategoryByName returns a category by its exact display name within a transaction.
func (t *sqliteTransaction) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getCategoryByName(ctx, t.tx, name)
}

func (s *SQLiteStorage) getCategoryByName(ctx context.Context, q querier, name string) (*model.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: category name", ErrEmptyString)
	}

	query := `
		SELECT id, name, color, monthly_budget, created_at
		FROM categories
		WHERE name = ?`

	cat, err := scanCategory(q.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Category not found
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// CreateCategory creates a new category. A duplicate display name is a
// user-facing conflict (common.ErrDuplicateEntry), not a crash.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name, color string, monthlyBudget *float64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.createCategory(ctx, s.db, name, color, monthlyBudget)
}

// CreateCategory creates a new category within a transaction. The generated
// id is visible to subsequent statements in the same transaction before the
// final commit.
func (t *sqliteTransaction) CreateCategory(ctx context.Context, name, color string, monthlyBudget *float64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.createCategory(ctx, t.tx, name, color, monthlyBudget)
}

func (s *SQLiteStorage) createCategory(ctx context.Context, q querier, name, color string, monthlyBudget *float64) (*model.Category, error) {
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}
	if err := validateBudget(monthlyBudget); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO categories (name, color, monthly_budget, created_at)
		VALUES (?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query, name, nullableString(color), nullableFloat(monthlyBudget), now)
	if err != nil {
		// The unique name constraint is the store-level guard against
		// concurrent creators racing on the same name.
		if mapped := mapConstraintError(err); errors.Is(mapped, common.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: category %q already exists", common.ErrDuplicateEntry, name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	category := &model.Category{
		ID:            id,
		Name:          name,
		Color:         color,
		MonthlyBudget: monthlyBudget,
		CreatedAt:     now,
	}

	slog.Info("created category", "name", name, "id", id)
	return category, nil
}

// UpdateCategory updates a category's name, color, and monthly budget.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateCategory(ctx, s.db, category)
}

// UpdateCategory updates a category within a transaction.
func (t *sqliteTransaction) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.updateCategory(ctx, t.tx, category)
}

func (s *SQLiteStorage) updateCategory(ctx context.Context, q querier, category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateCategoryName(category.Name); err != nil {
		return err
	}
	if err := validateColor(category.Color); err != nil {
		return err
	}
	if err := validateBudget(category.MonthlyBudget); err != nil {
		return err
	}

	query := `
		UPDATE categories
		SET name = ?, color = ?, monthly_budget = ?
		WHERE id = ?`

	result, err := q.ExecContext(ctx, query,
		category.Name, nullableString(category.Color), nullableFloat(category.MonthlyBudget), category.ID)
	if err != nil {
		if mapped := mapConstraintError(err); errors.Is(mapped, common.ErrDuplicateEntry) {
			return fmt.Errorf("%w: category %q already exists", common.ErrDuplicateEntry, category.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, category.ID)
	}

	return nil
}

// DeleteCategory deletes a category. Its transactions are detached (their
// category reference becomes absent), never deleted.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.deleteCategory(ctx, s.db, id)
}

// DeleteCategory deletes a category within a transaction.
func (t *sqliteTransaction) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.deleteCategory(ctx, t.tx, id)
}

func (s *SQLiteStorage) deleteCategory(ctx context.Context, q querier, id int64) error {
	// ON DELETE SET NULL on transactions.category_id performs the detach.
	result, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}

	slog.Info("deleted category", "id", id)
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		cat    model.Category
		color  sql.NullString
		budget sql.NullFloat64
	)
	if err := row.Scan(&cat.ID, &cat.Name, &color, &budget, &cat.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	if color.Valid {
		cat.Color = color.String
	}
	if budget.Valid {
		b := budget.Float64
		cat.MonthlyBudget = &b
	}
	return &cat, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
