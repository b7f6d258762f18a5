package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mgauthier/centime/internal/service"
)

// The windowed aggregate queries below all share the same half-open
// [first-of-month, first-of-next-month) date predicate, so totals, per-label
// buckets, and counts can never drift apart for a given window.

// SumAmountInMonth returns the full-precision sum of transaction amounts in
// the calendar month, optionally restricted to one category. It returns 0
// when nothing matches.
func (s *SQLiteStorage) SumAmountInMonth(ctx context.Context, year, month int, categoryID *int64) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.sumAmountInMonth(ctx, s.db, year, month, categoryID)
}

// SumAmountInMonth returns the windowed amount sum within a transaction.
func (t *sqliteTransaction) SumAmountInMonth(ctx context.Context, year, month int, categoryID *int64) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.sumAmountInMonth(ctx, t.tx, year, month, categoryID)
}

func (s *SQLiteStorage) sumAmountInMonth(ctx context.Context, q querier, year, month int, categoryID *int64) (float64, error) {
	if err := validateMonth(year, month); err != nil {
		return 0, err
	}

	start, end := monthWindow(year, month)
	query := `SELECT SUM(amount) FROM transactions WHERE date >= ? AND date < ?`
	args := []any{start, end}
	if categoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *categoryID)
	}

	var sum sql.NullFloat64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Float64, nil
}

// CategoryTotalsInMonth returns one bucket per category label with at least
// one transaction in the window, plus an UncategorizedLabel bucket when any
// windowed transaction has no category reference. Buckets come back in
// category creation order with the uncategorized bucket last.
func (s *SQLiteStorage) CategoryTotalsInMonth(ctx context.Context, year, month int) ([]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.categoryTotalsInMonth(ctx, s.db, year, month)
}

// CategoryTotalsInMonth returns the windowed buckets within a transaction.
func (t *sqliteTransaction) CategoryTotalsInMonth(ctx context.Context, year, month int) ([]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.categoryTotalsInMonth(ctx, t.tx, year, month)
}

func (s *SQLiteStorage) categoryTotalsInMonth(ctx context.Context, q querier, year, month int) ([]service.CategoryTotal, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	start, end := monthWindow(year, month)
	// Grouping by c.id keeps a NULL category reference in its own bucket;
	// categories with no windowed transactions simply produce no group.
	query := `
		SELECT COALESCE(c.name, ?), SUM(t.amount), COUNT(t.id)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.date >= ? AND t.date < ?
		GROUP BY c.id
		ORDER BY c.id IS NULL, c.id`

	rows, err := q.QueryContext(ctx, query, service.UncategorizedLabel, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	var totals []service.CategoryTotal
	for rows.Next() {
		var bucket service.CategoryTotal
		if err := rows.Scan(&bucket.Label, &bucket.Total, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, bucket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}

	return totals, nil
}

// CountTransactionsInMonth returns the number of transactions in the
// calendar month regardless of category.
func (s *SQLiteStorage) CountTransactionsInMonth(ctx context.Context, year, month int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.countTransactionsInMonth(ctx, s.db, year, month)
}

// CountTransactionsInMonth returns the windowed count within a transaction.
func (t *sqliteTransaction) CountTransactionsInMonth(ctx context.Context, year, month int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.countTransactionsInMonth(ctx, t.tx, year, month)
}

func (s *SQLiteStorage) countTransactionsInMonth(ctx context.Context, q querier, year, month int) (int, error) {
	if err := validateMonth(year, month); err != nil {
		return 0, err
	}

	start, end := monthWindow(year, month)
	var count int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM transactions WHERE date >= ? AND date < ?`,
		start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
