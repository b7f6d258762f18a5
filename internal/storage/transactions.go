package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mgauthier/centime/internal/common"
	"github.com/mgauthier/centime/internal/model"
	"github.com/mgauthier/centime/internal/service"
)

// CreateTransaction inserts a new transaction and fills in its generated id
// and creation timestamp.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.createTransaction(ctx, s.db, txn)
}

// CreateTransaction stages a transaction inside a database transaction. The
// row is durable only after Commit.
func (t *sqliteTransaction) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.createTransaction(ctx, t.tx, txn)
}

func (s *SQLiteStorage) createTransaction(ctx context.Context, q querier, txn *model.Transaction) error {
	if err := validateTransaction(txn, time.Now()); err != nil {
		return err
	}
	if txn.CategoryID != nil {
		if _, err := s.getCategoryByID(ctx, q, *txn.CategoryID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO transactions (date, description, amount, category_id, created_at)
		VALUES (?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		txn.Date, strings.TrimSpace(txn.Description), txn.Amount, nullableInt(txn.CategoryID), now)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", mapConstraintError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction ID: %w", err)
	}

	txn.ID = id
	txn.CreatedAt = now
	txn.Description = strings.TrimSpace(txn.Description)

	slog.Debug("created transaction", "id", id, "date", txn.Date.Format("2006-01-02"), "amount", txn.Amount)
	return nil
}

// GetTransactionByID returns a transaction by its id, or ErrNotFound.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactionByID(ctx, s.db, id)
}

// GetTransactionByID returns a transaction by its id within a transaction.
func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getTransactionByID(ctx, t.tx, id)
}

func (s *SQLiteStorage) getTransactionByID(ctx context.Context, q querier, id int64) (*model.Transaction, error) {
	query := `
		SELECT id, date, description, amount, category_id, created_at
		FROM transactions
		WHERE id = ?`

	txn, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getTransactions(ctx, s.db, filter)
}

// GetTransactions returns matching transactions within a transaction.
func (t *sqliteTransaction) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getTransactions(ctx, t.tx, filter)
}

func (s *SQLiteStorage) getTransactions(ctx context.Context, q querier, filter service.TransactionFilter) ([]model.Transaction, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.Search != "" {
		conditions = append(conditions, "description LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}

	query := `
		SELECT id, date, description, amount, category_id, created_at
		FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// UpdateTransaction updates a transaction's date, description, amount, and
// category reference. The creation timestamp is immutable.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateTransaction(ctx, s.db, txn)
}

// UpdateTransaction updates a transaction within a database transaction.
func (t *sqliteTransaction) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.updateTransaction(ctx, t.tx, txn)
}

func (s *SQLiteStorage) updateTransaction(ctx context.Context, q querier, txn *model.Transaction) error {
	if err := validateTransaction(txn, time.Now()); err != nil {
		return err
	}
	if txn.CategoryID != nil {
		if _, err := s.getCategoryByID(ctx, q, *txn.CategoryID); err != nil {
			return err
		}
	}

	query := `
		UPDATE transactions
		SET date = ?, description = ?, amount = ?, category_id = ?
		WHERE id = ?`

	result, err := q.ExecContext(ctx, query,
		txn.Date, strings.TrimSpace(txn.Description), txn.Amount, nullableInt(txn.CategoryID), txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", mapConstraintError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, txn.ID)
	}

	return nil
}

// DeleteTransaction removes a transaction from the ledger.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.deleteTransaction(ctx, s.db, id)
}

// DeleteTransaction removes a transaction within a database transaction.
func (t *sqliteTransaction) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.storage.deleteTransaction(ctx, t.tx, id)
}

func (s *SQLiteStorage) deleteTransaction(ctx context.Context, q querier, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, id)
	}

	return nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		categoryID sql.NullInt64
	)
	if err := row.Scan(&txn.ID, &txn.Date, &txn.Description, &txn.Amount, &categoryID, &txn.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	if categoryID.Valid {
		id := categoryID.Int64
		txn.CategoryID = &id
	}
	return &txn, nil
}
