// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mgauthier/centime/internal/model"
)

// UncategorizedLabel is the reserved aggregation bucket for transactions
// with no category reference. It only appears in aggregate outputs; no
// stored category carries this meaning.
const UncategorizedLabel = "Uncategorized"

// TransactionFilter defines filtering options for transaction queries.
// Nil date bounds are open-ended; a nil CategoryID means no category filter.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}

// CategoryTotal is one aggregation bucket for a calendar-month window:
// the summed amount and contributing transaction count for a single
// category label (or UncategorizedLabel).
type CategoryTotal struct {
	Label string
	Total float64
	Count int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Category operations. GetCategories returns categories in creation
	// order, which the alert engine relies on for emission order.
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name, color string, monthlyBudget *float64) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	// Settings operations. GetSettings lazily creates the single settings
	// record if it is missing.
	GetSettings(ctx context.Context) (*model.Settings, error)
	SetGlobalBudget(ctx context.Context, budget *float64) (*model.Settings, error)

	// Windowed aggregate queries. All three apply the same calendar-month
	// predicate so derived figures stay consistent with each other.
	SumAmountInMonth(ctx context.Context, year, month int, categoryID *int64) (float64, error)
	CategoryTotalsInMonth(ctx context.Context, year, month int) ([]CategoryTotal, error)
	CountTransactionsInMonth(ctx context.Context, year, month int) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}
