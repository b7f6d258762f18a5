package model

import "time"

// MaxDescriptionLength is the upper bound on a transaction description.
const MaxDescriptionLength = 255

// Transaction represents a single ledger entry. Amount may be negative
// (refunds) but never exactly zero. CategoryID is nil for uncategorized
// transactions; CreatedAt is set once at insertion and never updated.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	Description string
	CategoryID  *int64
	Amount      float64
	ID          int64
}

// Categorized reports whether the transaction references a category.
func (t *Transaction) Categorized() bool {
	return t.CategoryID != nil
}
