// Package insights computes monthly spending aggregates from the ledger:
// totals, per-category breakdowns, and summaries over a fixed (year, month)
// window.
package insights

import (
	"context"
	"fmt"
	"math"

	"github.com/mgauthier/centime/internal/service"
)

// Ledger is the narrow query capability the engine needs. All three queries
// must apply the same calendar-month predicate; the storage layer guarantees
// this by deriving them from one window.
type Ledger interface {
	SumAmountInMonth(ctx context.Context, year, month int, categoryID *int64) (float64, error)
	CategoryTotalsInMonth(ctx context.Context, year, month int) ([]service.CategoryTotal, error)
	CountTransactionsInMonth(ctx context.Context, year, month int) (int, error)
}

// BreakdownEntry is one category's share of a month's spending.
type BreakdownEntry struct {
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

// MonthlySummary aggregates a month's spending into a single report.
type MonthlySummary struct {
	ByCategory map[string]BreakdownEntry `json:"by_category"`
	Total      float64                   `json:"total"`
	Average    float64                   `json:"average"`
	Count      int                       `json:"count"`
}

// Engine computes aggregates. It is read-only and safe for concurrent use.
type Engine struct {
	ledger Ledger
}

// NewEngine creates an aggregation engine over the given ledger.
func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// MonthlyTotal returns the full-precision sum of amounts in the window,
// optionally restricted to one category. Zero when nothing matches; no
// rounding is applied at this stage.
func (e *Engine) MonthlyTotal(ctx context.Context, year, month int, categoryID *int64) (float64, error) {
	total, err := e.ledger.SumAmountInMonth(ctx, year, month, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute monthly total: %w", err)
	}
	return total, nil
}

// TotalsByCategory groups the window's transactions by category display
// name. Uncategorized transactions fall under service.UncategorizedLabel,
// which appears only when at least one such transaction exists in the
// window. Categories with no windowed transactions are omitted.
func (e *Engine) TotalsByCategory(ctx context.Context, year, month int) (map[string]float64, error) {
	buckets, err := e.ledger.CategoryTotalsInMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category totals: %w", err)
	}

	totals := make(map[string]float64, len(buckets))
	for _, bucket := range buckets {
		totals[bucket.Label] = bucket.Total
	}
	return totals, nil
}

// CategoryBreakdown returns each category's total, percentage share, and
// transaction count for the window. Percentages are computed against the sum
// of the category totals themselves, not a separate query. When that global
// sum is exactly 0 (including nonzero amounts canceling out via refunds),
// the breakdown is empty.
func (e *Engine) CategoryBreakdown(ctx context.Context, year, month int) (map[string]BreakdownEntry, error) {
	buckets, err := e.ledger.CategoryTotalsInMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
	}

	var globalSum float64
	for _, bucket := range buckets {
		globalSum += bucket.Total
	}

	breakdown := make(map[string]BreakdownEntry)
	if globalSum == 0 {
		return breakdown, nil
	}

	for _, bucket := range buckets {
		breakdown[bucket.Label] = BreakdownEntry{
			Total:      Round2(bucket.Total),
			Percentage: Round2(bucket.Total / globalSum * 100),
			Count:      bucket.Count,
		}
	}
	return breakdown, nil
}

// Summary computes the month's total, transaction count, average amount, and
// per-category breakdown. Average is 0 for an empty window.
func (e *Engine) Summary(ctx context.Context, year, month int) (*MonthlySummary, error) {
	total, err := e.MonthlyTotal(ctx, year, month, nil)
	if err != nil {
		return nil, err
	}

	count, err := e.ledger.CountTransactionsInMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	average := 0.0
	if count > 0 {
		average = total / float64(count)
	}

	byCategory, err := e.CategoryBreakdown(ctx, year, month)
	if err != nil {
		return nil, err
	}

	return &MonthlySummary{
		Total:      Round2(total),
		Count:      count,
		Average:    Round2(average),
		ByCategory: byCategory,
	}, nil
}

// Round2 rounds a monetary value to 2 decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
