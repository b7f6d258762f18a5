// Package alert detects monthly budget overages by comparing configured
// budgets (global and per-category) against actual spending. It is a pure
// read-side comparator: it never writes to the ledger.
package alert

import (
	"context"
	"fmt"

	"github.com/mgauthier/centime/internal/insights"
	"github.com/mgauthier/centime/internal/model"
)

// Alert scopes.
const (
	ScopeGlobal   = "global"
	ScopeCategory = "category"
)

// Alert reports one budget overage. Delta is always positive: alerts are
// only emitted when actual spending exceeds the budget. Monetary values are
// rounded to 2 decimals at emission.
type Alert struct {
	Scope    string  `json:"scope"`
	Category string  `json:"category,omitempty"`
	Budget   float64 `json:"budget"`
	Actual   float64 `json:"actual"`
	Delta    float64 `json:"delta"`
}

// Store is the narrow configuration capability the engine needs: the
// settings singleton and the category list in creation order.
type Store interface {
	GetSettings(ctx context.Context) (*model.Settings, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// Engine evaluates budgets for a month window.
type Engine struct {
	store    Store
	insights *insights.Engine
}

// NewEngine creates an alert engine over the given configuration store and
// aggregation engine.
func NewEngine(store Store, aggregates *insights.Engine) *Engine {
	return &Engine{store: store, insights: aggregates}
}

// BudgetAlerts returns the overage alerts for the window: at most one global
// alert followed by per-category alerts in category creation order.
//
// A budget that is absent or exactly 0 counts as "not configured" and never
// alerts, whatever the actual spend. Zero is deliberately indistinguishable
// from unset here.
func (e *Engine) BudgetAlerts(ctx context.Context, year, month int) ([]Alert, error) {
	alerts := make([]Alert, 0)

	global, err := e.checkGlobalBudget(ctx, year, month)
	if err != nil {
		return nil, err
	}
	alerts = append(alerts, global...)

	categoryAlerts, err := e.checkCategoryBudgets(ctx, year, month)
	if err != nil {
		return nil, err
	}
	alerts = append(alerts, categoryAlerts...)

	return alerts, nil
}

func (e *Engine) checkGlobalBudget(ctx context.Context, year, month int) ([]Alert, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.HasGlobalBudget() {
		return nil, nil
	}
	budget := *settings.GlobalMonthlyBudget

	actual, err := e.insights.MonthlyTotal(ctx, year, month, nil)
	if err != nil {
		return nil, err
	}
	if actual <= budget {
		return nil, nil
	}

	return []Alert{{
		Scope:  ScopeGlobal,
		Budget: insights.Round2(budget),
		Actual: insights.Round2(actual),
		Delta:  insights.Round2(actual - budget),
	}}, nil
}

func (e *Engine) checkCategoryBudgets(ctx context.Context, year, month int) ([]Alert, error) {
	categories, err := e.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	actualByCategory, err := e.insights.TotalsByCategory(ctx, year, month)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, category := range categories {
		if !category.HasBudget() {
			continue
		}
		budget := *category.MonthlyBudget

		// Absent from the mapping means no spend this month.
		actual := actualByCategory[category.Name]
		if actual <= budget {
			continue
		}

		alerts = append(alerts, Alert{
			Scope:    ScopeCategory,
			Category: category.Name,
			Budget:   insights.Round2(budget),
			Actual:   insights.Round2(actual),
			Delta:    insights.Round2(actual - budget),
		})
	}
	return alerts, nil
}
