package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mgauthier/centime/internal/insights"
	"github.com/mgauthier/centime/internal/model"
	"github.com/mgauthier/centime/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves settings, categories, and windowed aggregates from memory
// so the engine can be tested without a database.
type fakeStore struct {
	err        error
	settings   model.Settings
	categories []model.Category
	buckets    []service.CategoryTotal
}

func (f *fakeStore) GetSettings(_ context.Context) (*model.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := f.settings
	return &s, nil
}

func (f *fakeStore) GetCategories(_ context.Context) ([]model.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *fakeStore) SumAmountInMonth(_ context.Context, _, _ int, _ *int64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var sum float64
	for _, b := range f.buckets {
		sum += b.Total
	}
	return sum, nil
}

func (f *fakeStore) CategoryTotalsInMonth(_ context.Context, _, _ int) ([]service.CategoryTotal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buckets, nil
}

func (f *fakeStore) CountTransactionsInMonth(_ context.Context, _, _ int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	var count int
	for _, b := range f.buckets {
		count += b.Count
	}
	return count, nil
}

func newTestEngine(store *fakeStore) *Engine {
	return NewEngine(store, insights.NewEngine(store))
}

func floatPtr(f float64) *float64 {
	return &f
}

func category(id int64, name string, budget *float64) model.Category {
	return model.Category{
		ID:            id,
		Name:          name,
		MonthlyBudget: budget,
		CreatedAt:     time.Date(2025, 1, int(id), 0, 0, 0, 0, time.UTC),
	}
}

func TestBudgetAlerts_NoBudgetsConfigured(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		categories: []model.Category{category(1, "Groceries", nil)},
		buckets:    []service.CategoryTotal{{Label: "Groceries", Total: 5000, Count: 10}},
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	// Empty but never nil: callers can serialize it as [].
	require.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestBudgetAlerts_GlobalOverage(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		settings: model.Settings{GlobalMonthlyBudget: floatPtr(100)},
		buckets:  []service.CategoryTotal{{Label: "Groceries", Total: 150.789, Count: 3}},
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, ScopeGlobal, a.Scope)
	assert.Empty(t, a.Category)
	assert.InDelta(t, 100, a.Budget, 1e-9)
	assert.InDelta(t, 150.79, a.Actual, 1e-9)
	assert.InDelta(t, 50.79, a.Delta, 1e-9)
}

func TestBudgetAlerts_GlobalExactlyAtBudget(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		settings: model.Settings{GlobalMonthlyBudget: floatPtr(100)},
		buckets:  []service.CategoryTotal{{Label: "Groceries", Total: 100, Count: 1}},
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Empty(t, alerts, "spending equal to the budget is not an overage")
}

func TestBudgetAlerts_ZeroBudgetNeverAlerts(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		settings:   model.Settings{GlobalMonthlyBudget: floatPtr(0)},
		categories: []model.Category{category(1, "Groceries", floatPtr(0))},
		buckets:    []service.CategoryTotal{{Label: "Groceries", Total: 99999, Count: 5}},
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Empty(t, alerts, "a zero budget counts as unset")
}

func TestBudgetAlerts_CategoryOverages(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		categories: []model.Category{
			category(1, "Groceries", floatPtr(100)),
			category(2, "Dining", floatPtr(50)),
			category(3, "Transport", floatPtr(200)),
		},
		buckets: []service.CategoryTotal{
			{Label: "Groceries", Total: 120, Count: 4},
			{Label: "Dining", Total: 80.506, Count: 2},
			{Label: "Transport", Total: 30, Count: 1},
		},
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	// Creation order, not overage size.
	assert.Equal(t, "Groceries", alerts[0].Category)
	assert.InDelta(t, 20, alerts[0].Delta, 1e-9)

	assert.Equal(t, "Dining", alerts[1].Category)
	assert.Equal(t, ScopeCategory, alerts[1].Scope)
	assert.InDelta(t, 80.51, alerts[1].Actual, 1e-9)
	assert.InDelta(t, 30.51, alerts[1].Delta, 1e-9)
}

func TestBudgetAlerts_GlobalPrecedesCategories(t *testing.T) {
	engine := newTestEngine(&fakeStore{
		settings: model.Settings{GlobalMonthlyBudget: floatPtr(10)},
		categories: []model.Category{
			category(1, "Groceries", floatPtr(5)),
		},
		buckets: []service.CategoryTotal{
			{Label: "Groceries", Total: 50, Count: 1},
		},
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, ScopeGlobal, alerts[0].Scope)
	assert.Equal(t, ScopeCategory, alerts[1].Scope)
}

func TestBudgetAlerts_NoSpendIsNoOverage(t *testing.T) {
	// A budgeted category absent from the month's buckets spent nothing.
	engine := newTestEngine(&fakeStore{
		categories: []model.Category{category(1, "Vacation", floatPtr(300))},
		buckets:    nil,
	})

	alerts, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestBudgetAlerts_StoreFailure(t *testing.T) {
	engine := newTestEngine(&fakeStore{err: errors.New("locked")})

	_, err := engine.BudgetAlerts(context.Background(), 2025, 3)
	assert.Error(t, err)
}
