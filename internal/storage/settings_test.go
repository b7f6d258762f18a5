package storage

import (
	"context"
	"errors"
	"testing"
)

func TestGetSettings_LazyInitialization(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	// First read creates the record with no budget.
	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.GlobalMonthlyBudget != nil {
		t.Errorf("GlobalMonthlyBudget = %v, want nil on first read", *settings.GlobalMonthlyBudget)
	}
	if settings.UpdatedAt.IsZero() {
		t.Error("UpdatedAt was not set")
	}

	// Subsequent reads return the same record.
	again, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("Second GetSettings failed: %v", err)
	}
	if again.GlobalMonthlyBudget != nil {
		t.Error("Second read returned a budget that was never set")
	}
}

func TestSetGlobalBudget(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()

	// Set works without a prior GetSettings call.
	updated, err := store.SetGlobalBudget(ctx, floatPtr(1500))
	if err != nil {
		t.Fatalf("SetGlobalBudget failed: %v", err)
	}
	if updated.GlobalMonthlyBudget == nil || *updated.GlobalMonthlyBudget != 1500 {
		t.Errorf("GlobalMonthlyBudget = %v, want 1500", updated.GlobalMonthlyBudget)
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.GlobalMonthlyBudget == nil || *settings.GlobalMonthlyBudget != 1500 {
		t.Errorf("Persisted budget = %v, want 1500", settings.GlobalMonthlyBudget)
	}

	// Clearing resets to nil.
	if _, err := store.SetGlobalBudget(ctx, nil); err != nil {
		t.Fatalf("Clearing budget failed: %v", err)
	}
	settings, err = store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings after clear failed: %v", err)
	}
	if settings.GlobalMonthlyBudget != nil {
		t.Errorf("Budget = %v after clear, want nil", *settings.GlobalMonthlyBudget)
	}
}

func TestSetGlobalBudget_RejectsNegative(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.SetGlobalBudget(context.Background(), floatPtr(-100))
	if !errors.Is(err, ErrNegativeBudget) {
		t.Errorf("Error = %v, want ErrNegativeBudget", err)
	}
}
