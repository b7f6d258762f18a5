package importer

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mgauthier/centime/internal/model"
	"github.com/mgauthier/centime/internal/service"
	"github.com/mgauthier/centime/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestPipeline builds a pipeline over a real SQLite store with a
// pinned clock so "future date" checks are deterministic.
func createTestPipeline(t *testing.T) (*Pipeline, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	pipeline := NewPipeline(store)
	pipeline.now = func() time.Time {
		return time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	}
	return pipeline, store
}

func TestImportCSV(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	payload := []byte(`date,description,amount,category
2025-03-01,Weekly shop,45.99,Groceries
2025-03-02,Lunch,12.50,Dining
2025-03-03,Refund,-9.99,Groceries
2025-03-04,Cash withdrawal,60.00,
`)

	report, err := pipeline.ImportCSV(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Inserted)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Errors)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 4)

	// The whole batch lands in one month; the stored sum must match the
	// payload's arithmetic sum.
	total, err := store.SumAmountInMonth(ctx, 2025, 3, nil)
	require.NoError(t, err)
	assert.InDelta(t, 45.99+12.50-9.99+60.00, total, 1e-9)

	// Both named categories were auto-provisioned with the default color.
	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Groceries", categories[0].Name)
	assert.Equal(t, model.DefaultCategoryColor, categories[0].Color)
	assert.Nil(t, categories[0].MonthlyBudget)

	// The empty category column leaves that row uncategorized.
	for _, txn := range txns {
		if txn.Description == "Cash withdrawal" {
			assert.Nil(t, txn.CategoryID)
		}
	}
}

func TestImportCSV_SkipsInvalidRows(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	payload := []byte(`date,description,amount,category
not-a-date,Broken,10.00,Misc
2025-03-02,Valid,12.50,Misc
2025-03-03,Also valid,8.25,Misc
`)

	report, err := pipeline.ImportCSV(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Row 2: date must be in YYYY-MM-DD format", report.Errors[0])

	// Valid rows from a batch with skips still commit.
	count, err := store.CountTransactionsInMonth(ctx, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportCSV_RowValidationMessages(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr string
	}{
		{
			name:    "missing date",
			row:     ",Something,10.00,",
			wantErr: "Row 2: date is required",
		},
		{
			name:    "malformed date",
			row:     "03/15/2025,Something,10.00,",
			wantErr: "Row 2: date must be in YYYY-MM-DD format",
		},
		{
			name:    "future date",
			row:     "2025-03-21,Something,10.00,",
			wantErr: "Row 2: date cannot be in the future",
		},
		{
			name:    "missing description",
			row:     "2025-03-01,   ,10.00,",
			wantErr: "Row 2: description is required",
		},
		{
			name:    "missing amount",
			row:     "2025-03-01,Something,,",
			wantErr: "Row 2: amount is required",
		},
		{
			name:    "non-numeric amount",
			row:     "2025-03-01,Something,ten,",
			wantErr: "Row 2: amount must be a number (e.g. 45.99)",
		},
		{
			name:    "zero amount",
			row:     "2025-03-01,Something,0,",
			wantErr: "Row 2: amount cannot be zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline, _ := createTestPipeline(t)

			payload := []byte("date,description,amount,category\n" + tt.row + "\n")
			report, err := pipeline.ImportCSV(context.Background(), payload)
			require.NoError(t, err)

			assert.Equal(t, 0, report.Inserted)
			assert.Equal(t, 1, report.Skipped)
			require.Len(t, report.Errors, 1)
			assert.Equal(t, tt.wantErr, report.Errors[0])
		})
	}
}

func TestImportCSV_SameDayIsNotFuture(t *testing.T) {
	pipeline, _ := createTestPipeline(t)

	// The pinned clock says 2025-03-20; a row dated that day must pass.
	payload := []byte("date,description,amount,category\n2025-03-20,Today,5.00,\n")
	report, err := pipeline.ImportCSV(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Empty(t, report.Errors)
}

func TestImportCSV_BatchLevelFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantErr string
	}{
		{
			name:    "empty payload",
			payload: []byte{},
			wantErr: "payload is empty or malformed",
		},
		{
			name:    "header only",
			payload: []byte("date,description,amount,category\n"),
			wantErr: "payload is empty or malformed",
		},
		{
			name:    "not csv at all",
			payload: []byte(`{"date": "2025-03-01"}`),
			wantErr: "payload is empty or malformed",
		},
		{
			name:    "invalid utf-8",
			payload: []byte{0xff, 0xfe, 0x00, 0x41},
			wantErr: "decoding error: payload must be UTF-8 encoded text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline, _ := createTestPipeline(t)

			report, err := pipeline.ImportCSV(context.Background(), tt.payload)
			require.NoError(t, err)

			assert.Equal(t, 0, report.Inserted)
			assert.Equal(t, 0, report.Skipped)
			assert.Equal(t, []string{tt.wantErr}, report.Errors)
		})
	}
}

func TestImportCSV_ReusesCategoriesWithinBatch(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	payload := []byte(`date,description,amount,category
2025-03-01,First,10.00,Groceries
2025-03-02,Second,20.00,Groceries
2025-03-03,Third,30.00,Groceries
`)

	report, err := pipeline.ImportCSV(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)

	// One category serves all three rows.
	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{CategoryID: &categories[0].ID})
	require.NoError(t, err)
	assert.Len(t, txns, 3)
}

func TestImportCSV_ReusesExistingCategories(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	existing, err := store.CreateCategory(ctx, "Groceries", "#FF6B6B", nil)
	require.NoError(t, err)

	payload := []byte("date,description,amount,category\n2025-03-01,Shop,10.00,Groceries\n")
	report, err := pipeline.ImportCSV(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)

	// No duplicate; the original keeps its color.
	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, existing.ID, categories[0].ID)
	assert.Equal(t, "#FF6B6B", categories[0].Color)
}

func TestImportCSV_ShuffledHeaderColumns(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	payload := []byte(`Amount,CATEGORY,date,Description
15.75,Dining,2025-03-05,Tacos
`)

	report, err := pipeline.ImportCSV(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, 1, report.Inserted)

	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Tacos", txns[0].Description)
	assert.InDelta(t, 15.75, txns[0].Amount, 1e-9)
}

func TestImportCSV_RaggedRows(t *testing.T) {
	pipeline, _ := createTestPipeline(t)

	// The short row misses its amount field entirely.
	payload := []byte(`date,description,amount,category
2025-03-01,Short row
2025-03-02,Complete,22.00,Misc
`)

	report, err := pipeline.ImportCSV(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Row 2: amount is required", report.Errors[0])
}

func TestImportCSV_ReportsProgress(t *testing.T) {
	pipeline, _ := createTestPipeline(t)

	var calls [][2]int
	pipeline.OnProgress(func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	})

	payload := []byte(`date,description,amount,category
2025-03-01,One,1.00,
bad-date,Two,2.00,
2025-03-03,Three,3.00,
`)

	_, err := pipeline.ImportCSV(context.Background(), payload)
	require.NoError(t, err)

	// Every row reports, valid or not, ending at (total, total).
	require.Len(t, calls, 3)
	assert.Equal(t, [2]int{1, 3}, calls[0])
	assert.Equal(t, [2]int{3, 3}, calls[2])
}

func TestImportCSV_CanceledContext(t *testing.T) {
	pipeline, store := createTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := []byte("date,description,amount,category\n2025-03-01,Never,1.00,\n")
	_, err := pipeline.ImportCSV(ctx, payload)
	require.Error(t, err)

	count, err := store.CountTransactionsInMonth(context.Background(), 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "a canceled batch persists nothing")
}

func TestImportCSV_RoundTripSum(t *testing.T) {
	pipeline, store := createTestPipeline(t)
	ctx := context.Background()

	amounts := []float64{19.99, 3.49, -12.00, 150.25, 0.01}
	var payload strings.Builder
	payload.WriteString("date,description,amount,category\n")
	var want float64
	for i, amount := range amounts {
		fmt.Fprintf(&payload, "2025-03-%02d,Item,%s,\n", i+1, strconv.FormatFloat(amount, 'f', -1, 64))
		want += amount
	}

	report, err := pipeline.ImportCSV(ctx, []byte(payload.String()))
	require.NoError(t, err)
	require.Equal(t, len(amounts), report.Inserted)

	total, err := store.SumAmountInMonth(ctx, 2025, 3, nil)
	require.NoError(t, err)
	assert.True(t, math.Abs(total-want) < 1e-9)
}
