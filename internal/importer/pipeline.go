package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mgauthier/centime/internal/model"
	"github.com/mgauthier/centime/internal/service"
)

// Batch-level error messages.
const (
	msgEmptyPayload  = "payload is empty or malformed"
	msgInvalidEncode = "decoding error: payload must be UTF-8 encoded text"
)

// Pipeline runs import batches against the ledger store. Each batch is one
// store transaction: rows are staged as they validate and everything becomes
// durable in a single commit at the end.
type Pipeline struct {
	store    service.Storage
	now      func() time.Time
	progress func(processed, total int)
}

// NewPipeline creates an import pipeline over the given store.
func NewPipeline(store service.Storage) *Pipeline {
	return &Pipeline{
		store: store,
		now:   time.Now,
	}
}

// OnProgress registers a callback invoked after each processed row.
func (p *Pipeline) OnProgress(fn func(processed, total int)) {
	p.progress = fn
}

// ImportCSV imports a CSV payload and returns the batch report. Batch-level
// failures (bad encoding, empty/malformed payload, commit failure) are
// reported inside the report, never as a returned error; the error return is
// reserved for an unusable store or a canceled context.
func (p *Pipeline) ImportCSV(ctx context.Context, payload []byte) (*Report, error) {
	if !utf8.Valid(payload) {
		return abortReport(msgInvalidEncode), nil
	}

	rows := parseCSV(payload)
	if len(rows) == 0 {
		return abortReport(msgEmptyPayload), nil
	}

	return p.runBatch(ctx, rows)
}

// runBatch validates, stages, and commits one batch of raw rows. Shared by
// the CSV and OFX front ends.
func (p *Pipeline) runBatch(ctx context.Context, rows []Row) (*Report, error) {
	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import batch: %w", err)
	}
	// Rollback is a no-op after a successful commit; it covers early returns
	// and callers aborting mid-batch.
	defer func() { _ = tx.Rollback() }()

	report := newReport()
	// Categories created in this batch are visible to later rows before the
	// final commit.
	categories := make(map[string]int64)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("import canceled: %w", err)
		}

		valid, reason := p.validateRow(row)
		if reason != "" {
			report.skip(row.Line, reason)
			p.reportProgress(i+1, len(rows))
			continue
		}

		categoryID, err := p.resolveCategory(ctx, tx, categories, row.Category)
		if err != nil {
			report.skip(row.Line, fmt.Sprintf("failed to import row: %v", err))
			p.reportProgress(i+1, len(rows))
			continue
		}

		txn := model.Transaction{
			Date:        valid.date,
			Description: valid.description,
			Amount:      valid.amount,
			CategoryID:  categoryID,
		}
		if err := tx.CreateTransaction(ctx, &txn); err != nil {
			// Staging errors the validation step did not anticipate are
			// treated like validation failures: skip the row, keep going.
			report.skip(row.Line, fmt.Sprintf("failed to import row: %v", err))
			p.reportProgress(i+1, len(rows))
			continue
		}

		report.Inserted++
		p.reportProgress(i+1, len(rows))
	}

	if err := tx.Commit(); err != nil {
		slog.Error("import batch commit failed", "error", err)
		return abortReport(fmt.Sprintf("import failed: %v", err)), nil
	}

	slog.Info("import batch committed",
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"new_categories", len(categories))
	return report, nil
}

// validatedRow holds the parsed values of a row that passed validation.
type validatedRow struct {
	date        time.Time
	description string
	amount      float64
}

// validateRow applies the per-row checks in order and returns either the
// parsed values or the first failure reason.
func (p *Pipeline) validateRow(row Row) (validatedRow, string) {
	date := strings.TrimSpace(row.Date)
	if date == "" {
		return validatedRow{}, "date is required"
	}
	parsedDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return validatedRow{}, "date must be in YYYY-MM-DD format"
	}
	if calendarDateAfter(parsedDate, p.now()) {
		return validatedRow{}, "date cannot be in the future"
	}

	description := strings.TrimSpace(row.Description)
	if description == "" {
		return validatedRow{}, "description is required"
	}

	amountText := strings.TrimSpace(row.Amount)
	if amountText == "" {
		return validatedRow{}, "amount is required"
	}
	amount, err := strconv.ParseFloat(amountText, 64)
	if err != nil {
		return validatedRow{}, "amount must be a number (e.g. 45.99)"
	}
	if amount == 0 {
		return validatedRow{}, "amount cannot be zero"
	}

	return validatedRow{
		date:        parsedDate,
		description: description,
		amount:      amount,
	}, ""
}

// resolveCategory returns the id of the named category, creating it inside
// the batch transaction if it does not exist yet. An empty name means the
// row stays uncategorized.
func (p *Pipeline) resolveCategory(ctx context.Context, tx service.Transaction, cache map[string]int64, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	if id, ok := cache[name]; ok {
		return &id, nil
	}

	existing, err := tx.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		cache[name] = existing.ID
		id := existing.ID
		return &id, nil
	}

	// Auto-provision: fixed default color, no monthly budget.
	created, err := tx.CreateCategory(ctx, name, model.DefaultCategoryColor, nil)
	if err != nil {
		return nil, err
	}
	cache[name] = created.ID
	id := created.ID
	return &id, nil
}

func (p *Pipeline) reportProgress(processed, total int) {
	if p.progress != nil {
		p.progress(processed, total)
	}
}

// calendarDateAfter reports whether d falls on a calendar day strictly after
// now's, compared in UTC.
func calendarDateAfter(d, now time.Time) bool {
	dy, dm, dd := d.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	if dy != ny {
		return dy > ny
	}
	if dm != nm {
		return dm > nm
	}
	return dd > nd
}
