// Package storage provides the data persistence layer for the centime application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mgauthier/centime/internal/common"
	"github.com/mgauthier/centime/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidMonth   = errors.New("month must be between 1 and 12")
	ErrFutureDate     = errors.New("date cannot be in the future")
	ErrZeroAmount     = errors.New("amount cannot be zero")
	ErrNegativeBudget = errors.New("budget cannot be negative")
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMonth ensures a (year, month) pair names a real calendar month.
func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	if year < 1 {
		return fmt.Errorf("%w: year %d", common.ErrInvalidInput, year)
	}
	return nil
}

// validateCategoryName enforces the display-name contract: non-empty after
// trimming and at most 100 characters.
func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: category name cannot be empty", common.ErrInvalidInput)
	}
	if len(name) > model.MaxCategoryNameLength {
		return fmt.Errorf("%w: category name exceeds %d characters", common.ErrInvalidInput, model.MaxCategoryNameLength)
	}
	return nil
}

// validateColor accepts an empty color or a six-hex-digit "#RRGGBB" string.
func validateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("%w: color must be a 6-hex-digit string like #4ECDC4", common.ErrInvalidInput)
	}
	return nil
}

// validateBudget accepts a nil (unset) budget or a non-negative value.
func validateBudget(budget *float64) error {
	if budget != nil && *budget < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeBudget, *budget)
	}
	return nil
}

// validateTransaction enforces the transaction invariants at write time:
// a date no later than today, a non-empty description within bounds, and a
// nonzero amount.
func validateTransaction(txn *model.Transaction, now time.Time) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: transaction date is required", common.ErrInvalidInput)
	}
	if calendarDateAfter(txn.Date, now) {
		return fmt.Errorf("%w: %s", ErrFutureDate, txn.Date.Format("2006-01-02"))
	}
	if strings.TrimSpace(txn.Description) == "" {
		return fmt.Errorf("%w: description is required", common.ErrInvalidInput)
	}
	if len(txn.Description) > model.MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", common.ErrInvalidInput, model.MaxDescriptionLength)
	}
	if txn.Amount == 0 {
		return fmt.Errorf("%w", ErrZeroAmount)
	}
	return nil
}

// calendarDateAfter reports whether d falls on a calendar day strictly after
// now's. Both are compared in UTC so a time-of-day component never makes a
// same-day transaction "future".
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

// monthWindow returns the half-open [start, end) time range covering every
// date in the given calendar month.
func monthWindow(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
