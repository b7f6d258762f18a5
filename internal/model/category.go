package model

import "time"

// DefaultCategoryColor is assigned to categories auto-provisioned during a
// bulk import. Categories created explicitly may carry any color.
const DefaultCategoryColor = "#505050"

// MaxCategoryNameLength is the upper bound on a category display name.
const MaxCategoryNameLength = 100

// Category groups transactions under a unique display name. Color and
// MonthlyBudget are optional; a nil MonthlyBudget means no budget is
// configured for the category (which is not the same as a budget of zero,
// although the alert engine treats both as "unset").
type Category struct {
	CreatedAt     time.Time
	Name          string
	Color         string
	MonthlyBudget *float64
	ID            int64
}

// HasBudget reports whether the category carries a nonzero monthly budget.
// A zero budget is indistinguishable from an unset one.
func (c *Category) HasBudget() bool {
	return c.MonthlyBudget != nil && *c.MonthlyBudget != 0
}
