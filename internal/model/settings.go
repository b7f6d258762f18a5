package model

import "time"

// Settings holds the application-wide configuration. Exactly one logical
// record exists; the storage layer creates it lazily on first read and only
// ever updates it afterwards. A nil GlobalMonthlyBudget means no global
// budget is configured.
type Settings struct {
	UpdatedAt           time.Time
	GlobalMonthlyBudget *float64
}

// HasGlobalBudget reports whether a nonzero global budget is configured.
func (s *Settings) HasGlobalBudget() bool {
	return s.GlobalMonthlyBudget != nil && *s.GlobalMonthlyBudget != 0
}
