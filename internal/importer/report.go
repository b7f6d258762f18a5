// Package importer implements the bulk import pipeline: parsing a payload
// into rows, validating each row, auto-provisioning missing categories, and
// persisting the batch atomically with a row-level success/failure report.
package importer

import "fmt"

// Report is the outcome of one import batch. Inserted counts rows staged and
// committed; Skipped counts rows rejected at validation or staging; Errors
// holds row-scoped messages in row order. A batch-level abort (decode or
// commit failure) yields a zeroed report with a single error entry.
type Report struct {
	Errors   []string `json:"errors"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
}

func newReport() *Report {
	return &Report{Errors: []string{}}
}

// abortReport builds the report shape for a batch-level failure: no rows
// counted, one explanatory error.
func abortReport(message string) *Report {
	return &Report{
		Errors:   []string{message},
		Inserted: 0,
		Skipped:  0,
	}
}

func (r *Report) skip(line int, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("Row %d: %s", line, reason))
}
