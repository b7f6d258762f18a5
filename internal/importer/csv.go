package importer

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// CSV column names. The header row determines the mapping; date, description,
// and amount are required columns, category is optional.
const (
	columnDate        = "date"
	columnDescription = "description"
	columnAmount      = "amount"
	columnCategory    = "category"
)

// Row is one raw data row from an import payload. Line is the 1-based source
// line number; with a header row the first data row is line 2. All fields
// are unparsed text; validation happens in the pipeline.
type Row struct {
	Date        string
	Description string
	Amount      string
	Category    string
	Line        int
}

// parseCSV decodes delimited tabular text with a header row into raw rows.
// A missing column simply yields empty field values, which the per-row
// validation then rejects with a row-scoped error. It returns nil both for
// an empty payload and one the CSV reader cannot make sense of; the caller
// treats those identically.
func parseCSV(payload []byte) []Row {
	reader := csv.NewReader(bytes.NewReader(payload))
	// Tolerate ragged rows; missing trailing fields become empty values.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		rows = append(rows, Row{
			Line:        i + 2,
			Date:        fieldAt(record, columns, columnDate),
			Description: fieldAt(record, columns, columnDescription),
			Amount:      fieldAt(record, columns, columnAmount),
			Category:    fieldAt(record, columns, columnCategory),
		})
	}
	return rows
}

func fieldAt(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}
