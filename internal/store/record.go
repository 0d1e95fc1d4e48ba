// Package store provides the record type shared by the JSONL and SQLite
// readers, and the helpers that produce it.
package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// Record is one row of a table: field name to value.
type Record map[string]any

// Field returns the value stored under name and whether it is present.
// A present field may hold nil (SQL NULL or JSON null).
func (r Record) Field(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// Fields returns the field names of r in sorted order.
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the union of field names across records, sorted.
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range records {
		for name := range r {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// ScanRecords converts SQL rows to records keyed by column name.
// []byte values are copied into strings since the driver may reuse them.
func ScanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	records := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(records)+1, err)
		}

		record := make(Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
