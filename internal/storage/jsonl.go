package storage

import (
	"fmt"

	"github.com/matsen/crimedash/internal/store"
)

// WriteIncidents replaces the contents of path with incidents, one per line.
func WriteIncidents(path string, incidents []Incident) error {
	return store.WriteJSONL(path, incidents)
}

// ExportJSONL writes every incident in the database to path, ordered by
// incident number. The output can be read back with ImportJSONL.
func (d *DB) ExportJSONL(path string) (int, error) {
	incidents, err := d.AllIncidents()
	if err != nil {
		return 0, err
	}
	if err := WriteIncidents(path, incidents); err != nil {
		return 0, fmt.Errorf("exporting incidents: %w", err)
	}
	return len(incidents), nil
}
