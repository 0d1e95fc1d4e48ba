// Package storage provides the SQLite crime-records database and the
// aggregate queries the dashboard is built from.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/matsen/crimedash/internal/store"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One row per reported incident
		CREATE TABLE IF NOT EXISTS boston_crime (
			INCIDENT_NUMBER TEXT PRIMARY KEY,
			OFFENSE_DESCRIPTION TEXT NOT NULL,
			CRIME_CATEGORY TEXT,
			DISTRICT TEXT,
			YEAR INTEGER NOT NULL,
			MONTH INTEGER,
			DAY_OF_WEEK TEXT,
			Lat REAL,
			Long REAL
		);

		CREATE INDEX IF NOT EXISTS idx_boston_crime_year ON boston_crime(YEAR);
		CREATE INDEX IF NOT EXISTS idx_boston_crime_year_district ON boston_crime(YEAR, DISTRICT);

		-- Per-year category totals
		CREATE VIEW IF NOT EXISTS crime_category_counts AS
			SELECT YEAR, CRIME_CATEGORY, COUNT(*) AS crime_count
			FROM boston_crime
			WHERE CRIME_CATEGORY IS NOT NULL AND CRIME_CATEGORY != ''
			GROUP BY YEAR, CRIME_CATEGORY;

		-- Per-year district totals
		CREATE VIEW IF NOT EXISTS crime_count_by_district_year AS
			SELECT DISTRICT, YEAR, COUNT(*) AS crime_count
			FROM boston_crime
			WHERE DISTRICT IS NOT NULL AND DISTRICT != ''
			GROUP BY DISTRICT, YEAR;

		-- Import bookkeeping
		CREATE TABLE IF NOT EXISTS _meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Query runs an arbitrary read query and returns the rows as records.
func (d *DB) Query(query string, args ...any) ([]store.Record, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	return store.ScanRecords(rows)
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullableInt converts a pointer to sql.NullInt64.
func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// nullableFloat converts a pointer to sql.NullFloat64.
func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
