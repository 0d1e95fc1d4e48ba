package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/crimedash/internal/store"
)

// Incident is one reported crime, using the field names of the Boston
// open-data export.
type Incident struct {
	IncidentNumber     string   `json:"INCIDENT_NUMBER"`
	OffenseDescription string   `json:"OFFENSE_DESCRIPTION"`
	CrimeCategory      string   `json:"CRIME_CATEGORY,omitempty"`
	District           string   `json:"DISTRICT,omitempty"`
	Year               int      `json:"YEAR"`
	Month              *int     `json:"MONTH,omitempty"`
	DayOfWeek          string   `json:"DAY_OF_WEEK,omitempty"`
	Lat                *float64 `json:"Lat,omitempty"`
	Long               *float64 `json:"Long,omitempty"`
}

// ImportResult reports the outcome of ImportJSONL.
type ImportResult struct {
	Imported int    `json:"imported"`
	Skipped  bool   `json:"skipped"` // file unchanged since the last import
	Hash     string `json:"hash"`
}

// ErrInvalidIncident is returned when an import record cannot be converted
// to an Incident.
var ErrInvalidIncident = errors.New("invalid incident")

const (
	metaImportHash = "import_hash"
	metaLastImport = "last_import"
)

// ImportJSONL loads incidents from a JSONL file. Rows are upserted by
// incident number inside one transaction, so a failing line leaves the
// database untouched. Unless force is set, a file whose hash matches the
// previous import is skipped.
func (d *DB) ImportJSONL(path string, force bool) (*ImportResult, error) {
	hash, err := store.ComputeJSONLHash(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	if !force {
		stored, err := d.getMeta(metaImportHash)
		if err != nil {
			return nil, err
		}
		if stored == hash {
			return &ImportResult{Skipped: true, Hash: hash}, nil
		}
	}

	records, err := store.ReadAllRecords(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSONL: %w", err)
	}

	incidents := make([]Incident, 0, len(records))
	for i, rec := range records {
		inc, err := IncidentFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		incidents = append(incidents, inc)
	}

	n, err := d.ImportIncidents(incidents)
	if err != nil {
		return nil, err
	}

	if err := d.setMeta(metaImportHash, hash); err != nil {
		return nil, err
	}
	if err := d.setMeta(metaLastImport, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	return &ImportResult{Imported: n, Hash: hash}, nil
}

// ImportIncidents upserts incidents in a single transaction.
func (d *DB) ImportIncidents(incidents []Incident) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO boston_crime (
			INCIDENT_NUMBER, OFFENSE_DESCRIPTION, CRIME_CATEGORY, DISTRICT,
			YEAR, MONTH, DAY_OF_WEEK, Lat, Long
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing incident insert: %w", err)
	}
	defer stmt.Close()

	for _, inc := range incidents {
		_, err := stmt.Exec(
			inc.IncidentNumber, inc.OffenseDescription,
			nullableStringValue(strings.TrimSpace(inc.CrimeCategory)),
			nullableStringValue(strings.TrimSpace(inc.District)),
			inc.Year, nullableInt(inc.Month),
			nullableStringValue(strings.ToLower(strings.TrimSpace(inc.DayOfWeek))),
			nullableFloat(inc.Lat), nullableFloat(inc.Long),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting incident %s: %w", inc.IncidentNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(incidents), nil
}

// AllIncidents returns every incident ordered by incident number.
func (d *DB) AllIncidents() ([]Incident, error) {
	rows, err := d.db.Query(`
		SELECT INCIDENT_NUMBER, OFFENSE_DESCRIPTION, CRIME_CATEGORY, DISTRICT,
			YEAR, MONTH, DAY_OF_WEEK, Lat, Long
		FROM boston_crime
		ORDER BY INCIDENT_NUMBER`)
	if err != nil {
		return nil, fmt.Errorf("querying incidents: %w", err)
	}
	defer rows.Close()

	out := []Incident{}
	for rows.Next() {
		var (
			inc                     Incident
			category, district, day sql.NullString
			month                   sql.NullInt64
			lat, long               sql.NullFloat64
		)
		if err := rows.Scan(&inc.IncidentNumber, &inc.OffenseDescription, &category, &district,
			&inc.Year, &month, &day, &lat, &long); err != nil {
			return nil, err
		}
		inc.CrimeCategory = category.String
		inc.District = district.String
		inc.DayOfWeek = day.String
		if month.Valid {
			m := int(month.Int64)
			inc.Month = &m
		}
		if lat.Valid {
			inc.Lat = &lat.Float64
		}
		if long.Valid {
			inc.Long = &long.Float64
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// Count returns the number of incidents.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM boston_crime").Scan(&count)
	return count, err
}

// LastImport returns the time of the last successful ImportJSONL, or the
// zero time if nothing was imported yet.
func (d *DB) LastImport() (time.Time, error) {
	v, err := d.getMeta(metaLastImport)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

func (d *DB) getMeta(key string) (string, error) {
	var value sql.NullString
	err := d.db.QueryRow("SELECT value FROM _meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value.String, nil
}

func (d *DB) setMeta(key, value string) error {
	if _, err := d.db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// IncidentFromRecord converts a JSONL record into an Incident. Numeric fields
// may be JSON numbers or numeric strings; empty strings count as missing.
func IncidentFromRecord(rec store.Record) (Incident, error) {
	var inc Incident
	var err error

	if inc.IncidentNumber, err = requiredString(rec, "INCIDENT_NUMBER"); err != nil {
		return inc, err
	}
	if inc.OffenseDescription, err = requiredString(rec, "OFFENSE_DESCRIPTION"); err != nil {
		return inc, err
	}
	inc.CrimeCategory = optionalString(rec, "CRIME_CATEGORY")
	inc.District = optionalString(rec, "DISTRICT")
	inc.DayOfWeek = optionalString(rec, "DAY_OF_WEEK")

	year, err := optionalInt(rec, "YEAR")
	if err != nil {
		return inc, err
	}
	if year == nil {
		return inc, fmt.Errorf("%w: YEAR is required", ErrInvalidIncident)
	}
	inc.Year = *year

	if inc.Month, err = optionalInt(rec, "MONTH"); err != nil {
		return inc, err
	}
	if inc.Month != nil && (*inc.Month < 1 || *inc.Month > 12) {
		return inc, fmt.Errorf("%w: MONTH %d out of range", ErrInvalidIncident, *inc.Month)
	}
	if inc.Lat, err = optionalFloat(rec, "Lat"); err != nil {
		return inc, err
	}
	if inc.Long, err = optionalFloat(rec, "Long"); err != nil {
		return inc, err
	}
	return inc, nil
}

func requiredString(rec store.Record, field string) (string, error) {
	s := optionalString(rec, field)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidIncident, field)
	}
	return s, nil
}

func optionalString(rec store.Record, field string) string {
	switch v := rec[field].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func optionalInt(rec store.Record, field string) (*int, error) {
	var (
		n   int64
		err error
	)
	switch v := rec[field].(type) {
	case nil:
		return nil, nil
	case json.Number:
		n, err = v.Int64()
	case float64:
		n = int64(v)
		if float64(n) != v {
			err = fmt.Errorf("not an integer")
		}
	case int:
		n = int64(v)
	case int64:
		n = v
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		n, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		err = fmt.Errorf("unexpected type %T", v)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidIncident, field, err)
	}
	i := int(n)
	return &i, nil
}

func optionalFloat(rec store.Record, field string) (*float64, error) {
	var (
		f   float64
		err error
	)
	switch v := rec[field].(type) {
	case nil:
		return nil, nil
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("unexpected type %T", v)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidIncident, field, err)
	}
	return &f, nil
}
