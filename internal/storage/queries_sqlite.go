package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// AllCrimes is the crime-type selector that disables type filtering.
const AllCrimes = "All Crimes"

// Default limits used by the dashboard panels.
const (
	DefaultTopCrimesLimit    = 10
	DefaultTopDistrictsLimit = 5
)

// Weekdays lists the days of the week in dashboard order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// LabelCount is a label with its incident count.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"crime_count"`
}

// MonthCount is the incident count for one month of one year.
type MonthCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"crime_count"`
}

// YearCount is the incident count for one year.
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"crime_count"`
}

// CategoryShare compares one category against every other crime in a year.
type CategoryShare struct {
	Year     int   `json:"year"`
	Selected int64 `json:"selected"`
	Other    int64 `json:"other"`
}

// Location is the position of one incident.
type Location struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// TopCrimes returns the most frequent offense descriptions (lower-cased).
// A zero year covers every year.
func (d *DB) TopCrimes(year, limit int) ([]LabelCount, error) {
	if limit <= 0 {
		limit = DefaultTopCrimesLimit
	}

	query := `SELECT LOWER(OFFENSE_DESCRIPTION) AS crime, COUNT(*) AS crime_count FROM boston_crime`
	var args []any
	if year != 0 {
		query += ` WHERE YEAR = ?`
		args = append(args, year)
	}
	query += ` GROUP BY crime ORDER BY crime_count DESC, crime ASC LIMIT ?`
	args = append(args, limit)

	return d.queryLabelCounts(query, args...)
}

// TopDistricts returns the districts with the most incidents in a year.
func (d *DB) TopDistricts(year, limit int) ([]LabelCount, error) {
	if limit <= 0 {
		limit = DefaultTopDistrictsLimit
	}
	return d.queryLabelCounts(`
		SELECT DISTRICT, crime_count
		FROM crime_count_by_district_year
		WHERE YEAR = ?
		ORDER BY crime_count DESC, DISTRICT ASC
		LIMIT ?`, year, limit)
}

// CrimeByDayOfWeek returns one entry per weekday, Monday first, with zero
// counts for days that have no incidents.
func (d *DB) CrimeByDayOfWeek(year int) ([]LabelCount, error) {
	counts, err := d.queryLabelCounts(`
		SELECT LOWER(TRIM(DAY_OF_WEEK)) AS day, COUNT(*) AS crime_count
		FROM boston_crime
		WHERE YEAR = ? AND DAY_OF_WEEK IS NOT NULL
		GROUP BY day`, year)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Label] = c.Count
	}

	out := make([]LabelCount, len(Weekdays))
	for i, day := range Weekdays {
		out[i] = LabelCount{Label: day, Count: byDay[day]}
	}
	return out, nil
}

// CrimeByMonth returns incident counts per (year, month) across all years.
// Incidents without a month are left out.
func (d *DB) CrimeByMonth() ([]MonthCount, error) {
	rows, err := d.db.Query(`
		SELECT YEAR, MONTH, COUNT(*) AS crime_count
		FROM boston_crime
		WHERE MONTH IS NOT NULL
		GROUP BY YEAR, MONTH
		ORDER BY YEAR, MONTH`)
	if err != nil {
		return nil, fmt.Errorf("querying monthly counts: %w", err)
	}
	defer rows.Close()

	out := []MonthCount{}
	for rows.Next() {
		var m MonthCount
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MonthlyTrend returns CrimeByMonth restricted to one year.
func (d *DB) MonthlyTrend(year int) ([]MonthCount, error) {
	all, err := d.CrimeByMonth()
	if err != nil {
		return nil, err
	}
	out := []MonthCount{}
	for _, m := range all {
		if m.Year == year {
			out = append(out, m)
		}
	}
	return out, nil
}

// CategoryProportions returns, per year, the count of one category and the
// count of every other crime.
func (d *DB) CategoryProportions(category string) ([]CategoryShare, error) {
	rows, err := d.db.Query(`
		SELECT
			YEAR,
			SUM(CASE WHEN CRIME_CATEGORY = ? THEN crime_count ELSE 0 END) AS selected,
			SUM(crime_count) AS total
		FROM crime_category_counts
		WHERE YEAR IS NOT NULL
		GROUP BY YEAR
		ORDER BY YEAR`, category)
	if err != nil {
		return nil, fmt.Errorf("querying category proportions: %w", err)
	}
	defer rows.Close()

	out := []CategoryShare{}
	for rows.Next() {
		var (
			s     CategoryShare
			total int64
		)
		if err := rows.Scan(&s.Year, &s.Selected, &total); err != nil {
			return nil, err
		}
		s.Other = total - s.Selected
		out = append(out, s)
	}
	return out, rows.Err()
}

// CategoryTrend returns the yearly count of one category.
func (d *DB) CategoryTrend(category string) ([]YearCount, error) {
	rows, err := d.db.Query(`
		SELECT YEAR, SUM(crime_count)
		FROM crime_category_counts
		WHERE CRIME_CATEGORY = ?
		GROUP BY YEAR
		ORDER BY YEAR ASC`, category)
	if err != nil {
		return nil, fmt.Errorf("querying category trend: %w", err)
	}
	defer rows.Close()

	out := []YearCount{}
	for rows.Next() {
		var y YearCount
		if err := rows.Scan(&y.Year, &y.Count); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// CrimeLocations returns the coordinates of incidents in a year. crimeType
// filters by offense description (case-insensitive) unless it is empty or
// AllCrimes.
func (d *DB) CrimeLocations(year int, crimeType string) ([]Location, error) {
	query := `
		SELECT Lat, Long
		FROM boston_crime
		WHERE YEAR = ?
		AND Lat IS NOT NULL
		AND Long IS NOT NULL`
	args := []any{year}

	if crimeType != "" && crimeType != AllCrimes {
		query += ` AND LOWER(OFFENSE_DESCRIPTION) = LOWER(?)`
		args = append(args, crimeType)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	out := []Location{}
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.Lat, &l.Long); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Categories returns the distinct crime categories in ascending order.
func (d *DB) Categories() ([]string, error) {
	return d.queryStrings(`SELECT DISTINCT CRIME_CATEGORY FROM crime_category_counts ORDER BY CRIME_CATEGORY ASC`)
}

// CrimeTypes returns the distinct lower-cased offense descriptions, with
// AllCrimes first for use as a selector.
func (d *DB) CrimeTypes() ([]string, error) {
	types, err := d.queryStrings(`
		SELECT DISTINCT LOWER(OFFENSE_DESCRIPTION) AS crime
		FROM boston_crime
		WHERE OFFENSE_DESCRIPTION IS NOT NULL
		ORDER BY crime ASC`)
	if err != nil {
		return nil, err
	}
	return append([]string{AllCrimes}, types...), nil
}

// queryLabelCounts runs a two-column (label, count) query.
func (d *DB) queryLabelCounts(query string, args ...any) ([]LabelCount, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	out := []LabelCount{}
	for rows.Next() {
		var (
			label sql.NullString
			c     LabelCount
		)
		if err := rows.Scan(&label, &c.Count); err != nil {
			return nil, err
		}
		c.Label = strings.TrimSpace(label.String)
		out = append(out, c)
	}
	return out, rows.Err()
}

// queryStrings runs a single-column query, skipping NULLs.
func (d *DB) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s sql.NullString
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if s.Valid {
			out = append(out, s.String)
		}
	}
	return out, rows.Err()
}
