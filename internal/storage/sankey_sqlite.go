package storage

import (
	"fmt"

	"github.com/matsen/crimedash/internal/sankey"
	"github.com/matsen/crimedash/internal/store"
)

// Column names of the rows returned by SankeyRows.
const (
	FieldYear          = "Year"
	FieldDistrict      = "District"
	FieldCrimeCategory = "Crime_Category"
	FieldCrimeCount    = "Crime_Count"
)

// Defaults for the district/year/category flow diagram.
const (
	DefaultStartYear = 2020
	DefaultEndYear   = 2025
	DefaultTopN      = 3
)

// DefaultSankeyLayers is the layer order of the dashboard flow diagram.
var DefaultSankeyLayers = []string{FieldDistrict, FieldYear, FieldCrimeCategory}

// SankeyQuery selects the rows and layers of a flow diagram.
type SankeyQuery struct {
	StartYear       int
	EndYear         int
	TopN            int      // categories kept per (year, district)
	Layers          []string // defaults to DefaultSankeyLayers
	ValueField      string   // defaults to FieldCrimeCount
	NamespaceLayers bool
}

// WithDefaults returns q with zero fields set to the package defaults.
func (q SankeyQuery) WithDefaults() SankeyQuery {
	if q.StartYear == 0 {
		q.StartYear = DefaultStartYear
	}
	if q.EndYear == 0 {
		q.EndYear = DefaultEndYear
	}
	if q.TopN <= 0 {
		q.TopN = DefaultTopN
	}
	if len(q.Layers) == 0 {
		q.Layers = DefaultSankeyLayers
	}
	if q.ValueField == "" {
		q.ValueField = FieldCrimeCount
	}
	return q
}

// SankeyRows returns the topN crime categories per (year, district) for the
// years in [startYear, endYear], ranked by incident count. Ties share a rank,
// so a group may return more than topN rows. Incidents without a district or
// category are excluded, which keeps null labels out of the flow graph.
func (d *DB) SankeyRows(startYear, endYear, topN int) ([]store.Record, error) {
	if startYear > endYear {
		return nil, fmt.Errorf("start year %d is after end year %d", startYear, endYear)
	}

	return d.Query(`
		WITH ranked AS (
			SELECT
				YEAR AS Year,
				DISTRICT AS District,
				CRIME_CATEGORY AS Crime_Category,
				COUNT(*) AS Crime_Count,
				RANK() OVER (
					PARTITION BY YEAR, DISTRICT
					ORDER BY COUNT(*) DESC
				) AS rnk
			FROM boston_crime
			WHERE DISTRICT IS NOT NULL AND DISTRICT != ''
			AND CRIME_CATEGORY IS NOT NULL AND CRIME_CATEGORY != ''
			AND YEAR BETWEEN ? AND ?
			GROUP BY YEAR, DISTRICT, CRIME_CATEGORY
		)
		SELECT Year, District, Crime_Category, Crime_Count
		FROM ranked
		WHERE rnk <= ?
		ORDER BY Year DESC, District, Crime_Count DESC, Crime_Category`,
		startYear, endYear, topN)
}

// SankeyGraph runs SankeyRows for q and builds the flow graph from them.
func (d *DB) SankeyGraph(q SankeyQuery) (*sankey.Graph, error) {
	q = q.WithDefaults()

	rows, err := d.SankeyRows(q.StartYear, q.EndYear, q.TopN)
	if err != nil {
		return nil, fmt.Errorf("fetching sankey rows: %w", err)
	}

	g, err := sankey.BuildWithOptions(rows, q.Layers, q.ValueField, sankey.Options{NamespaceLayers: q.NamespaceLayers})
	if err != nil {
		return nil, fmt.Errorf("building flow graph: %w", err)
	}
	return g, nil
}
