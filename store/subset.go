// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"path/filepath"

	"github.com/gridtrace/gridtrace/spatial"
)

// ColumnBindings names the dataset columns carrying coordinates. All four
// must be present in the written dataset.
type ColumnBindings struct {
	Lat      string
	Lng      string
	Northing string
	Easting  string
}

// DefaultBindings matches the column names produced by the transform stage
// over the canonical input layout.
var DefaultBindings = ColumnBindings{
	Lat:      "lat",
	Lng:      "long",
	Northing: "northing",
	Easting:  "easting",
}

// SubsetPoint is one row of the filtered subset, re-indexed contiguously
// from zero. It carries both coordinate systems: the grid pair drives
// clustering, the geodetic pair drives reporting.
type SubsetPoint struct {
	ID   int                   `json:"id"`
	Geo  spatial.GeodeticPoint `json:"geo"`
	Grid spatial.GridPoint     `json:"grid"`
}

// SubsetPoints reads back every row of the dataset in dir whose filterColumn
// equals filterValue, as a single in-memory point set. Unlike the map stage
// this deliberately materializes: the clustering pass needs random access to
// the whole subset.
func (s *ParquetStore) SubsetPoints(dir, filterColumn string, filterValue int64, b ColumnBindings) ([]SubsetPoint, error) {
	src, err := s.Open(dir)
	if err != nil {
		return nil, err
	}

	for _, col := range []string{b.Lat, b.Lng, b.Northing, b.Easting, filterColumn} {
		if src.schema.Index(col) < 0 {
			return nil, fmt.Errorf("dataset %s has no column %q (schema: %s)", dir, col, src.schema)
		}
	}

	glob := filepath.Join(dir, "part-*.parquet")

	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM read_parquet(%s) WHERE %s = ?",
		quoteIdent(b.Lat), quoteIdent(b.Lng),
		quoteIdent(b.Northing), quoteIdent(b.Easting),
		quoteLiteral(glob), quoteIdent(filterColumn),
	)

	rows, err := s.db.Query(query, filterValue)
	if err != nil {
		return nil, fmt.Errorf("reading subset from %s: %w", dir, err)
	}
	defer rows.Close()

	var points []SubsetPoint

	for rows.Next() {
		p := SubsetPoint{ID: len(points)}

		err = rows.Scan(&p.Geo.Lat, &p.Geo.Lng, &p.Grid.Northing, &p.Grid.Easting)
		if err != nil {
			return nil, fmt.Errorf("scanning subset row %d: %w", len(points), err)
		}

		points = append(points, p)
	}

	return points, rows.Err()
}
