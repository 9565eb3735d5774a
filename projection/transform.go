// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package projection

import (
	"fmt"

	"github.com/gridtrace/gridtrace/dataset"
	"github.com/gridtrace/gridtrace/spatial"
)

// Output column names appended by the transform stage.
const (
	NorthingColumn = "northing"
	EastingColumn  = "easting"
)

// Transform builds the per-partition map that projects the latitude and
// longitude columns of every row and appends northing/easting columns. The
// output schema is declared statically up front (input columns plus the two
// grid columns) rather than inferred from a trial run.
func Transform(params Parameters, schema dataset.Schema, latColumn, lngColumn string, inDegrees bool) (dataset.MapFunc, dataset.Schema, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	latIdx := schema.Index(latColumn)
	if latIdx < 0 {
		return nil, nil, fmt.Errorf("latitude column %q not in schema (%s)", latColumn, schema)
	}

	lngIdx := schema.Index(lngColumn)
	if lngIdx < 0 {
		return nil, nil, fmt.Errorf("longitude column %q not in schema (%s)", lngColumn, schema)
	}

	for _, name := range []string{NorthingColumn, EastingColumn} {
		if schema.Index(name) >= 0 {
			return nil, nil, fmt.Errorf("schema already has a %q column", name)
		}
	}

	outSchema := append(schema.Clone(),
		dataset.Field{Name: NorthingColumn, Type: dataset.Float64},
		dataset.Field{Name: EastingColumn, Type: dataset.Float64},
	)

	fn := func(p *dataset.Partition) (*dataset.Partition, error) {
		points := make([]spatial.GeodeticPoint, len(p.Rows))

		for i, row := range p.Rows {
			lat, err := asFloat(row[latIdx])
			if err != nil {
				return nil, fmt.Errorf("row %d: latitude: %w", i, err)
			}

			lng, err := asFloat(row[lngIdx])
			if err != nil {
				return nil, fmt.Errorf("row %d: longitude: %w", i, err)
			}

			points[i] = spatial.GeodeticPoint{Lat: lat, Lng: lng}
		}

		grid := Project(points, params, inDegrees)

		rows := make([][]any, len(p.Rows))
		for i, row := range p.Rows {
			out := make([]any, 0, len(row)+2)
			out = append(out, row...)
			out = append(out, grid[i].Northing, grid[i].Easting)
			rows[i] = out
		}

		return &dataset.Partition{Index: p.Index, Schema: outSchema, Rows: rows}, nil
	}

	return fn, outSchema, nil
}

// asFloat widens the numeric column types; anything else is a malformed row.
func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected a numeric value, got %T", v)
	}
}
