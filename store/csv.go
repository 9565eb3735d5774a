// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the partition loader/writer collaborators on top
// of an embedded DuckDB instance: delimited-text ingestion, a partitioned
// parquet dataset on disk, and the in-memory point-subset reader that feeds
// the clustering stage.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/gridtrace/gridtrace/dataset"
)

// CSVSource chunks a delimited text file into fixed-size partitions without
// ever materializing the whole file. Chunk boundaries are a pure function of
// the row count and rowsPerPartition, so the split is deterministic.
type CSVSource struct {
	db       *sql.DB
	path     string
	schema   dataset.Schema
	rowsPer  int
	numRows  int
	numParts int
}

// OpenCSV declares the column types of a CSV file and plans its partitioning.
// The header row is required and column order must match the declared schema.
func OpenCSV(db *sql.DB, path string, schema dataset.Schema, rowsPerPartition int) (*CSVSource, error) {
	if rowsPerPartition <= 0 {
		return nil, fmt.Errorf("rows per partition must be positive (got %d)", rowsPerPartition)
	}

	if len(schema) == 0 {
		return nil, fmt.Errorf("source %s: no columns declared", path)
	}

	var numRows int
	err := db.QueryRow("SELECT COUNT(*) FROM " + readCSVExpr(path, schema)).Scan(&numRows)
	if err != nil {
		return nil, fmt.Errorf("counting rows of %s: %w", path, err)
	}

	numParts := (numRows + rowsPerPartition - 1) / rowsPerPartition
	if numParts == 0 {
		numParts = 1 // an empty source still has one (empty) partition
	}

	return &CSVSource{
		db:       db,
		path:     path,
		schema:   schema,
		rowsPer:  rowsPerPartition,
		numRows:  numRows,
		numParts: numParts,
	}, nil
}

// Schema returns the declared column types.
func (s *CSVSource) Schema() dataset.Schema {
	return s.schema
}

// NumRows returns the total row count of the source.
func (s *CSVSource) NumRows() int {
	return s.numRows
}

// NumPartitions implements dataset.Source.
func (s *CSVSource) NumPartitions() int {
	return s.numParts
}

// Partition implements dataset.Source. Each call rescans only the requested
// chunk of the file.
func (s *CSVSource) Partition(i int) (*dataset.Partition, error) {
	if i < 0 || i >= s.numParts {
		return nil, fmt.Errorf("partition %d out of range [0, %d)", i, s.numParts)
	}

	query := fmt.Sprintf(
		"SELECT * FROM %s LIMIT %d OFFSET %d",
		readCSVExpr(s.path, s.schema), s.rowsPer, i*s.rowsPer,
	)

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("reading %s partition %d: %w", s.path, i, err)
	}
	defer rows.Close()

	data, err := scanRows(rows, s.schema)
	if err != nil {
		return nil, fmt.Errorf("scanning %s partition %d: %w", s.path, i, err)
	}

	return &dataset.Partition{Index: i, Schema: s.schema, Rows: data}, nil
}

// readCSVExpr builds a read_csv table expression with explicit column types;
// auto-detection is disabled so malformed values fail loudly instead of
// being coerced.
func readCSVExpr(path string, schema dataset.Schema) string {
	cols := make([]string, len(schema))
	for i, f := range schema {
		cols[i] = fmt.Sprintf("'%s': '%s'", f.Name, duckType(f.Type))
	}

	return fmt.Sprintf(
		"read_csv(%s, header=true, auto_detect=false, columns={%s})",
		quoteLiteral(path), strings.Join(cols, ", "),
	)
}

// duckType maps a dataset column type to its DuckDB name.
func duckType(t dataset.Type) string {
	switch t {
	case dataset.Float64:
		return "DOUBLE"
	case dataset.Int64:
		return "BIGINT"
	case dataset.Varchar:
		return "VARCHAR"
	case dataset.Boolean:
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}

// quoteLiteral quotes a string for inline use in a DuckDB statement.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent quotes a column or table identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// scanRows drains a result set into typed row values matching the schema.
func scanRows(rows *sql.Rows, schema dataset.Schema) ([][]any, error) {
	var out [][]any

	holders := make([]any, len(schema))

	for rows.Next() {
		for j, f := range schema {
			switch f.Type {
			case dataset.Float64:
				holders[j] = new(float64)
			case dataset.Int64:
				holders[j] = new(int64)
			case dataset.Varchar:
				holders[j] = new(string)
			case dataset.Boolean:
				holders[j] = new(bool)
			}
		}

		if err := rows.Scan(holders...); err != nil {
			return nil, fmt.Errorf("row %d: %w", len(out), err)
		}

		row := make([]any, len(schema))

		for j, h := range holders {
			switch v := h.(type) {
			case *float64:
				row[j] = *v
			case *int64:
				row[j] = *v
			case *string:
				row[j] = *v
			case *bool:
				row[j] = *v
			}
		}

		out = append(out, row)
	}

	return out, rows.Err()
}
