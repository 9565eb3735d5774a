// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridtrace/gridtrace/dataset"
)

const manifestFile = "manifest.json"

// manifest is the recoverable descriptor written next to the partition files.
type manifest struct {
	Schema     []manifestField `json:"schema"`
	Partitions []manifestPart  `json:"partitions"`
}

type manifestField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type manifestPart struct {
	File string `json:"file"`
	Rows int    `json:"rows"`
}

// ParquetStore reads and writes partitioned datasets as a directory of
// parquet files plus a JSON manifest.
type ParquetStore struct {
	db *sql.DB
}

// NewParquetStore creates a parquet store backed by the given DuckDB handle.
func NewParquetStore(db *sql.DB) *ParquetStore {
	return &ParquetStore{db: db}
}

// partFileName names the i-th partition file.
func partFileName(i int) string {
	return fmt.Sprintf("part-%05d.parquet", i)
}

// Write persists every partition of src under dir, one parquet file per
// partition, and finishes with the manifest. Partitions are written
// sequentially; each file is only referenced by the manifest after it has
// been fully written, so a crashed run never leaves a readable-but-corrupt
// dataset behind.
func (s *ParquetStore) Write(src dataset.Source, dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("setting up dataset directory: %w", err)
	}

	n := src.NumPartitions()
	m := manifest{Partitions: make([]manifestPart, 0, n)}

	var schema dataset.Schema

	for i := 0; i < n; i++ {
		p, err := src.Partition(i)
		if err != nil {
			return fmt.Errorf("loading partition %d: %w", i, err)
		}

		if schema == nil {
			schema = p.Schema
			for _, f := range schema {
				m.Schema = append(m.Schema, manifestField{Name: f.Name, Type: f.Type.String()})
			}
		} else if !schema.Equal(p.Schema) {
			return fmt.Errorf("partition %d: schema mismatch: %s", i, schema.Diff(p.Schema))
		}

		file := partFileName(i)
		if err := s.writePartition(p, filepath.Join(dir, file)); err != nil {
			return fmt.Errorf("writing partition %d: %w", i, err)
		}

		m.Partitions = append(m.Partitions, manifestPart{File: file, Rows: len(p.Rows)})
	}

	output, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestFile), output, 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// writePartition stages the rows in a temp table and COPYs them out as
// parquet. Everything runs on one pooled connection so the temp table is
// visible to the COPY.
func (s *ParquetStore) writePartition(p *dataset.Partition, path string) (err error) {
	ctx := context.Background()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("releasing connection: %w", cerr))
		}
	}()

	cols := make([]string, len(p.Schema))
	placeholders := make([]string, len(p.Schema))

	for i, f := range p.Schema {
		cols[i] = quoteIdent(f.Name) + " " + duckType(f.Type)
		placeholders[i] = "?"
	}

	table := fmt.Sprintf("staging_part_%d", p.Index)

	_, err = conn.ExecContext(ctx, fmt.Sprintf(
		"CREATE OR REPLACE TEMP TABLE %s (%s)",
		table, strings.Join(cols, ", "),
	))
	if err != nil {
		return fmt.Errorf("creating staging table: %w", err)
	}

	defer func() {
		if _, derr := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); derr != nil {
			err = errors.Join(err, fmt.Errorf("dropping staging table: %w", derr))
		}
	}()

	stmt, err := conn.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)",
		table, strings.Join(placeholders, ", "),
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range p.Rows {
		if len(row) != len(p.Schema) {
			return fmt.Errorf("row %d: %d values for %d columns", i, len(row), len(p.Schema))
		}

		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	_, err = conn.ExecContext(ctx, fmt.Sprintf(
		"COPY (SELECT * FROM %s) TO %s (FORMAT PARQUET)",
		table, quoteLiteral(path),
	))
	if err != nil {
		return fmt.Errorf("copying to parquet: %w", err)
	}

	return err
}

// ParquetSource lazily reads the partitions of a written dataset back.
type ParquetSource struct {
	db     *sql.DB
	dir    string
	schema dataset.Schema
	parts  []manifestPart
}

// Open loads the manifest of a previously written dataset and returns a lazy
// source over its partitions.
func (s *ParquetStore) Open(dir string) (*ParquetSource, error) {
	data, err := os.ReadFile(filepath.Clean(filepath.Join(dir, manifestFile)))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	schema := make(dataset.Schema, 0, len(m.Schema))

	for _, f := range m.Schema {
		t, err := dataset.ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("manifest column %q: %w", f.Name, err)
		}

		schema = append(schema, dataset.Field{Name: f.Name, Type: t})
	}

	return &ParquetSource{db: s.db, dir: dir, schema: schema, parts: m.Partitions}, nil
}

// Schema returns the dataset schema recorded in the manifest.
func (s *ParquetSource) Schema() dataset.Schema {
	return s.schema
}

// NumPartitions implements dataset.Source.
func (s *ParquetSource) NumPartitions() int {
	return len(s.parts)
}

// Partition implements dataset.Source.
func (s *ParquetSource) Partition(i int) (*dataset.Partition, error) {
	if i < 0 || i >= len(s.parts) {
		return nil, fmt.Errorf("partition %d out of range [0, %d)", i, len(s.parts))
	}

	path := filepath.Join(s.dir, s.parts[i].File)

	rows, err := s.db.Query("SELECT * FROM read_parquet(" + quoteLiteral(path) + ")")
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer rows.Close()

	data, err := scanRows(rows, s.schema)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	return &dataset.Partition{Index: i, Schema: s.schema, Rows: data}, nil
}
