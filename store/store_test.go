// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/gridtrace/gridtrace/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csvSchema = dataset.Schema{
	{Name: "id", Type: dataset.Int64},
	{Name: "lat", Type: dataset.Float64},
	{Name: "long", Type: dataset.Float64},
	{Name: "infected", Type: dataset.Int64},
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

func writeTestCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "people.csv")
	content := `id,lat,long,infected
0,51.5074,-0.1278,1
1,55.9533,-3.1883,0
2,49.0,-2.0,1
3,52.2053,0.1218,0
4,53.4808,-2.2426,1
5,50.7184,-3.5339,0
6,51.4545,-2.5879,1
`

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestOpenCSVPlansPartitions(t *testing.T) {
	db := setupTestDB(t)

	src, err := OpenCSV(db, writeTestCSV(t), csvSchema, 3)
	require.NoError(t, err)

	assert.Equal(t, 7, src.NumRows())
	assert.Equal(t, 3, src.NumPartitions())

	sizes := []int{3, 3, 1}
	for i, want := range sizes {
		p, err := src.Partition(i)
		require.NoError(t, err)
		assert.Equal(t, i, p.Index)
		assert.Len(t, p.Rows, want, "partition %d", i)
	}
}

func TestCSVPartitionContentAndTypes(t *testing.T) {
	db := setupTestDB(t)

	src, err := OpenCSV(db, writeTestCSV(t), csvSchema, 100)
	require.NoError(t, err)
	require.Equal(t, 1, src.NumPartitions())

	p, err := src.Partition(0)
	require.NoError(t, err)
	require.Len(t, p.Rows, 7)

	assert.Equal(t, []any{int64(0), 51.5074, -0.1278, int64(1)}, p.Rows[0])
	assert.Equal(t, []any{int64(6), 51.4545, -2.5879, int64(1)}, p.Rows[6])
}

func TestCSVChunkingIsDeterministic(t *testing.T) {
	db := setupTestDB(t)

	src, err := OpenCSV(db, writeTestCSV(t), csvSchema, 2)
	require.NoError(t, err)

	first, err := src.Partition(1)
	require.NoError(t, err)

	second, err := src.Partition(1)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Rows, second.Rows); diff != "" {
		t.Errorf("repeated partition load mismatch (-first +second):\n%s", diff)
	}
}

func TestOpenCSVValidation(t *testing.T) {
	db := setupTestDB(t)
	path := writeTestCSV(t)

	_, err := OpenCSV(db, path, csvSchema, 0)
	assert.ErrorContains(t, err, "rows per partition")

	_, err = OpenCSV(db, path, nil, 10)
	assert.ErrorContains(t, err, "no columns declared")

	_, err = OpenCSV(db, filepath.Join(t.TempDir(), "missing.csv"), csvSchema, 10)
	assert.Error(t, err)
}

func TestOpenCSVEmptyFile(t *testing.T) {
	db := setupTestDB(t)

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,lat,long,infected\n"), 0o600))

	src, err := OpenCSV(db, path, csvSchema, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, src.NumRows())
	assert.Equal(t, 1, src.NumPartitions())

	p, err := src.Partition(0)
	require.NoError(t, err)
	assert.Empty(t, p.Rows)
}

func projectedDataset() *dataset.Dataset {
	schema := append(csvSchema.Clone(),
		dataset.Field{Name: "northing", Type: dataset.Float64},
		dataset.Field{Name: "easting", Type: dataset.Float64},
	)

	return &dataset.Dataset{
		Schema: schema,
		Partitions: []*dataset.Partition{
			{
				Index:  0,
				Schema: schema,
				Rows: [][]any{
					{int64(0), 51.5074, -0.1278, int64(1), 180000.25, 530000.5},
					{int64(1), 55.9533, -3.1883, int64(0), 673000.0, 325000.0},
				},
			},
			{
				Index:  1,
				Schema: schema,
				Rows: [][]any{
					{int64(2), 49.0, -2.0, int64(1), -100000.0, 400000.0},
				},
			},
		},
	}
}

func TestParquetRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewParquetStore(db)
	dir := filepath.Join(t.TempDir(), "out")

	ds := projectedDataset()
	require.NoError(t, store.Write(ds, dir))

	// The manifest and one file per partition must exist.
	_, err := os.Stat(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "part-00000.parquet"))
	require.NoError(t, err)

	src, err := store.Open(dir)
	require.NoError(t, err)
	require.Equal(t, 2, src.NumPartitions())
	assert.True(t, ds.Schema.Equal(src.Schema()))

	for i := range ds.Partitions {
		p, err := src.Partition(i)
		require.NoError(t, err)

		if diff := cmp.Diff(ds.Partitions[i].Rows, p.Rows); diff != "" {
			t.Errorf("partition %d mismatch (-written +read):\n%s", i, diff)
		}
	}
}

func TestParquetWriteEmptyPartition(t *testing.T) {
	db := setupTestDB(t)
	store := NewParquetStore(db)
	dir := filepath.Join(t.TempDir(), "out")

	ds := &dataset.Dataset{
		Schema: csvSchema,
		Partitions: []*dataset.Partition{
			{Index: 0, Schema: csvSchema, Rows: nil},
		},
	}

	require.NoError(t, store.Write(ds, dir))

	src, err := store.Open(dir)
	require.NoError(t, err)

	p, err := src.Partition(0)
	require.NoError(t, err)
	assert.Empty(t, p.Rows)
}

func TestParquetOpenMissingManifest(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewParquetStore(db).Open(t.TempDir())
	assert.ErrorContains(t, err, "reading manifest")
}

func TestSubsetPoints(t *testing.T) {
	db := setupTestDB(t)
	store := NewParquetStore(db)
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, store.Write(projectedDataset(), dir))

	points, err := store.SubsetPoints(dir, "infected", 1, DefaultBindings)
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Re-indexed ids are contiguous from zero regardless of source row ids.
	assert.Equal(t, 0, points[0].ID)
	assert.Equal(t, 1, points[1].ID)

	assert.InDelta(t, 51.5074, points[0].Geo.Lat, 1e-9)
	assert.InDelta(t, 180000.25, points[0].Grid.Northing, 1e-9)
	assert.InDelta(t, -100000.0, points[1].Grid.Northing, 1e-9)
}

func TestSubsetPointsMissingColumn(t *testing.T) {
	db := setupTestDB(t)
	store := NewParquetStore(db)
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, store.Write(projectedDataset(), dir))

	_, err := store.SubsetPoints(dir, "quarantined", 1, DefaultBindings)
	assert.ErrorContains(t, err, `no column "quarantined"`)
}

func TestSubsetPointsNoMatches(t *testing.T) {
	db := setupTestDB(t)
	store := NewParquetStore(db)
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, store.Write(projectedDataset(), dir))

	points, err := store.SubsetPoints(dir, "infected", 7, DefaultBindings)
	require.NoError(t, err)
	assert.Empty(t, points)
}
