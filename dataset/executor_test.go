// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	{Name: "id", Type: Int64},
	{Name: "value", Type: Float64},
}

func testDataset(k int, rowsPer int) *Dataset {
	ds := &Dataset{Schema: testSchema}
	id := int64(0)

	for i := 0; i < k; i++ {
		p := &Partition{Index: i, Schema: testSchema}
		for j := 0; j < rowsPer; j++ {
			p.Rows = append(p.Rows, []any{id, float64(id) / 2})
			id++
		}

		ds.Partitions = append(ds.Partitions, p)
	}

	return ds
}

// doubleValue is a representative pure transform: same schema, value column
// doubled.
func doubleValue(p *Partition) (*Partition, error) {
	rows := make([][]any, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = []any{row[0], row[1].(float64) * 2}
	}

	return &Partition{Index: p.Index, Schema: p.Schema, Rows: rows}, nil
}

func TestMapPartitionsPreservesCountAndOrder(t *testing.T) {
	ds := testDataset(4, 3)

	out, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema, MaxProcs: 4})
	require.NoError(t, err)
	require.Equal(t, 4, out.NumPartitions())

	for pi, p := range out.Partitions {
		require.NotNil(t, p, "partition %d missing", pi)
		assert.Equal(t, pi, p.Index)
		require.Len(t, p.Rows, 3)

		for ri, row := range p.Rows {
			in := ds.Partitions[pi].Rows[ri]
			assert.Equal(t, in[0], row[0], "partition %d row %d reordered", pi, ri)
			assert.Equal(t, in[1].(float64)*2, row[1])
		}
	}
}

func TestMapPartitionsSingleWorkerMatchesParallel(t *testing.T) {
	ds := testDataset(5, 4)

	serial, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema, MaxProcs: 1})
	require.NoError(t, err)

	parallel, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema, MaxProcs: 8})
	require.NoError(t, err)

	if diff := cmp.Diff(serial.Collect(), parallel.Collect()); diff != "" {
		t.Errorf("worker count changed output (-serial +parallel):\n%s", diff)
	}
}

func TestMapPartitionsInfersSchemaByProbing(t *testing.T) {
	ds := testDataset(3, 2)

	extended := append(testSchema.Clone(), Field{Name: "flag", Type: Boolean})

	fn := func(p *Partition) (*Partition, error) {
		rows := make([][]any, len(p.Rows))
		for i, row := range p.Rows {
			rows[i] = append(append([]any{}, row...), true)
		}

		return &Partition{Schema: extended, Rows: rows}, nil
	}

	out, err := MapPartitions(ds, fn, nil)
	require.NoError(t, err)
	assert.True(t, out.Schema.Equal(extended))
	assert.Equal(t, 6, out.NumRows())
}

func TestMapPartitionsSchemaMismatchIsFatal(t *testing.T) {
	ds := testDataset(3, 1)

	// Partition 1 sprouts an extra column the others don't have.
	fn := func(p *Partition) (*Partition, error) {
		if p.Index == 1 {
			schema := append(p.Schema.Clone(), Field{Name: "extra", Type: Varchar})
			rows := [][]any{append(append([]any{}, p.Rows[0]...), "x")}

			return &Partition{Schema: schema, Rows: rows}, nil
		}

		return doubleValue(p)
	}

	_, err := MapPartitions(ds, fn, &MapOptions{MaxProcs: 1})
	require.Error(t, err)
	assert.ErrorContains(t, err, "partition 1")
	assert.ErrorContains(t, err, "schema mismatch")
	assert.ErrorContains(t, err, "column count")
}

func TestMapPartitionsDeclaredSchemaMismatch(t *testing.T) {
	ds := testDataset(2, 1)

	declared := Schema{{Name: "id", Type: Int64}, {Name: "value", Type: Varchar}}

	_, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: declared, MaxProcs: 1})
	require.Error(t, err)
	assert.ErrorContains(t, err, "schema mismatch")
	assert.ErrorContains(t, err, "value varchar vs value double")
}

func TestMapPartitionsTransformErrorCarriesPartition(t *testing.T) {
	ds := testDataset(4, 1)

	boom := errors.New("bad row encoding")
	fn := func(p *Partition) (*Partition, error) {
		if p.Index == 2 {
			return nil, boom
		}

		return doubleValue(p)
	}

	_, err := MapPartitions(ds, fn, &MapOptions{Schema: testSchema, MaxProcs: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "transforming partition 2")
}

func TestMapPartitionsNilOutput(t *testing.T) {
	ds := testDataset(1, 1)

	fn := func(_ *Partition) (*Partition, error) { return nil, nil }

	_, err := MapPartitions(ds, fn, &MapOptions{Schema: testSchema})
	assert.ErrorContains(t, err, "transform returned no partition")
}

func TestMapPartitionsEmptyDataset(t *testing.T) {
	ds := &Dataset{Schema: testSchema}

	out, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema})
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumPartitions())
}

func TestMapPartitionsEmptyPartition(t *testing.T) {
	ds := testDataset(1, 0)

	out, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema})
	require.NoError(t, err)
	require.Equal(t, 1, out.NumPartitions())
	assert.Equal(t, 0, out.Partitions[0].NumRows())
}

func TestMapPartitionsIsRetrySafe(t *testing.T) {
	// A pure transform re-executed over the same source yields identical
	// output; the executor never mutates the input partitions.
	ds := testDataset(3, 2)

	before := fmt.Sprintf("%v", ds.Collect())

	first, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema})
	require.NoError(t, err)

	second, err := MapPartitions(ds, doubleValue, &MapOptions{Schema: testSchema})
	require.NoError(t, err)

	assert.Equal(t, before, fmt.Sprintf("%v", ds.Collect()))

	if diff := cmp.Diff(first.Collect(), second.Collect()); diff != "" {
		t.Errorf("re-execution mismatch (-first +second):\n%s", diff)
	}
}

func TestDatasetPartitionOutOfRange(t *testing.T) {
	ds := testDataset(2, 1)

	_, err := ds.Partition(2)
	assert.ErrorContains(t, err, "out of range")

	_, err = ds.Partition(-1)
	assert.Error(t, err)
}
