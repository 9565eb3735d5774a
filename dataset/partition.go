// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset models an out-of-core tabular dataset as an ordered
// sequence of independently-loadable partitions, and provides the
// partition-parallel map executor that transforms them.
package dataset

import "fmt"

// Partition is an ordered batch of rows sharing one schema. It is the unit
// of parallelism: a partition owns no state outside itself, so transforms on
// different partitions never interact.
type Partition struct {
	Index  int
	Schema Schema
	Rows   [][]any
}

// NumRows returns the number of rows in the partition.
func (p *Partition) NumRows() int {
	return len(p.Rows)
}

// Source is a lazily-loadable ordered sequence of partitions. Implementations
// must return the same partition content for repeated calls with the same
// index, so a failed transform can be retried safely.
type Source interface {
	// NumPartitions returns the fixed partition count.
	NumPartitions() int

	// Partition materializes the i-th partition. Partitions are addressed
	// independently; loading one must not disturb another.
	Partition(i int) (*Partition, error)
}

// Dataset is a fully materialized partitioned dataset. Row order within a
// partition is meaningful; relative order across partitions is not.
type Dataset struct {
	Schema     Schema
	Partitions []*Partition
}

// NumPartitions implements Source.
func (d *Dataset) NumPartitions() int {
	return len(d.Partitions)
}

// Partition implements Source.
func (d *Dataset) Partition(i int) (*Partition, error) {
	if i < 0 || i >= len(d.Partitions) {
		return nil, fmt.Errorf("partition %d out of range [0, %d)", i, len(d.Partitions))
	}

	return d.Partitions[i], nil
}

// NumRows returns the total row count across all partitions.
func (d *Dataset) NumRows() int {
	var n int
	for _, p := range d.Partitions {
		n += len(p.Rows)
	}

	return n
}

// Collect concatenates every partition's rows in partition order. Intended
// for tests and small result sets, not for out-of-core data.
func (d *Dataset) Collect() [][]any {
	rows := make([][]any, 0, d.NumRows())
	for _, p := range d.Partitions {
		rows = append(rows, p.Rows...)
	}

	return rows
}
