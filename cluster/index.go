// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

// Package cluster recovers geographically coherent groups from a planar
// point set using DBSCAN over a uniform-grid spatial index.
package cluster

import (
	"math"

	"github.com/gridtrace/gridtrace/spatial"
)

type cellKey struct {
	x, y int32
}

// Index is a uniform-grid spatial index over an immutable planar point set.
// Buckets are keyed by floor(coordinate / cellSize); a radius query only
// inspects the bucket neighborhood covering the radius, so average query
// cost is proportional to local density rather than the total point count.
// Read-only after construction, safe for concurrent queries.
type Index struct {
	points   []spatial.GridPoint
	cellSize float64
	cells    map[cellKey][]int32
}

// NewIndex builds the index in a single pass. cellSize is normally the query
// radius the index will serve. Points with non-finite coordinates are not
// indexed; they can never lie within a finite radius of anything.
func NewIndex(points []spatial.GridPoint, cellSize float64) *Index {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		cellSize = 1
	}

	ix := &Index{
		points:   points,
		cellSize: cellSize,
		cells:    make(map[cellKey][]int32, len(points)),
	}

	for i, p := range points {
		if !finite(p) {
			continue
		}

		key := ix.cellOf(p)
		ix.cells[key] = append(ix.cells[key], int32(i))
	}

	return ix
}

// Size returns the number of indexed points, including non-finite ones.
func (ix *Index) Size() int {
	return len(ix.points)
}

// RangeQuery returns the indices of every point within Euclidean distance
// eps of p, boundary inclusive. Results come out in a deterministic order:
// bucket scan order is fixed and within a bucket insertion order is input
// order.
func (ix *Index) RangeQuery(p spatial.GridPoint, eps float64) []int {
	if !finite(p) || eps < 0 || math.IsNaN(eps) {
		return nil
	}

	center := ix.cellOf(p)
	reach := int32(math.Ceil(eps / ix.cellSize))
	eps2 := eps * eps

	var result []int

	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			bucket := ix.cells[cellKey{center.x + dx, center.y + dy}]
			for _, j := range bucket {
				q := ix.points[j]
				dn := q.Northing - p.Northing
				de := q.Easting - p.Easting

				if dn*dn+de*de <= eps2 {
					result = append(result, int(j))
				}
			}
		}
	}

	return result
}

func (ix *Index) cellOf(p spatial.GridPoint) cellKey {
	return cellKey{
		x: int32(math.Floor(p.Easting / ix.cellSize)),
		y: int32(math.Floor(p.Northing / ix.cellSize)),
	}
}

func finite(p spatial.GridPoint) bool {
	return !math.IsNaN(p.Northing) && !math.IsInf(p.Northing, 0) &&
		!math.IsNaN(p.Easting) && !math.IsInf(p.Easting, 0)
}
