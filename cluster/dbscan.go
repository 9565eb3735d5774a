// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"fmt"
	"math"

	"github.com/gridtrace/gridtrace/spatial"
)

// Noise is the label of a point that belongs to no cluster.
const Noise = -1

// Points start unvisited; -1 marks noise and ids >= 0 mark membership.
const unvisited = -2

// LabeledPoint pairs a grid coordinate with its cluster assignment.
type LabeledPoint struct {
	Grid      spatial.GridPoint `json:"grid"`
	ClusterID int               `json:"cluster_id"`
}

// DBSCAN assigns a cluster label to every point: -1 for noise, otherwise a
// cluster id dense-enumerated from 0 in discovery order. A point is a core
// point when at least minPts points (itself included) lie within eps of it;
// clusters are the transitive closure of core-point neighborhoods, and
// non-core points reachable from a core point join as border points.
//
// Seeds are visited in input order and ids are assigned at seed time, so for
// a fixed input the full labeling (ids included) is reproducible. Expansion
// uses an explicit worklist; cluster size never touches the stack.
func DBSCAN(points []spatial.GridPoint, eps float64, minPts int) ([]int, error) {
	if eps < 0 || math.IsNaN(eps) {
		return nil, fmt.Errorf("eps must be >= 0 (got %v)", eps)
	}

	if minPts < 1 {
		return nil, fmt.Errorf("min points must be >= 1 (got %d)", minPts)
	}

	n := len(points)
	labels := make([]int, n)

	if n == 0 {
		return labels, nil
	}

	for i := range labels {
		labels[i] = unvisited
	}

	index := NewIndex(points, eps)
	next := 0

	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		neighbors := index.RangeQuery(points[i], eps)
		if len(neighbors) < minPts {
			// Not a core point. May still be absorbed as a border point later.
			labels[i] = Noise

			continue
		}

		id := next
		next++
		labels[i] = id

		queue := append([]int(nil), neighbors...)

		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]

			if labels[q] == Noise {
				labels[q] = id // border point
			}

			if labels[q] != unvisited {
				continue
			}

			labels[q] = id

			qNeighbors := index.RangeQuery(points[q], eps)
			if len(qNeighbors) >= minPts {
				queue = append(queue, qNeighbors...)
			}
		}
	}

	return labels, nil
}

// Label zips points with their DBSCAN labels.
func Label(points []spatial.GridPoint, labels []int) ([]LabeledPoint, error) {
	if len(points) != len(labels) {
		return nil, fmt.Errorf("%d points but %d labels", len(points), len(labels))
	}

	out := make([]LabeledPoint, len(points))
	for i := range points {
		out[i] = LabeledPoint{Grid: points[i], ClusterID: labels[i]}
	}

	return out, nil
}
