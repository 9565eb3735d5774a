// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"testing"

	"github.com/gridtrace/gridtrace/spatial"
	"github.com/gridtrace/gridtrace/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subsetPoints() []store.SubsetPoint {
	return []store.SubsetPoint{
		{ID: 0, Geo: spatial.GeodeticPoint{Lat: 51.50, Lng: -0.12}, Grid: grid(0, 0)},
		{ID: 1, Geo: spatial.GeodeticPoint{Lat: 51.51, Lng: -0.13}, Grid: grid(0, 200)},
		{ID: 2, Geo: spatial.GeodeticPoint{Lat: 51.52, Lng: -0.14}, Grid: grid(200, 0)},
		{ID: 3, Geo: spatial.GeodeticPoint{Lat: 53.48, Lng: -2.24}, Grid: grid(90000, 90000)},
	}
}

func TestSummarize(t *testing.T) {
	points := subsetPoints()
	labels := []int{0, 0, 0, Noise}

	result, err := Summarize(points, labels, 7)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Points)
	assert.Equal(t, 1, result.Noise)
	require.Len(t, result.Clusters, 1)

	c := result.Clusters[0]
	assert.Equal(t, 0, c.ClusterID)
	assert.Equal(t, 3, c.Size)
	assert.InDelta(t, (0+0+200)/3.0, c.GridCentroid.Northing, 1e-9)
	assert.InDelta(t, (0+200+0)/3.0, c.GridCentroid.Easting, 1e-9)
	assert.InDelta(t, (51.50+51.51+51.52)/3, c.GeoCentroid.Lat, 1e-9)
	assert.NotEmpty(t, c.H3Cell)

	// Radii are the max member distance from the centroid, planar and
	// haversine respectively.
	var maxGrid, maxGeo float64

	for i, l := range labels {
		if l != 0 {
			continue
		}

		if d := c.GridCentroid.Distance(points[i].Grid); d > maxGrid {
			maxGrid = d
		}

		if d := c.GeoCentroid.HaversineDistance(&points[i].Geo); d > maxGeo {
			maxGeo = d
		}
	}

	assert.InDelta(t, maxGrid, c.RadiusMeters, 1e-9)
	assert.InDelta(t, maxGeo, c.GeoRadius, 1e-9)
	assert.Positive(t, c.GeoRadius)
}

func TestSummarizeOrdersClustersByID(t *testing.T) {
	points := subsetPoints()
	labels := []int{1, 1, 0, 0}

	result, err := Summarize(points, labels, 5)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, 0, result.Clusters[0].ClusterID)
	assert.Equal(t, 1, result.Clusters[1].ClusterID)
}

func TestSummarizeEmpty(t *testing.T) {
	result, err := Summarize(nil, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Points)
	assert.Equal(t, 0, result.Noise)
	assert.Empty(t, result.Clusters)
}

func TestSummarizeValidatesInput(t *testing.T) {
	points := subsetPoints()

	_, err := Summarize(points, []int{0}, 7)
	assert.ErrorContains(t, err, "4 points but 1 labels")

	_, err = Summarize(points, []int{0, 0, 0, 0}, 16)
	assert.ErrorContains(t, err, "h3 resolution")
}
