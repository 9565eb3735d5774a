// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"fmt"
	"sort"

	"github.com/gridtrace/gridtrace/spatial"
	"github.com/gridtrace/gridtrace/store"
	"github.com/uber/h3-go/v4"
)

// Summary aggregates one recovered cluster for reporting.
type Summary struct {
	ClusterID    int                   `json:"cluster_id"`
	Size         int                   `json:"size"`
	GridCentroid spatial.GridPoint     `json:"grid_centroid"`
	GeoCentroid  spatial.GeodeticPoint `json:"geo_centroid"`
	H3Cell       string                `json:"h3_cell"`
	RadiusMeters float64               `json:"radius_meters"`
	GeoRadius    float64               `json:"geo_radius_meters"`
}

// Result is the full outcome of a clustering run.
type Result struct {
	Points   int       `json:"points"`
	Noise    int       `json:"noise"`
	Clusters []Summary `json:"clusters"`
}

// Summarize reduces a labeled point set to per-cluster centroids sized for a
// dashboard: grid centroid, geodetic centroid, the H3 cell of the centroid
// at the requested resolution, and the cluster radii (max member distance
// from the centroid, both planar and haversine). Clusters come back ordered
// by id.
func Summarize(points []store.SubsetPoint, labels []int, h3Res int) (*Result, error) {
	if len(points) != len(labels) {
		return nil, fmt.Errorf("%d points but %d labels", len(points), len(labels))
	}

	if h3Res < 0 || h3Res > 15 {
		return nil, fmt.Errorf("h3 resolution must be in [0, 15] (got %d)", h3Res)
	}

	result := &Result{Points: len(points)}

	type accumulator struct {
		size                 int
		sumNorthing, sumEasting float64
		sumLat, sumLng          float64
	}

	groups := make(map[int]*accumulator)

	for i, label := range labels {
		if label == Noise {
			result.Noise++

			continue
		}

		acc := groups[label]
		if acc == nil {
			acc = &accumulator{}
			groups[label] = acc
		}

		acc.size++
		acc.sumNorthing += points[i].Grid.Northing
		acc.sumEasting += points[i].Grid.Easting
		acc.sumLat += points[i].Geo.Lat
		acc.sumLng += points[i].Geo.Lng
	}

	for id, acc := range groups {
		size := float64(acc.size)

		grid := spatial.GridPoint{
			Northing: acc.sumNorthing / size,
			Easting:  acc.sumEasting / size,
		}
		geo := spatial.GeodeticPoint{
			Lat: acc.sumLat / size,
			Lng: acc.sumLng / size,
		}

		cell, err := h3.LatLngToCell(h3.NewLatLng(geo.Lat, geo.Lng), h3Res)
		if err != nil {
			return nil, fmt.Errorf("converting cluster %d centroid to h3 cell: %w", id, err)
		}

		result.Clusters = append(result.Clusters, Summary{
			ClusterID:    id,
			Size:         acc.size,
			GridCentroid: grid,
			GeoCentroid:  geo,
			H3Cell:       cell.String(),
		})
	}

	sort.Slice(result.Clusters, func(i, j int) bool {
		return result.Clusters[i].ClusterID < result.Clusters[j].ClusterID
	})

	// Second pass for the radius now that centroids are fixed.
	byID := make(map[int]*Summary, len(result.Clusters))
	for i := range result.Clusters {
		byID[result.Clusters[i].ClusterID] = &result.Clusters[i]
	}

	for i, label := range labels {
		if label == Noise {
			continue
		}

		s := byID[label]
		if d := s.GridCentroid.Distance(points[i].Grid); d > s.RadiusMeters {
			s.RadiusMeters = d
		}

		if d := s.GeoCentroid.HaversineDistance(&points[i].Geo); d > s.GeoRadius {
			s.GeoRadius = d
		}
	}

	return result, nil
}
