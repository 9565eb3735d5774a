// Copyright 2026 The GridTrace Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the coordinate value types shared by the pipeline.
package spatial

import (
	"fmt"
	"math"
)

const earthRadius = 6371e3 // meters

// GeodeticPoint is a geographical point. Lat and Lng are in degrees unless
// the consumer states otherwise.
type GeodeticPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the point.
func (p GeodeticPoint) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *GeodeticPoint) HaversineDistance(other *GeodeticPoint) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// GridPoint is a planar grid coordinate in meters from the projection's
// false origin. Northing grows north, easting grows east.
type GridPoint struct {
	Northing float64 `json:"northing"`
	Easting  float64 `json:"easting"`
}

// Distance returns the planar Euclidean distance to other, in meters.
func (p GridPoint) Distance(other GridPoint) float64 {
	dn := p.Northing - other.Northing
	de := p.Easting - other.Easting

	return math.Sqrt(dn*dn + de*de)
}
