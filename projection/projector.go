// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

// Package projection converts geodetic coordinates to planar grid coordinates
// using the closed-form Transverse Mercator series expansion.
package projection

import (
	"math"

	"github.com/gridtrace/gridtrace/spatial"
)

const degToRad = math.Pi / 180

// Project maps each geodetic point to its grid northing/easting under params.
// Output order and length match the input exactly. The kernel is total: it
// never fails, and mathematically degenerate input (for example |lat| = 90,
// where tan(lat) diverges) propagates as NaN/Inf rather than an error. Each
// point is independent of every other, so callers may split the input across
// partitions freely.
func Project(points []spatial.GeodeticPoint, params Parameters, inDegrees bool) []spatial.GridPoint {
	out := make([]spatial.GridPoint, len(points))
	for i, p := range points {
		lat, lng := p.Lat, p.Lng
		if inDegrees {
			lat *= degToRad
			lng *= degToRad
		}

		out[i] = projectOne(lat, lng, params)
	}

	return out
}

// projectOne computes a single northing/easting pair. Inputs are radians.
func projectOne(lat, lng float64, params Parameters) spatial.GridPoint {
	a, b, f0 := params.A, params.B, params.F0

	e2 := (a*a - b*b) / (a * a)
	n := (a - b) / (a + b)

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)

	latDiff := lat - params.Phi0
	latSum := lat + params.Phi0
	lngDiff := lng - params.Lambda0

	// Transverse radius of curvature, meridional radius of curvature and the
	// second eccentricity term.
	nu := a * f0 * math.Pow(1-e2*sinLat*sinLat, -0.5)
	rho := a * f0 * (1 - e2) * math.Pow(1-e2*sinLat*sinLat, -1.5)
	eta2 := nu/rho - 1

	// Meridional arc, fourth-order series in n.
	m := b * f0 * ((1+n+(5.0/4.0)*n*n+(5.0/4.0)*n*n*n)*latDiff -
		(3*n+3*n*n+(21.0/8.0)*n*n*n)*math.Sin(latDiff)*math.Cos(latSum) +
		((15.0/8.0)*n*n+(15.0/8.0)*n*n*n)*math.Sin(2*latDiff)*math.Cos(2*latSum) -
		(35.0/24.0)*n*n*n*math.Sin(3*latDiff)*math.Cos(3*latSum))

	tan2 := tanLat * tanLat
	tan4 := tan2 * tan2
	cos3 := cosLat * cosLat * cosLat
	cos5 := cos3 * cosLat * cosLat

	// The classical I..VI correction terms.
	termI := m + params.N0
	termII := (nu / 2) * sinLat * cosLat
	termIII := (nu / 24) * sinLat * cos3 * (5 - tan2 + 9*eta2)
	termIIIA := (nu / 720) * sinLat * cos5 * (61 - 58*tan2 + tan4)
	termIV := nu * cosLat
	termV := (nu / 6) * cos3 * (nu/rho - tan2)
	termVI := (nu / 120) * cos5 * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	d2 := lngDiff * lngDiff
	d3 := d2 * lngDiff
	d4 := d2 * d2
	d5 := d4 * lngDiff
	d6 := d4 * d2

	return spatial.GridPoint{
		Northing: termI + termII*d2 + termIII*d4 + termIIIA*d6,
		Easting:  params.E0 + termIV*lngDiff + termV*d3 + termVI*d5,
	}
}
