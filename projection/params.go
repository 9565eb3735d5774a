// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package projection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Parameters defines the reference ellipsoid and the projection origin for a
// Transverse Mercator grid. Angles are stored in radians.
type Parameters struct {
	A       float64 // semi-major axis, meters
	B       float64 // semi-minor axis, meters
	F0      float64 // central meridian scale factor
	Phi0    float64 // latitude of true origin, radians
	Lambda0 float64 // longitude of true origin, radians
	N0      float64 // northing of true origin, meters
	E0      float64 // easting of true origin, meters
}

// NationalGrid is the OSGB36 / Airy 1830 National Grid definition.
var NationalGrid = Parameters{
	A:       6377563.396,
	B:       6356256.909,
	F0:      0.9996012717,
	Phi0:    49 * math.Pi / 180,
	Lambda0: -2 * math.Pi / 180,
	N0:      -100000,
	E0:      400000,
}

// Validate reports whether the parameters describe a usable ellipsoid and
// projection. Bad values are configuration errors, never silently coerced.
func (p Parameters) Validate() error {
	if p.A <= 0 || p.B <= 0 {
		return fmt.Errorf("ellipsoid axes must be positive (a=%f, b=%f)", p.A, p.B)
	}

	if p.B > p.A {
		return fmt.Errorf("semi-minor axis exceeds semi-major axis (a=%f, b=%f)", p.A, p.B)
	}

	if p.F0 <= 0 {
		return fmt.Errorf("scale factor must be positive (got %f)", p.F0)
	}

	return nil
}

// On-disk representation. Origin angles are in degrees because that is how
// projection definitions are published.
type parametersFile struct {
	SemiMajorAxis   float64 `json:"semi_major_axis"`
	SemiMinorAxis   float64 `json:"semi_minor_axis"`
	ScaleFactor     float64 `json:"scale_factor"`
	OriginLatitude  float64 `json:"origin_latitude_deg"`
	OriginLongitude float64 `json:"origin_longitude_deg"`
	FalseNorthing   float64 `json:"false_northing"`
	FalseEasting    float64 `json:"false_easting"`
}

// LoadParameters reads a projection definition from a JSON file so the
// pipeline can run against grids other than the National Grid.
func LoadParameters(path string) (Parameters, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Parameters{}, fmt.Errorf("reading projection parameters: %w", err)
	}

	if len(data) == 0 {
		return Parameters{}, errors.New("projection parameters file is empty")
	}

	var f parametersFile
	if err = json.Unmarshal(data, &f); err != nil {
		return Parameters{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	params := Parameters{
		A:       f.SemiMajorAxis,
		B:       f.SemiMinorAxis,
		F0:      f.ScaleFactor,
		Phi0:    f.OriginLatitude * math.Pi / 180,
		Lambda0: f.OriginLongitude * math.Pi / 180,
		N0:      f.FalseNorthing,
		E0:      f.FalseEasting,
	}

	if err = params.Validate(); err != nil {
		return Parameters{}, fmt.Errorf("invalid projection parameters in %s: %w", path, err)
	}

	return params, nil
}

// MarshalJSON writes the on-disk representation, keeping origin angles in
// degrees so a dumped file can be fed back to LoadParameters.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(parametersFile{
		SemiMajorAxis:   p.A,
		SemiMinorAxis:   p.B,
		ScaleFactor:     p.F0,
		OriginLatitude:  p.Phi0 * 180 / math.Pi,
		OriginLongitude: p.Lambda0 * 180 / math.Pi,
		FalseNorthing:   p.N0,
		FalseEasting:    p.E0,
	})
}
