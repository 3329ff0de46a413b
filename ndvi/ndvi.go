// Copyright 2025, GeoFarm Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ndvi derives a normalized difference vegetation index surface
// from a co-registered red/near-infrared reflectance pair.
package ndvi

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// epsilon keeps the denominator away from zero over water and shadow.
const epsilon = 1e-6

// Compute reads the red and NIR bands, evaluates
// (nir - red) / (nir + red + epsilon) pointwise in float32, and writes the
// result as a single-band GeoTIFF with the red band's grid geometry.
func Compute(ctx util.LogContext, redPath, nirPath, outPath string) error {
	red, err := godal.Open(redPath, godal.RasterOnly())
	if err != nil {
		return fmt.Errorf("opening red band %s: %w", redPath, err)
	}
	defer red.Close()

	nir, err := godal.Open(nirPath, godal.RasterOnly())
	if err != nil {
		return fmt.Errorf("opening NIR band %s: %w", nirPath, err)
	}
	defer nir.Close()

	rs := red.Structure()
	ns := nir.Structure()
	if rs.SizeX != ns.SizeX || rs.SizeY != ns.SizeY {
		return fmt.Errorf("band grids differ: red %dx%d, nir %dx%d", rs.SizeX, rs.SizeY, ns.SizeX, ns.SizeY)
	}
	w, h := rs.SizeX, rs.SizeY

	redBuf := make([]float32, w*h)
	if err = red.Bands()[0].Read(0, 0, redBuf, w, h); err != nil {
		return fmt.Errorf("reading red band: %w", err)
	}
	nirBuf := make([]float32, w*h)
	if err = nir.Bands()[0].Read(0, 0, nirBuf, w, h); err != nil {
		return fmt.Errorf("reading NIR band: %w", err)
	}

	out := make([]float32, w*h)
	vmin := float32(math.Inf(1))
	vmax := float32(math.Inf(-1))
	for i := range out {
		r := redBuf[i]
		n := nirBuf[i]
		v := (n - r) / (n + r + epsilon)
		out[i] = v
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}

	dst, err := godal.Create(godal.GTiff, outPath, 1, godal.Float32, w, h)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}

	// Grid geometry comes from the red band; the index is defined on the
	// same reference grid as its inputs.
	if gt, gerr := red.GeoTransform(); gerr == nil {
		if err = dst.SetGeoTransform(gt); err != nil {
			dst.Close()
			return err
		}
	}
	if sr := red.SpatialRef(); sr != nil {
		if err = dst.SetSpatialRef(sr); err != nil {
			dst.Close()
			return err
		}
	}
	if nd, ok := red.Bands()[0].NoData(); ok {
		if err = dst.Bands()[0].SetNoData(nd); err != nil {
			dst.Close()
			return err
		}
	}
	if err = dst.Bands()[0].Write(0, 0, out, w, h); err != nil {
		dst.Close()
		return fmt.Errorf("writing NDVI band: %w", err)
	}
	if err = dst.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", outPath, err)
	}

	util.LogInfo(ctx, fmt.Sprintf("NDVI written to %s (range %.3f..%.3f)", outPath, vmin, vmax))
	return nil
}
