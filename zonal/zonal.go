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

// Package zonal aggregates a single-band raster per management-unit polygon:
// each zone is reprojected to the raster grid, clipped against it, and
// reduced to mean/min/max/count over the valid pixels it covers.
package zonal

import (
	"errors"
	"fmt"
	"math"

	"github.com/airbusgeo/godal"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// Failure taxonomy. Raster and zone-source problems abort the run before
// any row is produced; a single zone failing to clip never does.
var (
	ErrRasterNotFound     = errors.New("raster not found or unreadable")
	ErrZoneSourceNotFound = errors.New("zone source not found or unreadable")
	ErrZoneSourceEmpty    = errors.New("zone source has no features")
)

// Stats is the per-zone aggregate over valid pixels. Mean, Min and Max are
// NaN exactly when Count is zero. A pixel is valid when it is finite and
// not equal to the raster's declared nodata sentinel.
type Stats struct {
	Mean  float64
	Min   float64
	Max   float64
	Count int

	// Failed marks rows whose zero-coverage outcome came from a recovered
	// per-zone processing failure rather than a genuine lack of data. The
	// emitted statistics are identical either way; telemetry is not.
	Failed bool
}

// Row pairs one zone with its statistics.
type Row struct {
	Zone  *Zone
	Stats Stats
}

// Table is the augmented zone set: one row per input zone, in input order,
// geometries in the raster's CRS.
type Table struct {
	Rows []Row
}

// Aggregate clips rasterPath to every zone in turn and returns one row of
// statistics per zone, in input order. The zone set is prepared in place:
// geometries are reprojected into the raster's CRS and missing identifiers
// are synthesized before clipping, and the returned rows alias the caller's
// zones. The raster handle is held for the duration of the call and
// released on every exit path.
func Aggregate(ctx util.LogContext, rasterPath string, zones *ZoneSet) (*Table, error) {
	if zones == nil || len(zones.Zones) == 0 {
		return nil, ErrZoneSourceEmpty
	}

	ds, err := godal.Open(rasterPath, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRasterNotFound, rasterPath, err)
	}
	defer ds.Close()

	return aggregateDataset(ctx, ds, zones)
}

func aggregateDataset(ctx util.LogContext, ds *godal.Dataset, zones *ZoneSet) (*Table, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: dataset has no raster bands", ErrRasterNotFound)
	}
	band := bands[0]
	nodata, hasNodata := band.NoData()
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("%w: reading geotransform: %v", ErrRasterNotFound, err)
	}
	st := ds.Structure()
	sr := ds.SpatialRef()

	// Vector-to-raster only. The raster is the reference grid and is never
	// resampled to match the zones.
	if err = zones.reprojectTo(ctx, sr); err != nil {
		return nil, err
	}
	zones.EnsureIDs()

	table := &Table{Rows: make([]Row, 0, len(zones.Zones))}
	for i, z := range zones.Zones {
		stats, zerr := zoneStats(band, gt, st.SizeX, st.SizeY, nodata, hasNodata, sr, z.Geom)
		if zerr != nil {
			// A bad polygon must never abort the whole run. Clip failures
			// are geometry defects, not transient conditions; no retry.
			util.LogWarn(ctx, fmt.Sprintf("Zone %d (id=%s) failed to clip, recording zero coverage: %v", i, z.ID, zerr))
			stats = zeroCoverage()
			stats.Failed = true
		}
		table.Rows = append(table.Rows, Row{Zone: z, Stats: stats})
	}
	return table, nil
}

func zeroCoverage() Stats {
	return Stats{Mean: math.NaN(), Min: math.NaN(), Max: math.NaN(), Count: 0}
}

// zoneStats clips the band to one zone and reduces the valid pixels.
// A zone with no valid intersecting pixels is a normal outcome, not an
// error; any returned error means the clip itself failed.
func zoneStats(band godal.Band, gt [6]float64, sizeX, sizeY int, nodata float64, hasNodata bool, sr *godal.SpatialRef, g *godal.Geometry) (Stats, error) {
	if !g.Valid() {
		return Stats{}, errors.New("degenerate geometry")
	}

	bounds, err := g.Bounds()
	if err != nil {
		return Stats{}, fmt.Errorf("computing zone bounds: %w", err)
	}
	win, ok := windowFromBounds(gt, sizeX, sizeY, bounds)
	if !ok {
		// Entirely outside the raster extent.
		return zeroCoverage(), nil
	}

	data := make([]float64, win.w*win.h)
	if err = band.Read(win.x, win.y, data, win.w, win.h); err != nil {
		return Stats{}, fmt.Errorf("reading raster window: %w", err)
	}
	mask, err := rasterizeMask(g, sr, gt, win)
	if err != nil {
		return Stats{}, fmt.Errorf("rasterizing zone footprint: %w", err)
	}

	count := 0
	sum := 0.0
	min := math.Inf(1)
	max := math.Inf(-1)
	for idx, v := range data {
		if mask[idx] == 0 {
			continue
		}
		if hasNodata && v == nodata {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		count++
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if count == 0 {
		return zeroCoverage(), nil
	}
	return Stats{Mean: sum / float64(count), Min: min, Max: max, Count: count}, nil
}

type window struct {
	x, y, w, h int
}

// windowFromBounds maps a bounding box in raster CRS coordinates onto pixel
// space and intersects it with the raster. ok is false when the box misses
// the raster entirely.
func windowFromBounds(gt [6]float64, sizeX, sizeY int, b [4]float64) (window, bool) {
	if gt[2] != 0 || gt[4] != 0 {
		// Rotated grids are rare; fall back to a full-raster read and let
		// the rasterized footprint do the selection.
		return window{0, 0, sizeX, sizeY}, true
	}
	col0 := (b[0] - gt[0]) / gt[1]
	col1 := (b[2] - gt[0]) / gt[1]
	row0 := (b[1] - gt[3]) / gt[5]
	row1 := (b[3] - gt[3]) / gt[5]

	x0 := int(math.Floor(math.Min(col0, col1)))
	x1 := int(math.Ceil(math.Max(col0, col1)))
	y0 := int(math.Floor(math.Min(row0, row1)))
	y1 := int(math.Ceil(math.Max(row0, row1)))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > sizeX {
		x1 = sizeX
	}
	if y1 > sizeY {
		y1 = sizeY
	}
	if x0 >= x1 || y0 >= y1 {
		return window{}, false
	}
	return window{x: x0, y: y0, w: x1 - x0, h: y1 - y0}, true
}

// rasterizeMask burns the zone footprint into an in-memory byte grid
// congruent with the read window. Pixels whose center falls inside the
// polygon are selected, which is GDAL's default area-of-overlap rule.
func rasterizeMask(g *godal.Geometry, sr *godal.SpatialRef, gt [6]float64, win window) ([]byte, error) {
	mem, err := godal.Create(godal.Memory, "", 1, godal.Byte, win.w, win.h)
	if err != nil {
		return nil, err
	}
	defer mem.Close()

	wgt := [6]float64{
		gt[0] + float64(win.x)*gt[1] + float64(win.y)*gt[2], gt[1], gt[2],
		gt[3] + float64(win.x)*gt[4] + float64(win.y)*gt[5], gt[4], gt[5],
	}
	if err = mem.SetGeoTransform(wgt); err != nil {
		return nil, err
	}
	if sr != nil {
		if err = mem.SetSpatialRef(sr); err != nil {
			return nil, err
		}
	}
	if err = mem.RasterizeGeometry(g, godal.Values(1)); err != nil {
		return nil, err
	}

	mask := make([]byte, win.w*win.h)
	if err = mem.Bands()[0].Read(0, 0, mask, win.w, win.h); err != nil {
		return nil, err
	}
	return mask, nil
}
