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

package zonal

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

var testCtx = &util.BasicLogContext{}

// writeTestRaster builds a single-band float64 GeoTIFF whose top-left
// corner sits at (0, rows) with square pixels of size 1, so the raster
// spans x in [0, cols] and y in [0, rows].
func writeTestRaster(t *testing.T, path string, values [][]float64, nodata *float64, epsg int) string {
	t.Helper()
	h := len(values)
	w := len(values[0])

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, w, h)
	if err != nil {
		t.Fatalf("creating test raster: %v", err)
	}
	if err = ds.SetGeoTransform([6]float64{0, 1, 0, float64(h), 0, -1}); err != nil {
		t.Fatalf("setting geotransform: %v", err)
	}
	if epsg != 0 {
		sr, srErr := godal.NewSpatialRefFromEPSG(epsg)
		if srErr != nil {
			t.Fatalf("creating spatial ref: %v", srErr)
		}
		if err = ds.SetSpatialRef(sr); err != nil {
			t.Fatalf("setting spatial ref: %v", err)
		}
	}
	if nodata != nil {
		if err = ds.Bands()[0].SetNoData(*nodata); err != nil {
			t.Fatalf("setting nodata: %v", err)
		}
	}

	buf := make([]float64, 0, w*h)
	for _, row := range values {
		buf = append(buf, row...)
	}
	if err = ds.Bands()[0].Write(0, 0, buf, w, h); err != nil {
		t.Fatalf("writing pixels: %v", err)
	}
	if err = ds.Close(); err != nil {
		t.Fatalf("closing test raster: %v", err)
	}
	return path
}

func uniformRaster(rows, cols int, value float64) [][]float64 {
	values := make([][]float64, rows)
	for r := range values {
		values[r] = make([]float64, cols)
		for c := range values[r] {
			values[r][c] = value
		}
	}
	return values
}

func newTestZone(t *testing.T, id, wkt string, epsg int) *Zone {
	t.Helper()
	var sr *godal.SpatialRef
	if epsg != 0 {
		var err error
		if sr, err = godal.NewSpatialRefFromEPSG(epsg); err != nil {
			t.Fatalf("creating spatial ref: %v", err)
		}
	}
	geom, err := godal.NewGeometryFromWKT(wkt, sr)
	if err != nil {
		t.Fatalf("creating zone geometry: %v", err)
	}
	return &Zone{ID: id, Geom: geom}
}

// rect returns a rectangle polygon WKT spanning [x0,x1] x [y0,y1].
func rect(x0, y0, x1, y1 float64) string {
	return "POLYGON((" +
		fmtCoord(x0, y0) + "," + fmtCoord(x1, y0) + "," +
		fmtCoord(x1, y1) + "," + fmtCoord(x0, y1) + "," +
		fmtCoord(x0, y0) + "))"
}

func fmtCoord(x, y float64) string {
	return trimFloat(x) + " " + trimFloat(y)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestAggregate_RasterNotFound(t *testing.T) {
	zones := &ZoneSet{Zones: []*Zone{newTestZone(t, "a", rect(0, 0, 1, 1), 0)}}
	defer zones.Close()

	_, err := Aggregate(testCtx, filepath.Join(t.TempDir(), "nope.tif"), zones)
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrRasterNotFound))
}

func TestAggregate_EmptyZoneSetIsFatal(t *testing.T) {
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), uniformRaster(2, 2, 1), nil, 0)

	_, err := Aggregate(testCtx, raster, &ZoneSet{})
	assert.True(t, errors.Is(err, ErrZoneSourceEmpty))

	_, err = Aggregate(testCtx, raster, nil)
	assert.True(t, errors.Is(err, ErrZoneSourceEmpty))
}

func TestAggregate_CardinalityAndOrder(t *testing.T) {
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), uniformRaster(4, 4, 2), nil, 0)
	zones := &ZoneSet{Zones: []*Zone{
		newTestZone(t, "first", rect(0, 0, 2, 2), 0),
		newTestZone(t, "second", rect(100, 100, 101, 101), 0), // outside extent
		newTestZone(t, "third", rect(2, 2, 4, 4), 0),
	}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)
	assert.Len(t, table.Rows, 3)
	assert.Equal(t, "first", table.Rows[0].Zone.ID)
	assert.Equal(t, "second", table.Rows[1].Zone.ID)
	assert.Equal(t, "third", table.Rows[2].Zone.ID)
}

func TestAggregate_ZeroCoverageOutsideExtent(t *testing.T) {
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), uniformRaster(4, 4, 1), nil, 0)
	zones := &ZoneSet{Zones: []*Zone{newTestZone(t, "away", rect(50, 50, 60, 60), 0)}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)
	assert.Len(t, table.Rows, 1)

	stats := table.Rows[0].Stats
	assert.True(t, math.IsNaN(stats.Mean))
	assert.True(t, math.IsNaN(stats.Min))
	assert.True(t, math.IsNaN(stats.Max))
	assert.Equal(t, 0, stats.Count)
	assert.False(t, stats.Failed, "geometric non-overlap is not a failure")
}

func TestAggregate_NodataExclusion(t *testing.T) {
	nodata := -9999.0
	values := uniformRaster(4, 4, 5)
	// Left half nodata.
	for r := 0; r < 4; r++ {
		values[r][0] = nodata
		values[r][1] = nodata
	}
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), values, &nodata, 0)

	zones := &ZoneSet{Zones: []*Zone{
		newTestZone(t, "all-nodata", rect(0, 0, 2, 4), 0),
		newTestZone(t, "mixed", rect(0, 0, 4, 4), 0),
	}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)

	allNodata := table.Rows[0].Stats
	assert.True(t, math.IsNaN(allNodata.Mean))
	assert.Equal(t, 0, allNodata.Count)
	assert.False(t, allNodata.Failed)

	mixed := table.Rows[1].Stats
	assert.Equal(t, 8, mixed.Count, "count is valid pixels, not covered pixels")
	assert.Equal(t, 5.0, mixed.Mean)
	assert.Equal(t, 5.0, mixed.Min)
	assert.Equal(t, 5.0, mixed.Max)
}

func TestAggregate_NonFinitePixelsExcluded(t *testing.T) {
	values := uniformRaster(2, 2, 3)
	values[0][0] = math.NaN()
	values[0][1] = math.Inf(1)
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), values, nil, 0)

	zones := &ZoneSet{Zones: []*Zone{newTestZone(t, "z", rect(0, 0, 2, 2), 0)}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)
	assert.Equal(t, 2, table.Rows[0].Stats.Count)
	assert.Equal(t, 3.0, table.Rows[0].Stats.Mean)
}

func TestAggregate_IdentifierSynthesis(t *testing.T) {
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), uniformRaster(2, 2, 1), nil, 0)
	zones := &ZoneSet{Zones: []*Zone{
		newTestZone(t, "", rect(0, 0, 1, 1), 0),
		newTestZone(t, "", rect(1, 1, 2, 2), 0),
		newTestZone(t, "named", rect(0, 1, 1, 2), 0),
	}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)
	assert.Equal(t, "0", table.Rows[0].Zone.ID)
	assert.Equal(t, "1", table.Rows[1].Zone.ID)
	assert.Equal(t, "named", table.Rows[2].Zone.ID, "existing identifiers are kept")
}

func TestAggregate_PreparesZoneSetInPlace(t *testing.T) {
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), uniformRaster(2, 2, 1), nil, 0)
	zones := &ZoneSet{Zones: []*Zone{newTestZone(t, "", rect(0, 0, 2, 2), 0)}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)

	// Identifier synthesis is visible on the caller's set, and rows alias
	// the same zones rather than copies.
	assert.Equal(t, "0", zones.Zones[0].ID)
	assert.Same(t, zones.Zones[0], table.Rows[0].Zone)
}

func TestAggregate_DegenerateZoneIsIsolated(t *testing.T) {
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), uniformRaster(4, 4, 7), nil, 0)

	// Self-intersecting bowtie between two healthy zones.
	bowtie := "POLYGON((0 0,2 2,2 0,0 2,0 0))"
	zones := &ZoneSet{Zones: []*Zone{
		newTestZone(t, "a", rect(0, 2, 4, 4), 0),
		newTestZone(t, "bad", bowtie, 0),
		newTestZone(t, "b", rect(0, 0, 4, 2), 0),
	}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)
	assert.Len(t, table.Rows, 3, "a bad polygon must not abort the run")

	assert.True(t, table.Rows[1].Stats.Failed)
	assert.True(t, math.IsNaN(table.Rows[1].Stats.Mean))
	assert.Equal(t, 0, table.Rows[1].Stats.Count)

	// The healthy zones match their standalone computation.
	solos := map[int]string{0: rect(0, 2, 4, 4), 2: rect(0, 0, 4, 2)}
	for idx, wkt := range solos {
		standalone := &ZoneSet{Zones: []*Zone{newTestZone(t, "solo", wkt, 0)}}
		soloTable, soloErr := Aggregate(testCtx, raster, standalone)
		standalone.Close()
		assert.Nil(t, soloErr)
		assert.Equal(t, soloTable.Rows[0].Stats.Count, table.Rows[idx].Stats.Count)
		assert.Equal(t, soloTable.Rows[0].Stats.Mean, table.Rows[idx].Stats.Mean)
		assert.False(t, table.Rows[idx].Stats.Failed)
	}
}

func TestAggregate_EndToEndExample(t *testing.T) {
	// 4x4 raster of 1.0 with nodata=-9999 across the top row.
	nodata := -9999.0
	values := uniformRaster(4, 4, 1)
	for c := 0; c < 4; c++ {
		values[0][c] = nodata
	}
	raster := writeTestRaster(t, filepath.Join(t.TempDir(), "r.tif"), values, &nodata, 0)

	zones := &ZoneSet{Zones: []*Zone{
		newTestZone(t, "A", rect(0, 3, 4, 4), 0), // top row only
		newTestZone(t, "B", rect(0, 0, 4, 3), 0), // bottom three rows
	}}
	defer zones.Close()

	table, err := Aggregate(testCtx, raster, zones)
	assert.Nil(t, err)

	a := table.Rows[0].Stats
	assert.True(t, math.IsNaN(a.Mean))
	assert.True(t, math.IsNaN(a.Min))
	assert.True(t, math.IsNaN(a.Max))
	assert.Equal(t, 0, a.Count)

	b := table.Rows[1].Stats
	assert.Equal(t, 1.0, b.Mean)
	assert.Equal(t, 1.0, b.Min)
	assert.Equal(t, 1.0, b.Max)
	assert.Equal(t, 12, b.Count)
}

func TestAggregate_CRSInvariance(t *testing.T) {
	// Raster in EPSG:4326 spanning [10,14] x [41,45] degrees: geotransform
	// origin must be shifted accordingly.
	path := filepath.Join(t.TempDir(), "r.tif")
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, 4, 4)
	assert.Nil(t, err)
	assert.Nil(t, ds.SetGeoTransform([6]float64{10, 1, 0, 45, 0, -1}))
	sr4326, err := godal.NewSpatialRefFromEPSG(4326)
	assert.Nil(t, err)
	assert.Nil(t, ds.SetSpatialRef(sr4326))
	buf := make([]float64, 16)
	for i := range buf {
		buf[i] = float64(i)
	}
	assert.Nil(t, ds.Bands()[0].Write(0, 0, buf, 4, 4))
	assert.Nil(t, ds.Close())

	wkt := rect(10, 41, 12, 43)

	geographic := &ZoneSet{Zones: []*Zone{newTestZone(t, "z", wkt, 4326)}}
	defer geographic.Close()

	// The same zone expressed in web mercator.
	mercatorZone := newTestZone(t, "z", wkt, 4326)
	sr3857, err := godal.NewSpatialRefFromEPSG(3857)
	assert.Nil(t, err)
	assert.Nil(t, mercatorZone.Geom.Reproject(sr3857))
	mercator := &ZoneSet{Zones: []*Zone{mercatorZone}}
	defer mercator.Close()

	first, err := Aggregate(testCtx, path, geographic)
	assert.Nil(t, err)
	second, err := Aggregate(testCtx, path, mercator)
	assert.Nil(t, err)

	assert.Equal(t, first.Rows[0].Stats.Count, second.Rows[0].Stats.Count)
	assert.InDelta(t, first.Rows[0].Stats.Mean, second.Rows[0].Stats.Mean, 1e-9)
	assert.InDelta(t, first.Rows[0].Stats.Min, second.Rows[0].Stats.Min, 1e-9)
	assert.InDelta(t, first.Rows[0].Stats.Max, second.Rows[0].Stats.Max, 1e-9)
}

func TestWindowFromBounds(t *testing.T) {
	gt := [6]float64{0, 1, 0, 4, 0, -1}

	win, ok := windowFromBounds(gt, 4, 4, [4]float64{1, 1, 3, 3})
	assert.True(t, ok)
	assert.Equal(t, window{x: 1, y: 1, w: 2, h: 2}, win)

	// Clamped to the raster.
	win, ok = windowFromBounds(gt, 4, 4, [4]float64{-10, -10, 2, 2})
	assert.True(t, ok)
	assert.Equal(t, window{x: 0, y: 2, w: 2, h: 2}, win)

	// Fully outside.
	_, ok = windowFromBounds(gt, 4, 4, [4]float64{10, 10, 20, 20})
	assert.False(t, ok)
}
