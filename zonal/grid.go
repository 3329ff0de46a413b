package zonal

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/venicegeo/geojson-go/geojson"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// MakeGrid lays a rows x cols grid of rectangular zones over the raster's
// extent and returns them as a FeatureCollection in EPSG:4326. Useful for
// simulating field boundaries when no real zone source exists.
func MakeGrid(ctx util.LogContext, rasterPath string, rows, cols int) (*geojson.FeatureCollection, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid needs at least one row and one column, got %dx%d", rows, cols)
	}

	ds, err := godal.Open(rasterPath, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRasterNotFound, rasterPath, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("reading geotransform: %w", err)
	}
	st := ds.Structure()
	sr := ds.SpatialRef()

	minx := gt[0]
	maxy := gt[3]
	maxx := gt[0] + float64(st.SizeX)*gt[1]
	miny := gt[3] + float64(st.SizeY)*gt[5]
	dx := (maxx - minx) / float64(cols)
	dy := (maxy - miny) / float64(rows)

	wgs84, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return nil, err
	}

	features := make([]*geojson.Feature, 0, rows*cols)
	fid := 1
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x0 := minx + float64(c)*dx
			y0 := miny + float64(r)*dy
			x1 := x0 + dx
			y1 := y0 + dy
			wkt := fmt.Sprintf("POLYGON((%g %g,%g %g,%g %g,%g %g,%g %g))",
				x0, y0, x1, y0, x1, y1, x0, y1, x0, y0)

			cell, gerr := godal.NewGeometryFromWKT(wkt, sr)
			if gerr != nil {
				return nil, gerr
			}
			// Exported in EPSG:4326 for portability.
			if sr != nil {
				if gerr = cell.Reproject(wgs84); gerr != nil {
					cell.Close()
					return nil, gerr
				}
			}
			gjs, gerr := cell.GeoJSON()
			cell.Close()
			if gerr != nil {
				return nil, gerr
			}
			geom, gerr := geojson.Parse([]byte(gjs))
			if gerr != nil {
				return nil, gerr
			}

			feature := geojson.NewFeature(geom, fid, map[string]interface{}{
				"id":   fid,
				"name": fmt.Sprintf("Cell %d", fid),
			})
			feature.Bbox = feature.ForceBbox()
			features = append(features, feature)
			fid++
		}
	}

	util.LogInfo(ctx, fmt.Sprintf("Generated %d grid zones over %s", len(features), rasterPath))
	return geojson.NewFeatureCollection(features), nil
}
