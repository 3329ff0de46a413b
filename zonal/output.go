package zonal

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/Pccgeo-hub/geofarm-pipeline/model"
)

// Column names carried on both the GeoJSON and CSV exports.
const (
	ColumnMean  = "ndvi_mean"
	ColumnMin   = "ndvi_min"
	ColumnMax   = "ndvi_max"
	ColumnCount = "ndvi_count"
)

// GeoJSONFeatureCollection implements model.GeoJSONFeatureCollectionCreator:
// the geometry-bearing export, one feature per zone, statistics as
// properties (NaN rendered as JSON null).
func (t *Table) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	features := make([]*geojson.Feature, 0, len(t.Rows))
	for _, row := range t.Rows {
		gjs, err := row.Zone.Geom.GeoJSON()
		if err != nil {
			return nil, err
		}
		geom, err := geojson.Parse([]byte(gjs))
		if err != nil {
			return nil, err
		}
		feature := geojson.NewFeature(geom, row.Zone.ID, map[string]interface{}{
			"id":        row.Zone.ID,
			"name":      row.Zone.Name,
			ColumnMean:  nanToNil(row.Stats.Mean),
			ColumnMin:   nanToNil(row.Stats.Min),
			ColumnMax:   nanToNil(row.Stats.Max),
			ColumnCount: row.Stats.Count,
		})
		feature.Bbox = feature.ForceBbox()
		features = append(features, feature)
	}
	return geojson.NewFeatureCollection(features), nil
}

// WriteGeoJSON writes the geometry-bearing export to path.
func (t *Table) WriteGeoJSON(path string) error {
	return model.WriteGeoJSONFile(t, path)
}

// WriteCSV writes the geometry-free tabular export to path, keyed by zone
// id. NaN statistics become empty cells.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err = w.Write([]string{"id", "name", ColumnMean, ColumnMin, ColumnMax, ColumnCount}); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := []string{
			row.Zone.ID,
			row.Zone.Name,
			floatCell(row.Stats.Mean),
			floatCell(row.Stats.Min),
			floatCell(row.Stats.Max),
			strconv.Itoa(row.Stats.Count),
		}
		if err = w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func nanToNil(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
