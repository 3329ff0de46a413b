package model

import (
	"encoding/json"
	"time"

	"github.com/venicegeo/geojson-go/geojson"
)

// Field is one management-unit polygon as stored in PostGIS: a stable
// identifier, a display name, and a WGS84 geometry carried as raw GeoJSON.
type Field struct {
	FieldID  string          `json:"field_id"`
	Name     string          `json:"name"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// GeoJSONFeature implements the GeoJSONFeatureCreator interface
func (f Field) GeoJSONFeature() (*geojson.Feature, error) {
	geom, err := geojson.Parse(f.Geometry)
	if err != nil {
		return nil, err
	}
	feature := geojson.NewFeature(geom, f.FieldID, map[string]interface{}{
		"field_id": f.FieldID,
		"name":     f.Name,
	})
	feature.Bbox = feature.ForceBbox()
	return feature, nil
}

// FieldCollection is an ordered set of fields
type FieldCollection struct {
	Fields []Field
}

// GeoJSONFeatureCollection implements the GeoJSONFeatureCollectionCreator interface
func (fc FieldCollection) GeoJSONFeatureCollection() (*geojson.FeatureCollection, error) {
	creators := make([]GeoJSONFeatureCreator, len(fc.Fields))
	for i, f := range fc.Fields {
		creators[i] = f
	}
	features, err := Features(creators...)
	if err != nil {
		return nil, err
	}
	return geojson.NewFeatureCollection(features), nil
}

// Run is one pipeline execution recorded in ndvi_runs
type Run struct {
	RunID     string    `json:"run_id"`
	AcqDate   string    `json:"acq_date,omitempty"`
	AOIBbox   string    `json:"aoi_bbox,omitempty"`
	S3Prefix  string    `json:"s3_prefix,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FieldStats is one zonal statistics record keyed by field identifier.
// Nil statistics mean the field had no valid pixel coverage in its run.
type FieldStats struct {
	FieldID string   `json:"field_id"`
	Mean    *float64 `json:"ndvi_mean"`
	Min     *float64 `json:"ndvi_min"`
	Max     *float64 `json:"ndvi_max"`
	Count   int      `json:"ndvi_count"`
}
