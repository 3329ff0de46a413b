package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Pccgeo-hub/geofarm-pipeline/model"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

const fieldsGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"field_id": "north-40", "name": "North Forty"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}
		},
		{
			"type": "Feature",
			"properties": {"id": 7},
			"geometry": {"type": "Polygon", "coordinates": [[[1,0],[2,0],[2,1],[1,1],[1,0]]]}
		},
		{
			"type": "Feature",
			"properties": {},
			"geometry": {"type": "Polygon", "coordinates": [[[2,0],[3,0],[3,1],[2,1],[2,0]]]}
		}
	]
}`

const zonalCSV = `id,name,ndvi_mean,ndvi_min,ndvi_max,ndvi_count
north-40,North Forty,0.42,0.1,0.8,16
empty,,,,,0
`

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadFieldsGeoJSON(t *testing.T) {
	fields, err := ReadFieldsGeoJSON(writeTempFile(t, "fields.geojson", fieldsGeoJSON))
	assert.Nil(t, err)
	assert.Len(t, fields, 3)

	assert.Equal(t, "north-40", fields[0].FieldID)
	assert.Equal(t, "North Forty", fields[0].Name)
	assert.Contains(t, string(fields[0].Geometry), `"Polygon"`)

	// Numeric ids are stringified, names default.
	assert.Equal(t, "7", fields[1].FieldID)
	assert.Equal(t, "field", fields[1].Name)

	// Identifier falls back to the feature's position.
	assert.Equal(t, "2", fields[2].FieldID)
}

func TestReadFieldsGeoJSONNotACollection(t *testing.T) {
	path := writeTempFile(t, "point.geojson", `{"type":"Point","coordinates":[0,0]}`)
	_, err := ReadFieldsGeoJSON(path)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "FeatureCollection")
}

func TestReadZonalCSV(t *testing.T) {
	stats, err := ReadZonalCSV(writeTempFile(t, "zonal.csv", zonalCSV))
	assert.Nil(t, err)
	assert.Len(t, stats, 2)

	assert.Equal(t, "north-40", stats[0].FieldID)
	assert.Equal(t, 0.42, *stats[0].Mean)
	assert.Equal(t, 0.1, *stats[0].Min)
	assert.Equal(t, 0.8, *stats[0].Max)
	assert.Equal(t, 16, stats[0].Count)

	// Empty statistic cells mean zero coverage, not zero value.
	assert.Equal(t, "empty", stats[1].FieldID)
	assert.Nil(t, stats[1].Mean)
	assert.Nil(t, stats[1].Min)
	assert.Equal(t, 0, stats[1].Count)
}

func TestReadZonalCSVMissingIDColumn(t *testing.T) {
	path := writeTempFile(t, "bad.csv", "name,ndvi_mean\nfoo,0.1\n")
	_, err := ReadZonalCSV(path)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "field_id")
}

func TestIngestRejectsBadAcqDate(t *testing.T) {
	zonalPath := writeTempFile(t, "zonal.csv", zonalCSV)

	// Validation happens before any database work, so a nil handle is safe.
	_, err := Ingest(&util.BasicLogContext{}, nil, IngestInput{
		ZonalPath: zonalPath,
		AcqDate:   "12/06/2024",
	})
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "invalid acquisition date")
	assert.Contains(t, err.Error(), model.AcqDateFormat)
}

func TestReadZonalCSVBadNumber(t *testing.T) {
	path := writeTempFile(t, "bad.csv", "id,ndvi_mean\nfoo,not-a-number\n")
	_, err := ReadZonalCSV(path)
	assert.NotNil(t, err)
}
