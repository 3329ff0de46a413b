package zonal

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func statsTable(t *testing.T) *Table {
	return &Table{Rows: []Row{
		{
			Zone:  newTestZone(t, "a", rect(0, 0, 2, 2), 0),
			Stats: Stats{Mean: 0.42, Min: 0.1, Max: 0.8, Count: 16},
		},
		{
			Zone:  newTestZone(t, "b", rect(2, 0, 4, 2), 0),
			Stats: zeroCoverage(),
		},
	}}
}

func TestGeoJSONFeatureCollection(t *testing.T) {
	table := statsTable(t)
	fc, err := table.GeoJSONFeatureCollection()
	assert.Nil(t, err)
	assert.Len(t, fc.Features, 2)

	props := fc.Features[0].Properties
	assert.Equal(t, "a", props["id"])
	assert.Equal(t, 0.42, props[ColumnMean])
	assert.Equal(t, 16, props[ColumnCount])
	assert.NotEmpty(t, fc.Features[0].Bbox)

	// Zero coverage serializes as null, never NaN (which is not valid JSON).
	zeroProps := fc.Features[1].Properties
	assert.Nil(t, zeroProps[ColumnMean])
	assert.Nil(t, zeroProps[ColumnMin])
	assert.Nil(t, zeroProps[ColumnMax])
	assert.Equal(t, 0, zeroProps[ColumnCount])
}

func TestWriteCSV(t *testing.T) {
	table := statsTable(t)
	path := filepath.Join(t.TempDir(), "stats.csv")
	assert.Nil(t, table.WriteCSV(path))

	f, err := os.Open(path)
	assert.Nil(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	assert.Nil(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, []string{"id", "name", ColumnMean, ColumnMin, ColumnMax, ColumnCount}, records[0])
	assert.Equal(t, "a", records[1][0])
	assert.Equal(t, "0.42", records[1][2])
	assert.Equal(t, "16", records[1][5])

	// NaN statistics become empty cells.
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "", records[2][3])
	assert.Equal(t, "", records[2][4])
	assert.Equal(t, "0", records[2][5])
}

func TestWriteGeoJSON(t *testing.T) {
	table := statsTable(t)
	path := filepath.Join(t.TempDir(), "stats.geojson")
	assert.Nil(t, table.WriteGeoJSON(path))

	body, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Contains(t, string(body), `"FeatureCollection"`)
	assert.Contains(t, string(body), ColumnMean)
}

func TestFloatCell(t *testing.T) {
	assert.Equal(t, "", floatCell(math.NaN()))
	assert.Equal(t, "0.5", floatCell(0.5))
	assert.Equal(t, "-1", floatCell(-1))
}
