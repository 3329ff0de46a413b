package db

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/venicegeo/geojson-go/geojson"

	"github.com/Pccgeo-hub/geofarm-pipeline/model"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// IngestInput names the artifacts of one pipeline run to be recorded
type IngestInput struct {
	FieldsPath string // GeoJSON polygon source; optional when fields already exist
	ZonalPath  string // zonal statistics CSV
	AcqDate    string
	AOIBbox    string
	S3Prefix   string
}

// Ingest records one run in PostGIS: upserts field polygons, creates a run
// row, and attaches the zonal statistics. Everything happens in a single
// transaction; a failure leaves the database untouched.
func Ingest(ctx util.LogContext, database *sql.DB, input IngestInput) (string, error) {
	if input.AcqDate != "" {
		if _, err := model.ParseAcqDate(input.AcqDate); err != nil {
			return "", fmt.Errorf("invalid acquisition date %q, want %s: %w", input.AcqDate, model.AcqDateFormat, err)
		}
	}

	stats, err := ReadZonalCSV(input.ZonalPath)
	if err != nil {
		return "", err
	}

	tx, err := database.Begin()
	if err != nil {
		return "", err
	}

	if input.FieldsPath != "" {
		if _, statErr := os.Stat(input.FieldsPath); statErr == nil {
			fields, ferr := ReadFieldsGeoJSON(input.FieldsPath)
			if ferr != nil {
				tx.Rollback()
				return "", ferr
			}
			if ferr = UpsertFields(tx, fields); ferr != nil {
				tx.Rollback()
				return "", ferr
			}
			util.LogInfo(ctx, fmt.Sprintf("Upserted %d fields from %s", len(fields), input.FieldsPath))
		}
	}

	runID, err := CreateRun(tx, model.Run{AcqDate: input.AcqDate, AOIBbox: input.AOIBbox, S3Prefix: input.S3Prefix})
	if err != nil {
		tx.Rollback()
		return "", err
	}
	if err = InsertStats(tx, runID, stats); err != nil {
		tx.Rollback()
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}

	util.LogInfo(ctx, fmt.Sprintf("Inserted %d ndvi_stats rows for run_id=%s", len(stats), runID))
	return runID, nil
}

// ReadFieldsGeoJSON loads field records from a GeoJSON FeatureCollection.
// Identifiers come from the field_id or id property, falling back to the
// feature's position; names default to "field".
func ReadFieldsGeoJSON(path string) ([]model.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := geojson.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	collection, ok := parsed.(*geojson.FeatureCollection)
	if !ok {
		return nil, fmt.Errorf("%s is not a GeoJSON FeatureCollection", path)
	}

	fields := make([]model.Field, 0, len(collection.Features))
	for i, feature := range collection.Features {
		geomBytes, merr := json.Marshal(feature.Geometry)
		if merr != nil {
			return nil, merr
		}
		fields = append(fields, model.Field{
			FieldID:  propertyID(feature.Properties, i),
			Name:     propertyName(feature.Properties),
			Geometry: json.RawMessage(geomBytes),
		})
	}
	return fields, nil
}

func propertyID(properties map[string]interface{}, position int) string {
	for _, key := range []string{"field_id", "id"} {
		switch v := properties[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return strconv.Itoa(position)
}

func propertyName(properties map[string]interface{}) string {
	if name, ok := properties["name"].(string); ok && name != "" {
		return name
	}
	return "field"
}

// ReadZonalCSV loads zonal statistics from the tabular export. Empty
// statistic cells become nil (zero coverage).
func ReadZonalCSV(path string) ([]model.FieldStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	idCol, ok := columns["field_id"]
	if !ok {
		if idCol, ok = columns["id"]; !ok {
			return nil, fmt.Errorf("%s has neither a field_id nor an id column", path)
		}
	}

	stats := []model.FieldStats{}
	for {
		record, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, rerr
		}
		s := model.FieldStats{FieldID: record[idCol]}
		if s.Mean, err = parseCell(record, columns, "ndvi_mean"); err != nil {
			return nil, err
		}
		if s.Min, err = parseCell(record, columns, "ndvi_min"); err != nil {
			return nil, err
		}
		if s.Max, err = parseCell(record, columns, "ndvi_max"); err != nil {
			return nil, err
		}
		if col, ok := columns["ndvi_count"]; ok && record[col] != "" {
			if s.Count, err = strconv.Atoi(record[col]); err != nil {
				return nil, fmt.Errorf("bad ndvi_count %q: %w", record[col], err)
			}
		}
		stats = append(stats, s)
	}
	return stats, nil
}

func parseCell(record []string, columns map[string]int, name string) (*float64, error) {
	col, ok := columns[name]
	if !ok || record[col] == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(record[col], 64)
	if err != nil {
		return nil, fmt.Errorf("bad %s %q: %w", name, record[col], err)
	}
	return &v, nil
}
