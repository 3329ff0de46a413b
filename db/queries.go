package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Pccgeo-hub/geofarm-pipeline/model"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// UpsertFields writes management-unit polygons into public.fields.
// Geometries are expected in EPSG:4326 GeoJSON.
func UpsertFields(tx *sql.Tx, fields []model.Field) error {
	for _, field := range fields {
		_, err := tx.Exec(`
			INSERT INTO public.fields (field_id, name, geom)
			VALUES ($1, $2, ST_SetSRID(ST_GeomFromGeoJSON($3), 4326))
			ON CONFLICT (field_id)
			DO UPDATE SET name = EXCLUDED.name, geom = EXCLUDED.geom`,
			field.FieldID, field.Name, string(field.Geometry),
		)
		if err != nil {
			return fmt.Errorf("upserting field %s: %w", field.FieldID, err)
		}
	}
	return nil
}

// CreateRun inserts one row into public.ndvi_runs and returns its run_id
func CreateRun(tx *sql.Tx, run model.Run) (string, error) {
	runID, err := util.PsuUUID()
	if err != nil {
		return "", err
	}
	_, err = tx.Exec(`
		INSERT INTO public.ndvi_runs (run_id, acq_date, aoi_bbox, s3_prefix)
		VALUES ($1, NULLIF($2, '')::date, NULLIF($3, ''), NULLIF($4, ''))`,
		runID, run.AcqDate, run.AOIBbox, run.S3Prefix,
	)
	if err != nil {
		return "", err
	}
	return runID, nil
}

// InsertStats attaches zonal statistics rows to a run
func InsertStats(tx *sql.Tx, runID string, stats []model.FieldStats) error {
	for _, s := range stats {
		_, err := tx.Exec(`
			INSERT INTO public.ndvi_stats (run_id, field_id, ndvi_mean, ndvi_min, ndvi_max, ndvi_count)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, s.FieldID, nullable(s.Mean), nullable(s.Min), nullable(s.Max), s.Count,
		)
		if err != nil {
			return fmt.Errorf("inserting stats for field %s: %w", s.FieldID, err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func ListRuns(tx *sql.Tx, limit int) ([]model.Run, error) {
	rows, err := tx.Query(`
		SELECT run_id, COALESCE(acq_date::text, ''), COALESCE(aoi_bbox, ''), COALESCE(s3_prefix, ''), created_at
		FROM public.ndvi_runs
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		var run model.Run
		if err = rows.Scan(&run.RunID, &run.AcqDate, &run.AOIBbox, &run.S3Prefix, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestStats returns the per-field statistics of the most recent run
func LatestStats(tx *sql.Tx) ([]model.FieldStats, error) {
	rows, err := tx.Query(`
		WITH latest AS (
			SELECT run_id
			FROM public.ndvi_runs
			ORDER BY created_at DESC
			LIMIT 1
		)
		SELECT s.field_id, s.ndvi_mean, s.ndvi_min, s.ndvi_max, s.ndvi_count
		FROM public.ndvi_stats s
		JOIN latest l ON s.run_id = l.run_id
		ORDER BY s.field_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.FieldStats{}
	for rows.Next() {
		var (
			s              model.FieldStats
			mean, min, max sql.NullFloat64
		)
		if err = rows.Scan(&s.FieldID, &mean, &min, &max, &s.Count); err != nil {
			return nil, err
		}
		s.Mean = fromNullable(mean)
		s.Min = fromNullable(min)
		s.Max = fromNullable(max)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetFields returns field polygons as GeoJSON-bearing records, ordered by
// field_id. limit <= 0 means no limit; a positive simplifyTolerance applies
// topology-preserving simplification in degrees.
func GetFields(tx *sql.Tx, limit int, simplifyTolerance float64) ([]model.Field, error) {
	rows, err := tx.Query(`
		SELECT field_id, COALESCE(name, ''),
			ST_AsGeoJSON(CASE WHEN $1::float8 > 0 THEN ST_SimplifyPreserveTopology(geom, $1) ELSE geom END)
		FROM public.fields
		ORDER BY field_id
		LIMIT NULLIF($2, 0)`,
		simplifyTolerance, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		var (
			field     model.Field
			geomBytes []byte
		)
		if err = rows.Scan(&field.FieldID, &field.Name, &geomBytes); err != nil {
			return nil, err
		}
		field.Geometry = json.RawMessage(geomBytes)
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
