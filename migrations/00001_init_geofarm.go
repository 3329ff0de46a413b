package migration

import (
	"database/sql"

	"github.com/pressly/goose"
)

func init() {
	goose.AddMigration(Up00001, Down00001)
}

//Up00001 creates the fields, ndvi_runs and ndvi_stats tables
func Up00001(tx *sql.Tx) error {
	err := addExtensions(tx)

	if err == nil {
		err = addTables(tx)
	}

	if err == nil {
		err = addIndexes(tx)
	}

	return err
}

//Down00001 undoes the db changes.
func Down00001(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP TABLE IF EXISTS public.ndvi_stats;
		DROP TABLE IF EXISTS public.ndvi_runs;
		DROP TABLE IF EXISTS public.fields;
		`)
	return err
}

func addExtensions(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE EXTENSION IF NOT EXISTS postgis;
		CREATE EXTENSION IF NOT EXISTS pgcrypto;
		`)
	return err
}

func addTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS public.fields (
			field_id TEXT PRIMARY KEY,
			name TEXT,
			geom geometry(Geometry, 4326)
		);

		CREATE TABLE IF NOT EXISTS public.ndvi_runs (
			run_id UUID DEFAULT gen_random_uuid() PRIMARY KEY,
			acq_date DATE,
			aoi_bbox TEXT,
			s3_prefix TEXT,
			created_at TIMESTAMP DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS public.ndvi_stats (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID REFERENCES public.ndvi_runs(run_id) ON DELETE CASCADE,
			field_id TEXT REFERENCES public.fields(field_id),
			ndvi_mean DOUBLE PRECISION,
			ndvi_min DOUBLE PRECISION,
			ndvi_max DOUBLE PRECISION,
			ndvi_count INTEGER
		);
		`)
	return err
}

func addIndexes(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_fields_geom
		ON public.fields USING gist
		(geom);

		CREATE INDEX IF NOT EXISTS idx_stats_field
		ON public.ndvi_stats (field_id);

		CREATE INDEX IF NOT EXISTS idx_stats_run
		ON public.ndvi_stats (run_id);
		`)
	return err
}
