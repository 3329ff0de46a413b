package main

import (
	"database/sql"
	"errors"
	"net/url"

	_ "github.com/lib/pq"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

//getDbConnection opens a new database connection.
func getDbConnection(ctx util.LogContext) (*sql.DB, error) {
	connStr := util.GetDatabaseURL()
	if connStr == "" {
		if cfg, err := util.LoadConfig("config.yaml"); err == nil && cfg.Postgres.DSN != "" {
			util.LogInfo(ctx, "No DB connection found in DATABASE_URL, using config.yaml")
			connStr = cfg.Postgres.DSN
		}
	}
	if connStr == "" {
		return nil, errors.New("Could not get DB connection from DATABASE_URL or config.yaml")
	}

	// XXX: pq expects SSL to be enabled if not explicitly disabled
	dbURI, err := url.Parse(connStr)
	if err != nil {
		return nil, err
	}
	params := dbURI.Query()
	if params.Get("sslmode") == "" {
		params.Set("sslmode", "disable")
		dbURI.RawQuery = params.Encode()
	}

	util.LogInfo(ctx, "Creating database connection at: `"+dbURI.Redacted()+"`")
	db, err := sql.Open("postgres", dbURI.String())
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return db, err
}

var getDbConnectionFunc = getDbConnection
