package db

import (
	"database/sql"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

//ConnectionProvider is a function that can provide a database connection.
type ConnectionProvider func(util.LogContext) (*sql.DB, error)
