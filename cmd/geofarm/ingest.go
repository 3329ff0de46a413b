package main

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/db"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func ingestAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})

	database, err := getDbConnectionFunc(logContext)
	if err != nil {
		util.LogAlert(logContext, "Could not open database connection: "+err.Error())
		os.Exit(1)
	}
	defer database.Close()

	runID, err := db.Ingest(logContext, database, db.IngestInput{
		FieldsPath: c.String("fields"),
		ZonalPath:  c.String("zonal"),
		AcqDate:    c.String("run-date"),
		AOIBbox:    c.String("aoi"),
		S3Prefix:   c.String("s3-prefix"),
	})
	if err != nil {
		util.LogAlert(logContext, "Ingest failed: "+err.Error())
		os.Exit(1)
	}

	util.LogAudit(logContext, util.LogAuditInput{
		Actor:    "ingest",
		Action:   "run recorded",
		Actee:    runID,
		Message:  "Ingest completed. run_id=" + runID,
		Severity: util.INFO,
	})
}
