package main

import (
	"fmt"
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
	"github.com/Pccgeo-hub/geofarm-pipeline/zonal"
)

func zonalAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})

	zones, err := zonal.LoadZones(logContext, c.String("vector"))
	if err != nil {
		util.LogAlert(logContext, "Could not load zones: "+err.Error())
		os.Exit(1)
	}
	defer zones.Close()

	table, err := zonal.Aggregate(logContext, c.String("raster"), zones)
	if err != nil {
		util.LogAlert(logContext, "Zonal aggregation failed: "+err.Error())
		os.Exit(1)
	}

	outGeoJSON := c.String("out-geojson")
	outCSV := c.String("out-csv")
	for _, p := range []string{outGeoJSON, outCSV} {
		if err = os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			util.LogAlert(logContext, "Could not create output directory: "+err.Error())
			os.Exit(1)
		}
	}

	if err = table.WriteGeoJSON(outGeoJSON); err != nil {
		util.LogAlert(logContext, "Could not write zonal GeoJSON: "+err.Error())
		os.Exit(1)
	}
	if err = table.WriteCSV(outCSV); err != nil {
		util.LogAlert(logContext, "Could not write zonal CSV: "+err.Error())
		os.Exit(1)
	}

	failed := 0
	for _, row := range table.Rows {
		if row.Stats.Failed {
			failed++
		}
	}
	util.LogInfo(logContext, fmt.Sprintf("Saved zonal GeoJSON: %s", outGeoJSON))
	util.LogInfo(logContext, fmt.Sprintf("Saved zonal CSV:     %s", outCSV))
	util.LogInfo(logContext, fmt.Sprintf("Rows: %d (%d recovered failures)", len(table.Rows), failed))
}
