package main

import (
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/ndvi"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func ndviAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})

	outPath := c.String("out")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		util.LogAlert(logContext, "Could not create output directory: "+err.Error())
		os.Exit(1)
	}

	if err := ndvi.Compute(logContext, c.String("red"), c.String("nir"), outPath); err != nil {
		util.LogAlert(logContext, "NDVI computation failed: "+err.Error())
		os.Exit(1)
	}
}
