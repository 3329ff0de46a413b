package main

import (
	"fmt"
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
	"github.com/Pccgeo-hub/geofarm-pipeline/zonal"
)

func gridAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})

	fc, err := zonal.MakeGrid(logContext, c.String("raster"), c.Int("rows"), c.Int("cols"))
	if err != nil {
		util.LogAlert(logContext, "Grid generation failed: "+err.Error())
		os.Exit(1)
	}

	outPath := c.String("out")
	if err = os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		util.LogAlert(logContext, "Could not create output directory: "+err.Error())
		os.Exit(1)
	}
	if err = os.WriteFile(outPath, []byte(fc.String()), 0644); err != nil {
		util.LogAlert(logContext, "Could not write grid: "+err.Error())
		os.Exit(1)
	}
	util.LogInfo(logContext, fmt.Sprintf("Wrote %d grid polygons to %s", len(fc.Features), outPath))
}
