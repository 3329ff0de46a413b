package main

import (
	"fmt"
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/stac"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func discoverAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})
	cfg := loadOptionalConfig(c, logContext)

	bbox, err := resolveBbox(c, cfg)
	if err != nil {
		util.LogAlert(logContext, fmt.Sprintf("The bbox value of %v is invalid: %v", c.String("bbox"), err))
		os.Exit(1)
	}

	stacContext := &stac.Context{BaseURL: resolveStacURL(cfg)}
	options := stac.SearchOptions{
		Collections:   []string{c.String("collection")},
		Bbox:          bbox,
		Datetime:      resolveDate(c, cfg),
		MaxCloudCover: c.Float64("max-cloud"),
		Limit:         c.Int("limit"),
	}

	util.LogInfo(stacContext, "Connecting to STAC: "+stacContext.BaseURL)
	items, err := stac.Search(options, stacContext)
	if err != nil {
		util.LogAlert(stacContext, "Discovery failed: "+err.Error())
		os.Exit(1)
	}
	util.LogInfo(stacContext, fmt.Sprintf("Found %d candidate items for bbox=%v date=%v", len(items), options.Bbox, options.Datetime))

	filtered := stac.FilterByCloud(items, options.MaxCloudCover)
	report := stac.NewDiscoveryReport(stacContext, options, items, filtered)

	outPath := c.String("out")
	if err = os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		util.LogAlert(stacContext, "Could not create output directory: "+err.Error())
		os.Exit(1)
	}
	if err = report.Write(outPath); err != nil {
		util.LogAlert(stacContext, "Could not write discovery report: "+err.Error())
		os.Exit(1)
	}
	util.LogInfo(stacContext, "Wrote "+outPath)

	for _, item := range report.Items {
		cloud := "n/a"
		if item.CloudCover != nil {
			cloud = fmt.Sprintf("%.1f", *item.CloudCover)
		}
		util.LogInfo(stacContext, fmt.Sprintf("- %s | %s | cloud=%s", item.ID, item.Datetime, cloud))
	}
}
