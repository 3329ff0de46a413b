package main

import (
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/stac"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func downloadAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})
	cfg := loadOptionalConfig(c, logContext)

	itemID := c.String("item-id")
	if itemID == "" {
		util.LogAlert(logContext, "An --item-id is required; pick one from the discovery report.")
		os.Exit(1)
	}

	bbox, err := resolveBbox(c, cfg)
	if err != nil {
		util.LogAlert(logContext, fmt.Sprintf("The bbox value of %v is invalid: %v", c.String("bbox"), err))
		os.Exit(1)
	}

	stacContext := &stac.Context{BaseURL: resolveStacURL(cfg)}
	options := stac.SearchOptions{
		Collections: []string{c.String("collection")},
		Bbox:        bbox,
		Datetime:    resolveDate(c, cfg),
	}

	items, err := stac.Search(options, stacContext)
	if err != nil {
		util.LogAlert(stacContext, "Search failed: "+err.Error())
		os.Exit(1)
	}

	item := stac.FindItem(items, itemID)
	if item == nil {
		util.LogAlert(stacContext, "Item id not found in current search scope. Try adjusting bbox/date or verify the id from the discovery report.")
		os.Exit(1)
	}

	timeout := time.Duration(c.Int("timeout")) * time.Second
	manifest, err := stac.DownloadAssets(stacContext, item, c.String("red-asset"), c.String("nir-asset"), c.String("out-dir"), timeout)
	if err != nil {
		util.LogAlert(stacContext, "Download failed: "+err.Error())
		os.Exit(2)
	}
	util.LogInfo(stacContext, fmt.Sprintf("Downloaded %s: red=%s nir=%s", manifest.ItemID, manifest.RedPath, manifest.NirPath))
}
