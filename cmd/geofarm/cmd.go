// Copyright 2025, GeoFarm Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"github.com/venicegeo/geojson-go/geojson"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

var version = "0.1.0"

var commands = cli.Commands{
	cli.Command{
		Name:    "discover",
		Aliases: []string{"d"},
		Usage:   "Search the STAC catalog for candidate scenes",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "bbox", Usage: "minx,miny,maxx,maxy (EPSG:4326)"},
			cli.StringFlag{Name: "date", Usage: "ISO date or range, e.g. 2025-07-01/2025-07-31"},
			cli.Float64Flag{Name: "max-cloud", Value: 30, Usage: "maximum cloud cover percentage"},
			cli.StringFlag{Name: "collection", Value: "sentinel-2-l2a", Usage: "STAC collection to search"},
			cli.IntFlag{Name: "limit", Value: 100, Usage: "maximum number of items to request"},
			cli.StringFlag{Name: "out", Value: "data/raw/discover.json", Usage: "discovery report path"},
		},
		Action: discoverAction,
	},
	cli.Command{
		Name:  "download",
		Usage: "Download the red/NIR band assets of a discovered item",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "item-id", Usage: "STAC item id (must be in the current search scope)"},
			cli.StringFlag{Name: "bbox", Usage: "minx,miny,maxx,maxy (EPSG:4326)"},
			cli.StringFlag{Name: "date", Usage: "ISO date or range"},
			cli.StringFlag{Name: "collection", Value: "sentinel-2-l2a", Usage: "STAC collection"},
			cli.StringFlag{Name: "red-asset", Value: "B04", Usage: "asset key for the red band"},
			cli.StringFlag{Name: "nir-asset", Value: "B08", Usage: "asset key for the NIR band"},
			cli.StringFlag{Name: "out-dir", Value: "data/raw", Usage: "directory to save bands"},
			cli.IntFlag{Name: "timeout", Value: 90, Usage: "download timeout in seconds"},
		},
		Action: downloadAction,
	},
	cli.Command{
		Name:  "ndvi",
		Usage: "Compute the NDVI raster from downloaded bands",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "red", Value: "data/raw/red.tif", Usage: "red band path"},
			cli.StringFlag{Name: "nir", Value: "data/raw/nir.tif", Usage: "NIR band path"},
			cli.StringFlag{Name: "out", Value: "data/processed/ndvi.tif", Usage: "output NDVI path"},
		},
		Action: ndviAction,
	},
	cli.Command{
		Name:  "grid",
		Usage: "Generate a polygon grid over the NDVI raster extent (simulated fields)",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "raster", Value: "data/processed/ndvi.tif", Usage: "reference raster"},
			cli.IntFlag{Name: "rows", Value: 3, Usage: "grid rows"},
			cli.IntFlag{Name: "cols", Value: 3, Usage: "grid columns"},
			cli.StringFlag{Name: "out", Value: "data/vector/fields.geojson", Usage: "output GeoJSON path"},
		},
		Action: gridAction,
	},
	cli.Command{
		Name:    "zonal",
		Aliases: []string{"z"},
		Usage:   "Aggregate the NDVI raster per field polygon",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "vector", Value: "data/vector/fields.geojson", Usage: "field polygon source"},
			cli.StringFlag{Name: "raster", Value: "data/processed/ndvi.tif", Usage: "NDVI raster"},
			cli.StringFlag{Name: "out-geojson", Value: "data/processed/ndvi_zonal.geojson", Usage: "GeoJSON output path"},
			cli.StringFlag{Name: "out-csv", Value: "data/processed/ndvi_zonal.csv", Usage: "CSV output path"},
		},
		Action: zonalAction,
	},
	cli.Command{
		Name:  "upload",
		Usage: "Upload run artifacts to S3 under a timestamped prefix",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "bucket", Usage: "target S3 bucket (defaults to GEOFARM_BUCKET)"},
			cli.StringFlag{Name: "prefix", Usage: "top-level S3 folder (defaults to GEOFARM_PREFIX or outputs)"},
			cli.StringFlag{Name: "sse", Usage: "server-side encryption, e.g. AES256 or aws:kms"},
		},
		Action: uploadAction,
	},
	cli.Command{
		Name:  "ingest",
		Usage: "Record a run and its zonal statistics in PostGIS",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "fields", Value: "data/vector/fields.geojson", Usage: "field polygon GeoJSON"},
			cli.StringFlag{Name: "zonal", Value: "data/processed/ndvi_zonal.csv", Usage: "zonal statistics CSV"},
			cli.StringFlag{Name: "run-date", Usage: "acquisition date, e.g. 2025-07-15"},
			cli.StringFlag{Name: "aoi", Usage: "AOI bbox string"},
			cli.StringFlag{Name: "s3-prefix", Usage: "S3 prefix of this run's artifacts"},
		},
		Action: ingestAction,
	},
	cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Launch the geofarm webserver",
		Action:  serveAction,
	},
	cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Update database schema",
		Action:  migrateDatabaseAction,
	},
	cli.Command{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print the version number of the geofarm CLI",
		Action:  versionAction,
	},
}

func createCliApp() (app *cli.App) {
	app = cli.NewApp()
	app.Name = "geofarm"
	app.Usage = "Run a stage of the geofarm NDVI pipeline"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "optional YAML configuration file"},
	}
	app.Commands = commands
	return
}

func versionAction(c *cli.Context) {
	util.LogInfo(&(util.BasicLogContext{}), "geofarm version "+version)
}

// loadOptionalConfig returns the YAML config when the file exists, nil
// otherwise. Environment variables and flags take precedence over it.
func loadOptionalConfig(c *cli.Context, ctx util.LogContext) *util.Config {
	path := c.GlobalString("config")
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	cfg, err := util.LoadConfig(path)
	if err != nil {
		util.LogAlert(ctx, "Failed to parse "+path+": "+err.Error())
		return nil
	}
	return cfg
}

// resolveBbox picks the AOI bounding box: flag, then AOI_BBOX env, then
// config file.
func resolveBbox(c *cli.Context, cfg *util.Config) (geojson.BoundingBox, error) {
	bboxStr := c.String("bbox")
	if bboxStr == "" {
		bboxStr = os.Getenv(util.AOI_BBOX)
	}
	if bboxStr != "" {
		return geojson.NewBoundingBox(bboxStr)
	}
	if cfg != nil && len(cfg.AOI.Bbox) == 4 {
		return geojson.BoundingBox(cfg.AOI.Bbox), nil
	}
	return nil, nil
}

// resolveDate picks the AOI date range: flag, then AOI_DATE env, then
// config file.
func resolveDate(c *cli.Context, cfg *util.Config) string {
	if date := c.String("date"); date != "" {
		return date
	}
	if date := os.Getenv(util.AOI_DATE); date != "" {
		return date
	}
	if cfg != nil {
		return cfg.AOI.Date
	}
	return ""
}

func resolveStacURL(cfg *util.Config) string {
	if _, ok := os.LookupEnv(util.STAC_URL); !ok && cfg != nil && cfg.Stac.URL != "" {
		return cfg.Stac.URL
	}
	return util.GetStacURL()
}
