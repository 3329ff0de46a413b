package main

import (
	"context"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/upload"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// Default artifacts of a pipeline run.
var runArtifacts = []string{
	"data/processed/ndvi.tif",
	"data/processed/ndvi_zonal.geojson",
	"data/processed/ndvi_zonal.csv",
}

func uploadAction(c *cli.Context) {
	logContext := &(util.BasicLogContext{})
	cfg := loadOptionalConfig(c, logContext)

	bucket := c.String("bucket")
	if bucket == "" {
		bucket = util.GetBucket()
	}
	if bucket == "" && cfg != nil {
		bucket = cfg.S3.Bucket
	}
	if bucket == "" {
		util.LogAlert(logContext, "A target bucket is required (--bucket or GEOFARM_BUCKET).")
		os.Exit(1)
	}

	prefix := c.String("prefix")
	if prefix == "" {
		prefix = util.GetPrefix()
	}
	sse := c.String("sse")
	uploadCfg := upload.Config{Bucket: bucket, Prefix: prefix, SSE: sse}
	if cfg != nil {
		uploadCfg.Region = cfg.S3.Region
		uploadCfg.Endpoint = cfg.S3.Endpoint
		if sse == "" {
			uploadCfg.SSE = cfg.S3.SSE
		}
	}

	ctx := context.Background()
	uploader, err := upload.NewUploader(ctx, uploadCfg)
	if err != nil {
		util.LogAlert(logContext, "Could not create uploader: "+err.Error())
		os.Exit(1)
	}

	stamp := upload.RunStamp(time.Now())
	uris, err := uploader.UploadRun(ctx, logContext, stamp, runArtifacts...)
	if err != nil {
		util.LogAlert(logContext, "Upload failed: "+err.Error())
		os.Exit(1)
	}

	util.LogInfo(logContext, "Upload complete.")
	for _, uri := range uris {
		util.LogInfo(logContext, "  - "+uri)
	}
}
