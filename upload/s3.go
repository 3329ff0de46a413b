// Package upload pushes run artifacts to S3 under a timestamped prefix.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// Config holds S3 configuration.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SSE             string // e.g. AES256 or aws:kms; empty disables
}

// Uploader writes run artifacts to a single bucket.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	sse    string
}

// NewUploader creates an S3-backed uploader.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	// Use explicit credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Uploader{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		sse:    cfg.SSE,
	}, nil
}

// RunStamp formats a timestamp for run folder names: ISO-ish, no colons,
// safe as an S3 key segment.
func RunStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// RunKey builds the object key for one artifact of a run.
func RunKey(prefix, stamp, localPath string) string {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, strings.Trim(prefix, "/"))
	}
	parts = append(parts, stamp, filepath.Base(localPath))
	return strings.Join(parts, "/")
}

// UploadRun uploads each local file under <prefix>/<stamp>/ and returns the
// resulting s3:// URIs, in input order. The first failure aborts the upload.
func (u *Uploader) UploadRun(ctx context.Context, logCtx util.LogContext, stamp string, paths ...string) ([]string, error) {
	uris := make([]string, 0, len(paths))
	for _, localPath := range paths {
		f, err := os.Open(localPath)
		if err != nil {
			return nil, err
		}

		key := RunKey(u.prefix, stamp, localPath)
		input := &s3.PutObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
			Body:   f,
		}
		if u.sse != "" {
			input.ServerSideEncryption = types.ServerSideEncryption(u.sse)
		}

		_, err = u.client.PutObject(ctx, input)
		f.Close()
		if err != nil {
			return nil, util.LogSimpleErr(logCtx, fmt.Sprintf("Upload failed for %v.", localPath), err)
		}

		uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
		util.LogInfo(logCtx, fmt.Sprintf("Uploaded: %s -> %s", localPath, uri))
		uris = append(uris, uri)
	}
	return uris, nil
}
