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

package util

import (
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Environment variables
const (
	STAC_URL       = "STAC_URL"
	DATABASE_URL   = "DATABASE_URL"
	GEOFARM_BUCKET = "GEOFARM_BUCKET"
	GEOFARM_PREFIX = "GEOFARM_PREFIX"
	AOI_BBOX       = "AOI_BBOX"
	AOI_DATE       = "AOI_DATE"
)

const defaultStacURL = "https://planetarycomputer.microsoft.com/api/stac/v1"

// Config mirrors config.yaml. Environment variables override any value
// found here.
type Config struct {
	Stac struct {
		URL string `yaml:"url"`
	} `yaml:"stac"`
	AOI struct {
		Bbox []float64 `yaml:"bbox"`
		Date string    `yaml:"date"`
	} `yaml:"aoi"`
	S3 struct {
		Bucket   string `yaml:"bucket"`
		Prefix   string `yaml:"prefix"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
		SSE      string `yaml:"sse"`
	} `yaml:"s3"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
}

// LoadConfig reads a YAML config file. A missing file is an error; callers
// that treat the file as optional should check for existence first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetStacURL returns the STAC catalog root, falling back to the
// Planetary Computer catalog when the environment does not say otherwise
func GetStacURL() string {
	stacURL, ok := os.LookupEnv(STAC_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "No STAC catalog URL in environment, using default: "+defaultStacURL)
		return defaultStacURL
	}
	return stacURL
}

// GetDatabaseURL returns a string for the DATABASE_URL environment variable
func GetDatabaseURL() string {
	databaseURL, ok := os.LookupEnv(DATABASE_URL)
	if !ok {
		LogInfo(&BasicLogContext{}, "Did not get database URL from the environment.")
	}
	return databaseURL
}

// GetBucket returns a string for the GEOFARM_BUCKET environment variable
func GetBucket() string {
	bucket, ok := os.LookupEnv(GEOFARM_BUCKET)
	if !ok {
		LogAlert(&BasicLogContext{}, "Did not get S3 bucket from the environment. Uploads will not be available.")
	}
	return bucket
}

// GetPrefix returns the top-level S3 folder for run outputs
func GetPrefix() string {
	if prefix, ok := os.LookupEnv(GEOFARM_PREFIX); ok {
		return prefix
	}
	return "outputs"
}
