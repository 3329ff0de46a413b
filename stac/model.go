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

package stac

import (
	"github.com/venicegeo/geojson-go/geojson"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// Context is the context for a STAC catalog operation
type Context struct {
	BaseURL   string
	sessionID string
}

// AppName returns the application name
func (c *Context) AppName() string {
	return "geofarm"
}

// SessionID returns a session ID, creating one if needed
func (c *Context) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = util.PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *Context) LogRootDir() string {
	return ""
}

// SearchOptions are the tunable knobs for a catalog search
type SearchOptions struct {
	Collections   []string
	Bbox          geojson.BoundingBox
	Datetime      string
	MaxCloudCover float64
	Limit         int
}

// searchRequest is the POST /search body per the STAC API spec
type searchRequest struct {
	Collections []string  `json:"collections,omitempty"`
	Bbox        []float64 `json:"bbox,omitempty"`
	Datetime    string    `json:"datetime,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// Asset is one downloadable artifact attached to an item
type Asset struct {
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// ItemProperties carries the item metadata the pipeline cares about.
// Cloud cover appears under different keys depending on the catalog.
type ItemProperties struct {
	Datetime     string   `json:"datetime"`
	EOCloudCover *float64 `json:"eo:cloud_cover,omitempty"`
	S2CloudCover *float64 `json:"s2:cloud_cover,omitempty"`
}

// Item is one STAC catalog entry
type Item struct {
	ID         string           `json:"id"`
	Properties ItemProperties   `json:"properties"`
	Assets     map[string]Asset `json:"assets"`
}

// CloudCover returns the item's cloud cover percentage, or nil when the
// catalog does not report one
func (it Item) CloudCover() *float64 {
	if it.Properties.EOCloudCover != nil {
		return it.Properties.EOCloudCover
	}
	return it.Properties.S2CloudCover
}

// itemCollection is the /search response envelope
type itemCollection struct {
	Type     string `json:"type"`
	Features []Item `json:"features"`
}

// ItemSummary is the light metadata kept in the discovery report
type ItemSummary struct {
	ID         string   `json:"id"`
	Datetime   string   `json:"datetime,omitempty"`
	CloudCover *float64 `json:"cloud_cover"`
	Assets     []string `json:"assets"`
}

// DiscoveryReport is the persisted outcome of a discover run, used by the
// download stage to pick an item
type DiscoveryReport struct {
	StacURL       string        `json:"stac_url"`
	Bbox          []float64     `json:"bbox"`
	Date          string        `json:"date"`
	MaxCloud      float64       `json:"max_cloud"`
	CountTotal    int           `json:"count_total"`
	CountFiltered int           `json:"count_filtered"`
	Items         []ItemSummary `json:"items"`
}

// DownloadManifest records where the red/NIR bands of an item landed
type DownloadManifest struct {
	ItemID   string `json:"item_id"`
	Datetime string `json:"datetime,omitempty"`
	RedAsset string `json:"red_asset"`
	NirAsset string `json:"nir_asset"`
	RedPath  string `json:"red_path"`
	NirPath  string `json:"nir_path"`
}
