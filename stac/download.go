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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// FindItem returns the item with the given id, or nil when the search
// scope does not contain it
func FindItem(items []Item, id string) *Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// AssetKeys lists an item's asset keys in stable order, for error messages
func AssetKeys(item *Item) []string {
	keys := make([]string, 0, len(item.Assets))
	for key := range item.Assets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// DownloadAssets fetches the red and NIR band assets of an item into
// outDir as red.tif and nir.tif, and writes a download manifest alongside.
func DownloadAssets(context *Context, item *Item, redKey, nirKey, outDir string, timeout time.Duration) (*DownloadManifest, error) {
	for _, key := range []string{redKey, nirKey} {
		if _, ok := item.Assets[key]; !ok {
			message := fmt.Sprintf("Asset %v not found on item %v. Available: %v", key, item.ID, AssetKeys(item))
			util.LogAlert(context, message)
			return nil, util.HTTPErr{Status: http.StatusNotFound, Message: message}
		}
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	redPath := filepath.Join(outDir, "red.tif")
	nirPath := filepath.Join(outDir, "nir.tif")
	if err := fetch(context, item.Assets[redKey].Href, redPath, timeout); err != nil {
		return nil, err
	}
	if err := fetch(context, item.Assets[nirKey].Href, nirPath, timeout); err != nil {
		return nil, err
	}

	manifest := &DownloadManifest{
		ItemID:   item.ID,
		Datetime: item.Properties.Datetime,
		RedAsset: redKey,
		NirAsset: nirKey,
		RedPath:  filepath.ToSlash(redPath),
		NirPath:  filepath.ToSlash(nirPath),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(outDir, "download_manifest.json")
	if err = os.WriteFile(manifestPath, data, 0644); err != nil {
		return nil, err
	}
	util.LogInfo(context, "Wrote "+manifestPath)
	return manifest, nil
}

func fetch(context *Context, url, outPath string, timeout time.Duration) error {
	util.LogInfo(context, "GET "+url)
	client := http.Client{Timeout: timeout}
	response, err := client.Get(url)
	if err != nil {
		return util.LogSimpleErr(context, fmt.Sprintf("Failed to fetch asset %v.", url), err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		message := fmt.Sprintf("Failed to fetch asset %v: %v. ", url, response.Status)
		util.LogAlert(context, message)
		return util.HTTPErr{Status: response.StatusCode, Message: message}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := io.Copy(out, response.Body)
	if err != nil {
		return util.LogSimpleErr(context, fmt.Sprintf("Failed writing %v.", outPath), err)
	}
	util.LogInfo(context, fmt.Sprintf("Wrote %s (%.2f MB)", outPath, float64(written)/1e6))
	return nil
}
