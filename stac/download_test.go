package stac

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func TestFindItem(t *testing.T) {
	items := []Item{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, "b", FindItem(items, "b").ID)
	assert.Nil(t, FindItem(items, "c"))
}

func TestAssetKeysAreSorted(t *testing.T) {
	item := &Item{Assets: map[string]Asset{
		"visual": {}, "B08": {}, "B04": {}, "SCL": {},
	}}
	assert.Equal(t, []string{"B04", "B08", "SCL", "visual"}, AssetKeys(item))
}

func TestDownloadAssets(t *testing.T) {
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/red":
			w.Write([]byte("red band bytes"))
		case "/nir":
			w.Write([]byte("nir band bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer assets.Close()

	item := &Item{
		ID:         "S2A_MSIL2A_20240612",
		Properties: ItemProperties{Datetime: "2024-06-12T10:30:21Z"},
		Assets: map[string]Asset{
			"B04": {Href: assets.URL + "/red"},
			"B08": {Href: assets.URL + "/nir"},
		},
	}

	outDir := filepath.Join(t.TempDir(), "raw")
	manifest, err := DownloadAssets(&Context{}, item, "B04", "B08", outDir, 5*time.Second)
	assert.Nil(t, err)
	assert.Equal(t, "S2A_MSIL2A_20240612", manifest.ItemID)
	assert.Equal(t, "B04", manifest.RedAsset)

	red, err := os.ReadFile(filepath.Join(outDir, "red.tif"))
	assert.Nil(t, err)
	assert.Equal(t, "red band bytes", string(red))

	nir, err := os.ReadFile(filepath.Join(outDir, "nir.tif"))
	assert.Nil(t, err)
	assert.Equal(t, "nir band bytes", string(nir))

	_, err = os.Stat(filepath.Join(outDir, "download_manifest.json"))
	assert.Nil(t, err)
}

func TestDownloadAssetsMissingKey(t *testing.T) {
	item := &Item{ID: "x", Assets: map[string]Asset{"B04": {Href: "y"}}}

	_, err := DownloadAssets(&Context{}, item, "B04", "B08", t.TempDir(), time.Second)
	assert.NotNil(t, err)
	httpErr, ok := err.(util.HTTPErr)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestDownloadAssetsUpstreamFailure(t *testing.T) {
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer assets.Close()

	item := &Item{ID: "x", Assets: map[string]Asset{
		"B04": {Href: assets.URL + "/red"},
		"B08": {Href: assets.URL + "/nir"},
	}}

	_, err := DownloadAssets(&Context{}, item, "B04", "B08", t.TempDir(), time.Second)
	assert.NotNil(t, err)
}
