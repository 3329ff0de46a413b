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

// Package stac talks to a STAC API catalog: scene search for an area of
// interest and download of selected band assets.
package stac

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

type requestInput struct {
	method      string
	inputURL    string // URL relative to the catalog root
	body        []byte
	contentType string
}

func stacRequest(input requestInput, context *Context) (*http.Response, error) {
	inputURL := strings.TrimRight(context.BaseURL, "/") + "/" + strings.TrimLeft(input.inputURL, "/")

	request, err := http.NewRequest(input.method, inputURL, bytes.NewBuffer(input.body))
	if err != nil {
		return nil, util.LogSimpleErr(context, fmt.Sprintf("Failed to build STAC request for %v.", inputURL), err)
	}
	if input.contentType != "" {
		request.Header.Set("Content-Type", input.contentType)
	}
	request.Header.Set("Accept", "application/geo+json, application/json")

	util.LogInfo(context, fmt.Sprintf("%s %s", input.method, inputURL))
	return http.DefaultClient.Do(request)
}

// Search POSTs a /search against the catalog and returns the matching
// items in catalog order
func Search(options SearchOptions, context *Context) ([]Item, error) {
	var (
		err          error
		response     *http.Response
		requestBody  []byte
		responseBody []byte
	)

	req := searchRequest{
		Collections: options.Collections,
		Datetime:    options.Datetime,
		Limit:       options.Limit,
	}
	if options.Bbox != nil {
		req.Bbox = []float64(options.Bbox)
	}
	if requestBody, err = json.Marshal(req); err != nil {
		err = util.LogSimpleErr(context, fmt.Sprintf("Failed to marshal search request %#v.", req), err)
		return nil, err
	}
	if response, err = stacRequest(requestInput{method: "POST", inputURL: "search", body: requestBody, contentType: "application/json"}, context); err != nil {
		err = util.LogSimpleErr(context, fmt.Sprintf("Failed to complete STAC search %#v.", string(requestBody)), err)
		return nil, err
	}
	switch {
	case (response.StatusCode >= 400) && (response.StatusCode < 500):
		message := fmt.Sprintf("Failed to search the STAC catalog: %v. ", response.Status)
		err := util.HTTPErr{Status: response.StatusCode, Message: message}
		util.LogAlert(context, message)
		return nil, err
	case response.StatusCode >= 500:
		err = util.LogSimpleErr(context, "Failed to search the STAC catalog.", errors.New(response.Status))
		return nil, err
	default:
		//no op
	}

	defer response.Body.Close()
	responseBody, _ = io.ReadAll(response.Body)

	var collection itemCollection
	if err = json.Unmarshal(responseBody, &collection); err != nil {
		stacErr := util.Error{LogMsg: "Failed to unmarshal response from the STAC catalog: " + err.Error(),
			SimpleMsg:  "The STAC catalog returned an unexpected response for this search. See log for further details.",
			Response:   string(responseBody),
			URL:        context.BaseURL,
			HTTPStatus: response.StatusCode}
		err = stacErr.Log(context, "")
		return nil, err
	}

	return collection.Features, nil
}

// FilterByCloud keeps items whose cloud cover is unreported or at most
// maxCloud percent
func FilterByCloud(items []Item, maxCloud float64) []Item {
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		cc := item.CloudCover()
		if cc == nil || *cc <= maxCloud {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// reportItemCap bounds the discovery report so it stays skimmable
const reportItemCap = 15

// NewDiscoveryReport summarizes a search outcome for the report file
func NewDiscoveryReport(context *Context, options SearchOptions, all, filtered []Item) *DiscoveryReport {
	report := &DiscoveryReport{
		StacURL:       context.BaseURL,
		Bbox:          []float64(options.Bbox),
		Date:          options.Datetime,
		MaxCloud:      options.MaxCloudCover,
		CountTotal:    len(all),
		CountFiltered: len(filtered),
	}
	for i, item := range filtered {
		if i >= reportItemCap {
			break
		}
		assets := make([]string, 0, len(item.Assets))
		for key := range item.Assets {
			assets = append(assets, key)
		}
		sort.Strings(assets)
		report.Items = append(report.Items, ItemSummary{
			ID:         item.ID,
			Datetime:   item.Properties.Datetime,
			CloudCover: item.CloudCover(),
			Assets:     assets,
		})
	}
	return report
}

// Write persists the report as indented JSON
func (r *DiscoveryReport) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
