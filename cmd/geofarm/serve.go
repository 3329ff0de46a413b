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
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/Pccgeo-hub/geofarm-pipeline/api"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

func getPortStr() string {
	if port, ok := os.LookupEnv("PORT"); ok {
		return ":" + port
	}
	return ":8080"
}

func createRouter(ctx util.LogContext) (*mux.Router, error) {
	router := mux.NewRouter()
	router.Use(api.CORSMiddleware)
	router.Handle("/", api.RootHandler{})

	if healthHandler, err := api.NewHealthHandler(getDbConnectionFunc); err == nil {
		router.Handle("/health", healthHandler)
	} else {
		return nil, err
	}

	if runsHandler, err := api.NewRunsHandler(getDbConnectionFunc); err == nil {
		router.Handle("/ndvi/runs", runsHandler)
	} else {
		return nil, err
	}

	if latestHandler, err := api.NewLatestHandler(getDbConnectionFunc); err == nil {
		router.Handle("/ndvi/latest", latestHandler)
	} else {
		return nil, err
	}

	if fieldsHandler, err := api.NewFieldsHandler(getDbConnectionFunc); err == nil {
		router.Handle("/fields", fieldsHandler)
	} else {
		return nil, err
	}

	return router, nil
}

func serveAction(*cli.Context) {
	logContext := &(util.BasicLogContext{})

	portStr := getPortStr()

	if router, err := createRouter(logContext); err == nil {
		util.LogInfo(logContext, "Serving geofarm API on "+portStr)
		launchServerFunc(portStr, router)
	} else {
		util.LogSimpleErr(logContext, "Failed to create router: ", err)
	}
}

var launchServerFunc = launchServer

func launchServer(portStr string, router *mux.Router) {
	server := http.Server{
		Addr:    portStr,
		Handler: router,
	}

	log.Fatal(server.ListenAndServe())
}
