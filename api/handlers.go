package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Pccgeo-hub/geofarm-pipeline/db"
	"github.com/Pccgeo-hub/geofarm-pipeline/model"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// RootHandler lists the available endpoints
type RootHandler struct{}

// ServeHTTP implements the http.Handler interface for the RootHandler type
func (h RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]interface{}{
		"service":   "GeoFarm API",
		"endpoints": []string{"/health", "/fields", "/ndvi/runs", "/ndvi/latest"},
	})
}

// HealthHandler is a handler for /health
type HealthHandler struct {
	Context Context
}

// NewHealthHandler creates a new handler using a database connection provider
func NewHealthHandler(connectionProvider db.ConnectionProvider) (*HealthHandler, error) {
	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}
	return &HealthHandler{Context: Context{DB: database}}, nil
}

// ServeHTTP implements the http.Handler interface for the HealthHandler type
func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := h.Context.DB.QueryRow(`SELECT 1`).Scan(&one); err != nil {
		message := fmt.Sprintf("Database is unreachable: %v", err)
		util.HTTPError(r, w, &h.Context, message, http.StatusServiceUnavailable)
		return
	}
	writeOK(w, "alive")
}

// RunsHandler is a handler for /ndvi/runs
// @Title runsHandler
// @Description lists recent NDVI runs, newest first
// @Param   limit  query  int  false  "Maximum number of runs to return (default 10)"
// @Success 200 {object} string
// @Router /ndvi/runs [get]
type RunsHandler struct {
	Context Context
}

// NewRunsHandler creates a new handler using a database connection provider
func NewRunsHandler(connectionProvider db.ConnectionProvider) (*RunsHandler, error) {
	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}
	return &RunsHandler{Context: Context{DB: database}}, nil
}

// ServeHTTP implements the http.Handler interface for the RunsHandler type
func (h RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if r.FormValue("limit") != "" {
		var err error
		if limit, err = strconv.Atoi(r.FormValue("limit")); err != nil || limit < 1 {
			message := fmt.Sprintf("The limit value of %v is invalid", r.FormValue("limit"))
			util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
			return
		}
	}

	tx, err := h.Context.DB.Begin()
	if err != nil {
		message := fmt.Sprintf("Could not begin DB transaction: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	defer tx.Commit()

	runs, err := db.ListRuns(tx, limit)
	if err != nil {
		message := fmt.Sprintf("Error listing runs: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		tx.Rollback()
		return
	}
	writeOK(w, runs)
}

// LatestHandler is a handler for /ndvi/latest: per-field statistics from
// the most recent run
type LatestHandler struct {
	Context Context
}

// NewLatestHandler creates a new handler using a database connection provider
func NewLatestHandler(connectionProvider db.ConnectionProvider) (*LatestHandler, error) {
	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}
	return &LatestHandler{Context: Context{DB: database}}, nil
}

// ServeHTTP implements the http.Handler interface for the LatestHandler type
func (h LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Context.DB.Begin()
	if err != nil {
		message := fmt.Sprintf("Could not begin DB transaction: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	defer tx.Commit()

	stats, err := db.LatestStats(tx)
	if err != nil {
		message := fmt.Sprintf("Error loading latest stats: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		tx.Rollback()
		return
	}
	writeOK(w, stats)
}

// FieldsHandler is a handler for /fields
// @Title fieldsHandler
// @Description returns field polygons as a GeoJSON FeatureCollection
// @Param   limit               query  int     false  "Maximum number of features"
// @Param   simplify_tolerance  query  float   false  "Simplification tolerance in degrees"
// @Success 200 {object} geojson.FeatureCollection
// @Router /fields [get]
type FieldsHandler struct {
	Context Context
}

// NewFieldsHandler creates a new handler using a database connection provider
func NewFieldsHandler(connectionProvider db.ConnectionProvider) (*FieldsHandler, error) {
	database, err := connectionProvider(&util.BasicLogContext{})
	if err != nil {
		return nil, err
	}
	return &FieldsHandler{Context: Context{DB: database}}, nil
}

// ServeHTTP implements the http.Handler interface for the FieldsHandler type
func (h FieldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if r.FormValue("limit") != "" {
		var err error
		if limit, err = strconv.Atoi(r.FormValue("limit")); err != nil || limit < 1 {
			message := fmt.Sprintf("The limit value of %v is invalid", r.FormValue("limit"))
			util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
			return
		}
	}
	simplifyTolerance := 0.0
	if r.FormValue("simplify_tolerance") != "" {
		var err error
		if simplifyTolerance, err = strconv.ParseFloat(r.FormValue("simplify_tolerance"), 64); err != nil || simplifyTolerance < 0 {
			message := fmt.Sprintf("The simplify_tolerance value of %v is invalid", r.FormValue("simplify_tolerance"))
			util.HTTPError(r, w, &h.Context, message, http.StatusBadRequest)
			return
		}
	}

	tx, err := h.Context.DB.Begin()
	if err != nil {
		message := fmt.Sprintf("Could not begin DB transaction: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
	defer tx.Commit()

	fields, err := db.GetFields(tx, limit, simplifyTolerance)
	if err != nil {
		message := fmt.Sprintf("Error loading fields: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		tx.Rollback()
		return
	}

	if err = writeGeoJSON(w, model.FieldCollection{Fields: fields}); err != nil {
		message := fmt.Sprintf("Error converting to feature collection: %v", err)
		util.LogSimpleErr(&h.Context, message, err)
		util.HTTPError(r, w, &h.Context, message, http.StatusInternalServerError)
		return
	}
}
