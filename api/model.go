package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/Pccgeo-hub/geofarm-pipeline/model"
	"github.com/Pccgeo-hub/geofarm-pipeline/util"
)

// Context is the context for an API operation
type Context struct {
	DB        *sql.DB
	sessionID string
}

// AppName returns the application name
func (c *Context) AppName() string {
	return "geofarm"
}

// SessionID returns a Session ID, creating one if needed
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

type okEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

func writeOK(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(okEnvelope{Status: "ok", Data: data})
}

// writeGeoJSON renders any feature collection source as raw GeoJSON,
// outside the ok envelope so clients can feed it straight to a map.
func writeGeoJSON(w http.ResponseWriter, creator model.GeoJSONFeatureCollectionCreator) error {
	fc, err := creator.GeoJSONFeatureCollection()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(fc.String()))
	return nil
}

// CORSMiddleware allows browser dashboards on other origins to call the API
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
