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
	"encoding/json"
	"net/http"
)

// Error is a detailed failure record: the full story goes to the log,
// the simple message goes to the user.
type Error struct {
	LogMsg     string
	SimpleMsg  string
	Response   string
	URL        string
	HTTPStatus int
}

// Error implements the error interface
func (e Error) Error() string {
	if e.SimpleMsg != "" {
		return e.SimpleMsg
	}
	return e.LogMsg
}

// Log writes the detailed record to the log and returns the error for
// handing back up the stack.
func (e Error) Log(ctx LogContext, prefix string) error {
	msg := e.LogMsg
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	fields := entry(ctx)
	if e.URL != "" {
		fields = fields.WithField("url", e.URL)
	}
	if e.HTTPStatus != 0 {
		fields = fields.WithField("status", e.HTTPStatus)
	}
	if e.Response != "" {
		fields = fields.WithField("response", e.Response)
	}
	fields.Error(msg)
	return e
}

// HTTPErr is an error carrying an HTTP status code
type HTTPErr struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e HTTPErr) Error() string {
	return e.Message
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HTTPError writes a JSON error envelope and logs it
func HTTPError(r *http.Request, w http.ResponseWriter, ctx LogContext, message string, status int) {
	LogAlert(ctx, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorEnvelope{Status: "error", Message: message})
}
