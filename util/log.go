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
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogContext is the contract all loggable operation contexts satisfy.
// Handlers, CLI actions, and pipeline stages each carry one so that log
// lines can be traced back to an application and session.
type LogContext interface {
	AppName() string
	SessionID() string
	LogRootDir() string
}

// BasicLogContext is a minimal LogContext for callers that have no richer
// context of their own (main, CLI actions).
type BasicLogContext struct {
	sessionID string
}

// AppName returns the application name
func (c *BasicLogContext) AppName() string {
	return "geofarm"
}

// SessionID returns a session ID, creating one if needed
func (c *BasicLogContext) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *BasicLogContext) LogRootDir() string {
	return ""
}

// Severity levels for audit messages
const (
	INFO   = "INFO"
	WARN   = "WARNING"
	ERROR  = "ERROR"
	NOTICE = "NOTICE"
)

// LogAuditInput is the paperwork for an audit log entry
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity string
}

var (
	logOnce sync.Once
	log     *logrus.Logger
)

func logger() *logrus.Logger {
	logOnce.Do(func() {
		log = logrus.New()
		log.SetOutput(os.Stdout)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return log
}

func entry(ctx LogContext) *logrus.Entry {
	return logger().WithFields(logrus.Fields{
		"app":     ctx.AppName(),
		"session": ctx.SessionID(),
	})
}

// LogInfo logs an informational message
func LogInfo(ctx LogContext, message string) {
	entry(ctx).Info(message)
}

// LogWarn logs a warning message
func LogWarn(ctx LogContext, message string) {
	entry(ctx).Warn(message)
}

// LogAlert logs a message that requires operator attention
func LogAlert(ctx LogContext, message string) {
	entry(ctx).Error(message)
}

// LogSimpleErr logs a message together with its underlying error and
// returns an error suitable for handing back to the caller.
func LogSimpleErr(ctx LogContext, message string, err error) error {
	entry(ctx).WithError(err).Error(message)
	return fmt.Errorf("%s: %w", message, err)
}

// LogAudit records an auditable action (startup, ingest, upload)
func LogAudit(ctx LogContext, input LogAuditInput) {
	e := entry(ctx).WithFields(logrus.Fields{
		"actor":  input.Actor,
		"action": input.Action,
		"actee":  input.Actee,
	})
	switch input.Severity {
	case ERROR:
		e.Error(input.Message)
	case WARN:
		e.Warn(input.Message)
	default:
		e.Info(input.Message)
	}
}

// PsuUUID returns a freshly generated UUID string
func PsuUUID() (string, error) {
	return uuid.NewString(), nil
}
