// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides the leveled loggers used across the toolkit.
// All diagnostics go to stderr so that session status output on stdout
// stays machine-consumable.
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:            isatty.IsTerminal(os.Stderr.Fd()),
		DisableLevelTruncation: true,
	})
}

// SetVerbose enables debug-level output.
func SetVerbose(verbose bool) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Info logs a formatted informational message.
func Info(format string, args ...interface{}) {
	logrus.Infof(format, args...)
}

// Debug logs a formatted message visible only in verbose mode.
func Debug(format string, args ...interface{}) {
	logrus.Debugf(format, args...)
}

// Error logs a formatted error message without terminating.
func Error(format string, args ...interface{}) {
	logrus.Errorf(format, args...)
}

// Fatal logs a formatted error message and exits with status 1.
func Fatal(format string, args ...interface{}) {
	logrus.Fatalf(format, args...)
}
