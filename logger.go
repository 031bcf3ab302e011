// Copyright 2026 The gaitQ Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pn532

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger is the diagnostic sink injected into a Device at construction.
// There is no package-global logging state; components that want diagnostics
// receive a Logger explicitly (see WithLogger).
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// NopLogger returns a Logger that discards everything. It is the default sink
// for a Device constructed without WithLogger.
func NopLogger() Logger {
	return nopLogger{}
}

type writerLogger struct {
	w io.Writer
}

func (l writerLogger) Debugf(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05.000")
	_, _ = fmt.Fprintf(l.w, "%s DEBUG: %s\n", timestamp, fmt.Sprintf(format, args...))
}

// NewWriterLogger returns a Logger that writes timestamped debug lines to w.
func NewWriterLogger(w io.Writer) Logger {
	return writerLogger{w: w}
}

// NewDebugLogger returns a stderr Logger when the PN532_DEBUG or DEBUG
// environment variable is set, and a no-op Logger otherwise. Convenience for
// applications that want the old environment-driven behavior.
func NewDebugLogger() Logger {
	if os.Getenv("PN532_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		return NewWriterLogger(os.Stderr)
	}
	return NopLogger()
}
