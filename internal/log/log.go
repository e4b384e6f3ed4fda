/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package log provides the single colorized logger used throughout mewt.
package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var (
	fgRed     = color.New(color.FgRed).SprintFunc()
	fgGreen   = color.New(color.FgGreen).SprintFunc()
	fgYellow  = color.New(color.FgYellow).SprintFunc()
	fgMagenta = color.New(color.FgMagenta).SprintFunc()
	fgHiBlack = color.New(color.FgHiBlack).SprintFunc()
)

type logger struct {
	out io.Writer
	err io.Writer
}

var (
	mutex    sync.Mutex
	instance *logger
)

// Init initializes the singleton logger with the given writers. If out is
// nil, logging is a no-op. Init is idempotent after the first successful
// call.
func Init(out, errOut io.Writer) {
	if out == nil {
		return
	}
	mutex.Lock()
	defer mutex.Unlock()
	if instance == nil {
		if errOut == nil {
			errOut = out
		}
		instance = &logger{out: out, err: errOut}
	}
}

// Reset clears the current logger instance. Used by tests.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	instance = nil
}

// SetColorEnabled toggles ANSI color output, mirroring --log.color.
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// Infof logs an informational message using a format string.
func Infof(f string, args ...any) {
	if instance == nil {
		return
	}
	_, _ = fmt.Fprintf(instance.out, f, args...)
}

// Infoln logs an informational line.
func Infoln(a ...any) {
	if instance == nil {
		return
	}
	_, _ = fmt.Fprintln(instance.out, a...)
}

// Errorf logs an error using a format string.
func Errorf(f string, args ...any) {
	if instance == nil {
		return
	}
	msg := fmt.Sprintf(f, args...)
	_, _ = fmt.Fprintf(instance.err, "%s: %s", fgRed("ERROR"), msg)
}

// Errorln logs an error.
func Errorln(a any) {
	if instance == nil {
		return
	}
	_, _ = fmt.Fprintf(instance.err, "%s: %v\n", fgRed("ERROR"), a)
}

// Debugf logs a debug-level message. Debug lines are only emitted when
// the caller has set log.level=debug in configuration; callers gate this
// themselves so the logger stays a dumb writer.
func Debugf(f string, args ...any) {
	if instance == nil {
		return
	}
	_, _ = fmt.Fprintf(instance.out, f, args...)
}

// StatusColor returns the colorized rendering of a mutation-outcome status
// string, used by the CLI's table renderers.
func StatusColor(status string) string {
	switch status {
	case "TestFail":
		return fgGreen(status)
	case "Uncaught":
		return fgRed(status)
	case "Skipped":
		return fgHiBlack(status)
	case "Timeout":
		return fgMagenta(status)
	default:
		return fgYellow(status)
	}
}
