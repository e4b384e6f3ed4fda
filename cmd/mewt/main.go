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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"

	"github.com/trailofbits/mewt/cmd"
	"github.com/trailofbits/mewt/internal/execution"
	"github.com/trailofbits/mewt/internal/log"
)

var version = "dev"

func main() {
	var exitErr *execution.ExitError
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()
	log.Init(color.Output, color.Error)
	ctx, hardStop := buildSignals()
	err := cmd.Execute(ctx, hardStop, buildVersion(version))
	if err != nil {
		log.Errorln(err)
		exitCode = 1
	}
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
}

// buildSignals returns a context cancelled on the first SIGINT/SIGTERM
// and a channel closed on the second: the first lets the in-flight
// mutant finish classification before the campaign stops scheduling
// more work, the second abandons it immediately.
func buildSignals() (context.Context, <-chan struct{}) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	hardStop := make(chan struct{})
	go func() {
		<-sigs
		log.Infof("\nShutting down gracefully...\n")
		cancel()
		second := cmd.HardStopOnSecondSignal(sigs)
		<-second
		close(hardStop)
	}()

	return ctx, hardStop
}

func buildVersion(version string) string {
	return fmt.Sprintf("%s %s/%s", version, runtime.GOOS, runtime.GOARCH)
}
