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

package campaign

import (
	"context"
	"os/exec"
	"time"

	"github.com/trailofbits/mewt/internal/store"
)

// verdict is the raw result of one test-command run, before the skip
// planner or outcome bookkeeping gets involved.
type verdict struct {
	status   string
	elapsed  time.Duration
	exitCode int
}

// runTestCmd runs args under timeout, in a fresh process group so a
// timeout kill takes the whole descendant tree with it (exec.Cmd.Cancel
// only ever signals the direct child). It classifies the result as
// Timeout if the deadline fires first, TestFail if the command exits
// non-zero within the deadline, Uncaught otherwise.
func runTestCmd(ctx context.Context, dir string, args []string, timeout time.Duration) (verdict, error) {
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	setupProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return verdict{}, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-deadline.Done():
		_ = killProcessGroup(cmd)
		<-done

		return verdict{status: store.StatusTimeout, elapsed: time.Since(start)}, nil
	case err := <-done:
		elapsed := time.Since(start)
		if err == nil {
			return verdict{status: store.StatusUncaught, elapsed: elapsed}, nil
		}
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			return verdict{status: store.StatusTestFail, elapsed: elapsed, exitCode: exitErr.ExitCode()}, nil
		}

		return verdict{}, err
	}
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}

	return ok
}
