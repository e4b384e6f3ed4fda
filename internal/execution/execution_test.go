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

package execution_test

import (
	"testing"

	"github.com/trailofbits/mewt/internal/execution"
)

func TestExitErr(t *testing.T) {
	testCases := []struct {
		name         string
		wantExitMsg  string
		kind         execution.Kind
		wantExitCode int
	}{
		{
			name:         "baseline failure",
			kind:         execution.BaselineFail,
			wantExitMsg:  "baseline test failure",
			wantExitCode: 2,
		},
		{
			name:         "interrupted",
			kind:         execution.Interrupted,
			wantExitMsg:  "interrupted",
			wantExitCode: 3,
		},
		{
			name:         "usage error",
			kind:         execution.Usage,
			wantExitMsg:  "usage error",
			wantExitCode: 1,
		},
		{
			name:         "store failure falls back to exit code 1",
			kind:         execution.Store,
			wantExitMsg:  "store failure",
			wantExitCode: 1,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := execution.NewExitErr(tc.kind, "")

			exitCode := err.ExitCode()
			exitMessage := err.Error()

			if exitCode != tc.wantExitCode {
				t.Errorf("want %d, got %d", tc.wantExitCode, exitCode)
			}
			if exitMessage != tc.wantExitMsg {
				t.Errorf("want %q, got %q", tc.wantExitMsg, exitMessage)
			}
		})
	}
}

func TestExitErr_withMessage(t *testing.T) {
	err := execution.NewExitErr(execution.TestSpawn, "exec: %q not found", "go")

	want := "test spawn failure: exec: \"go\" not found"
	if err.Error() != want {
		t.Errorf("want %q, got %q", want, err.Error())
	}
	if err.Kind() != execution.TestSpawn {
		t.Errorf("want %v, got %v", execution.TestSpawn, err.Kind())
	}
}
