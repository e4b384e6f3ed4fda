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

// Package execution carries the discriminated error kinds of the campaign
// runner and the ExitError used to translate them into process exit codes.
package execution

import "fmt"

// Kind is the category of a failure raised anywhere in the core.
type Kind int

// The error kinds recognized by the campaign runner: GrammarLoad and
// BaselineFail are fatal startup errors, Parse/IO/Store/TestSpawn apply
// mid-campaign. Timeout is a classification, not an error kind, and has
// no entry here.
const (
	// Usage marks a bad invocation (bad flags, missing path).
	Usage Kind = iota
	// BaselineFail marks a failing baseline test run.
	BaselineFail
	// Interrupted marks a campaign stopped by SIGINT.
	Interrupted
	// GrammarLoad marks a failure initializing a language's grammar handle.
	GrammarLoad
	// Parse marks a non-fatal parse failure of one target file.
	Parse
	// IO marks a failure reading or writing a target file.
	IO
	// Store marks a failure committing to the campaign store.
	Store
	// TestSpawn marks a failure starting the configured test command.
	TestSpawn
)

func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage error"
	case BaselineFail:
		return "baseline test failure"
	case Interrupted:
		return "interrupted"
	case GrammarLoad:
		return "grammar load failure"
	case Parse:
		return "parse failure"
	case IO:
		return "io failure"
	case Store:
		return "store failure"
	case TestSpawn:
		return "test spawn failure"
	default:
		return "unknown error"
	}
}

// exitCodes maps each Kind to the process exit code:
// 0 = success, 1 = usage error, 2 = baseline test failure, 3 = interrupted.
// Kinds with no dedicated code fall back to 1.
var exitCodes = map[Kind]int{
	Usage:        1,
	BaselineFail: 2,
	Interrupted:  3,
}

// ExitError is raised when a condition requires the process to exit with a
// specific, meaningful status code. If returned (optionally wrapped) from
// main's call chain, the exit code propagates verbatim.
type ExitError struct {
	kind    Kind
	message string
}

// NewExitErr builds an ExitError for kind with a formatted message.
func NewExitErr(kind Kind, format string, args ...any) *ExitError {
	return &ExitError{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.message == "" {
		return e.kind.String()
	}

	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Kind returns the discriminated Kind of the error.
func (e *ExitError) Kind() Kind {
	return e.kind
}

// ExitCode returns the process exit code associated with this error.
func (e *ExitError) ExitCode() int {
	if code, ok := exitCodes[e.kind]; ok {
		return code
	}

	return 1
}
