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

package target_test

import (
	"testing"

	"github.com/trailofbits/mewt/internal/target"
)

func TestHashIsStableAndSensitiveToContent(t *testing.T) {
	t.Parallel()

	a := target.Hash("package main\n")
	b := target.Hash("package main\n")
	if a != b {
		t.Fatalf("expected identical hashes for identical text, got %q and %q", a, b)
	}

	c := target.Hash("package main\n\n")
	if a == c {
		t.Fatalf("expected different hashes for different text, both got %q", a)
	}

	if len(a) != 64 {
		t.Fatalf("expected a 64-char hex SHA-256 digest, got %d chars", len(a))
	}
}

func TestTargetUpsertKeyIsPathAndHash(t *testing.T) {
	t.Parallel()

	t1 := target.Target{ID: 1, Path: "a.go", Text: "x", Hash: target.Hash("x"), Language: "Go"}
	t2 := target.Target{ID: 2, Path: "a.go", Text: "y", Hash: target.Hash("y"), Language: "Go"}

	if t1.Hash == t2.Hash {
		t.Fatalf("expected distinct hashes for distinct text")
	}
	if t1.Path != t2.Path {
		t.Fatalf("expected same path for both targets in this scenario")
	}
}
