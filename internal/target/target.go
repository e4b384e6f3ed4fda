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

// Package target holds the two value types shared by every other package
// in this module: a discovered source file (Target) and a synthesized
// edit against it (Mutant). Neither type owns any behavior beyond Hash;
// discovery, synthesis, storage and execution all operate on them as
// plain data, the way the teacher's pkg/mutant package keeps mutant.Mutant
// a thin value object and pushes apply/rollback into the mutator package.
package target

import (
	"crypto/sha256"
	"encoding/hex"
)

// Target is one source file enrolled in a campaign. It is immutable once
// created: a (Path, Hash) pair uniquely identifies a row in the store, and
// a file that changes on disk produces a new Target rather than mutating
// this one in place.
type Target struct {
	ID       int64
	Path     string
	Text     string
	Hash     string
	Language string
}

// Mutant is one candidate text-range edit against a Target's original
// text, as synthesized by a language engine's ApplyAll. Start and End are
// byte offsets into Target.Text; Line is the 1-based line of Start.
type Mutant struct {
	ID          int64
	TargetID    int64
	Slug        string
	Start       int
	End         int
	Replacement string
	Line        int
	Original    string
}

// Hash returns the content hash used to key a Target row: the lowercase
// hex-encoded SHA-256 digest of text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))

	return hex.EncodeToString(sum[:])
}
