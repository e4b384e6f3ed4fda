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

// Package discovery walks a project tree looking for files the language
// registry can mutate: every file whose extension a lang.Engine claims,
// not just one fixed language.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/trailofbits/mewt/internal/execution"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/target"
)

// ExclusionRules is the `targets.ignore` substring list: spec.md §4.5
// step 2 rejects any path that contains an ignore entry "anywhere in its
// string form", and §6 documents the key itself as "# ignore is
// substring list" — plain containment, not a regex.
type ExclusionRules []string

// NewExclusionRules copies patterns into ExclusionRules. It never fails;
// the error return is kept so callers don't have to special-case this
// key against NewInclusionRules, which does compile regexes.
func NewExclusionRules(patterns []string) (ExclusionRules, error) {
	rules := make(ExclusionRules, len(patterns))
	copy(rules, patterns)

	return rules, nil
}

// excludes reports whether path contains any rule as a substring.
func (r ExclusionRules) excludes(path string) bool {
	for _, rule := range r {
		if strings.Contains(path, rule) {
			return true
		}
	}

	return false
}

// InclusionRules restricts discovery to paths matching at least one rule.
// An empty InclusionRules matches every path, since "no restriction
// configured" must mean "everything the registry resolves", not nothing.
type InclusionRules []*regexp.Regexp

// NewInclusionRules compiles patterns into InclusionRules.
func NewInclusionRules(patterns []string) (InclusionRules, error) {
	rules := make(InclusionRules, 0, len(patterns))
	for i, p := range patterns {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, execution.NewExitErr(execution.Usage, "include pattern #%d %q: %v", i, p, err)
		}
		rules = append(rules, r)
	}

	return rules, nil
}

func (r InclusionRules) includes(path string) bool {
	if len(r) == 0 {
		return true
	}
	for _, rule := range r {
		if rule.MatchString(path) {
			return true
		}
	}

	return false
}

// Upserter is the subset of the store's capability this package needs:
// resolving a (path, text) pair to a persisted Target. internal/store
// implements this; tests supply an in-memory fake.
type Upserter interface {
	UpsertTarget(path, language, text string) (target.Target, error)
}

// Discover walks root, looking for files the registry resolves to a
// language engine, keeps only paths includes allows and rules does not
// exclude, reads and hashes each survivor, and upserts it into store.
// Results are returned sorted by path, so discovery order is
// deterministic across runs.
func Discover(root string, registry *lang.Registry, includes InclusionRules, rules ExclusionRules, store Upserter) ([]target.Target, error) {
	fsys := os.DirFS(root)
	var paths []string

	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := registry.Resolve(p); !ok {
			return nil
		}
		if !includes.includes(p) {
			return nil
		}
		if rules.excludes(p) {
			return nil
		}
		paths = append(paths, p)

		return nil
	})
	if walkErr != nil {
		return nil, execution.NewExitErr(execution.IO, "walking %s: %v", root, walkErr)
	}

	sort.Strings(paths)

	targets := make([]target.Target, 0, len(paths))
	for _, p := range paths {
		engine, _ := registry.Resolve(p)
		text, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, execution.NewExitErr(execution.IO, "reading %s: %v", p, err)
		}
		t, err := store.UpsertTarget(filepath.ToSlash(p), engine.Name(), string(text))
		if err != nil {
			return nil, execution.NewExitErr(execution.Store, "recording target %s: %v", p, err)
		}
		targets = append(targets, t)
	}

	return targets, nil
}
