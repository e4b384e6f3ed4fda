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

package discovery_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/trailofbits/mewt/internal/discovery"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/target"
)

type fakeStore struct {
	nextID int64
}

func (f *fakeStore) UpsertTarget(path, language, text string) (target.Target, error) {
	f.nextID++

	return target.Target{ID: f.nextID, Path: path, Language: language, Text: text, Hash: target.Hash(text)}, nil
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscover_onlyRegisteredExtensions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":     "package main\n",
		"README.md":   "not a target\n",
		"sub/lib.go":  "package sub\n",
		"vendor/x.go": "package x\n",
	})

	registry := lang.NewDefaultRegistry()
	excl, err := discovery.NewExclusionRules([]string{"vendor/"})
	if err != nil {
		t.Fatal(err)
	}
	incl, err := discovery.NewInclusionRules(nil)
	if err != nil {
		t.Fatal(err)
	}

	st := &fakeStore{}
	targets, err := discovery.Discover(root, registry, incl, excl, st)
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, tg := range targets {
		paths = append(paths, tg.Path)
	}
	sort.Strings(paths)

	want := []string{"main.go", "sub/lib.go"}
	if len(paths) != len(want) {
		t.Fatalf("want %v, got %v", want, paths)
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("want %q at index %d, got %q", p, i, paths[i])
		}
	}
}

func TestDiscover_inclusionRestrictsToMatchingPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.go":        "package a\n",
		"internal/b.go": "package b\n",
	})

	registry := lang.NewDefaultRegistry()
	excl, _ := discovery.NewExclusionRules(nil)
	incl, err := discovery.NewInclusionRules([]string{"^internal/"})
	if err != nil {
		t.Fatal(err)
	}

	st := &fakeStore{}
	targets, err := discovery.Discover(root, registry, incl, excl, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].Path != "internal/b.go" {
		t.Fatalf("want only internal/b.go, got %+v", targets)
	}
}

func TestDiscover_emptyInclusionMatchesEverything(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})

	registry := lang.NewDefaultRegistry()
	excl, _ := discovery.NewExclusionRules(nil)
	incl, _ := discovery.NewInclusionRules(nil)

	st := &fakeStore{}
	targets, err := discovery.Discover(root, registry, incl, excl, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 {
		t.Fatalf("want 1 target, got %d", len(targets))
	}
}
