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

package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/trailofbits/mewt/internal/store"
	"github.com/trailofbits/mewt/internal/target"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "mewt.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestUpsertTarget_sameContentReturnsSameRow(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	a, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID {
		t.Fatalf("want identical (path, hash) to resolve to the same row, got %d and %d", a.ID, b.ID)
	}
}

func TestTargets_returnsOnlyTheNewestGenerationPerPath(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	v1, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := st.UpsertTarget("a.go", "Go", "package a\n\nfunc f() {}\n")
	if err != nil {
		t.Fatal(err)
	}
	if v1.ID == v2.ID {
		t.Fatal("want a new row for changed content")
	}

	targets, err := st.Targets()
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 {
		t.Fatalf("want 1 current-generation target, got %d: %+v", len(targets), targets)
	}
	if targets[0].ID != v2.ID {
		t.Fatalf("want the newest generation (id %d), got id %d", v2.ID, targets[0].ID)
	}
}

func TestTargetByID_seesEveryGenerationRegardlessOfCurrency(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	v1, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpsertTarget("a.go", "Go", "package a\n\nfunc f() {}\n"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := st.TargetByID(v1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("want the superseded generation still resolvable by id")
	}
	if got.Text != "package a\n" {
		t.Fatalf("want the superseded generation's own text, got %q", got.Text)
	}

	_, ok, err = st.TargetByID(99999)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("want a nonexistent id to report ok=false")
	}
}

func TestInFlight_roundTrip(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)

	_, _, _, ok, err := st.InFlight()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("want no in-flight marker in a fresh store")
	}

	tg, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.MarkInFlight(tg.ID, tg.Path, tg.Text); err != nil {
		t.Fatal(err)
	}

	targetID, path, text, ok, err := st.InFlight()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("want the marker set")
	}
	if targetID != tg.ID || path != tg.Path || text != tg.Text {
		t.Fatalf("want (%d, %q, %q), got (%d, %q, %q)", tg.ID, tg.Path, tg.Text, targetID, path, text)
	}

	if err := st.ClearInFlight(); err != nil {
		t.Fatal(err)
	}
	_, _, _, ok, err = st.InFlight()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("want the marker gone after ClearInFlight")
	}
}

func TestMarkInFlight_overwritesPreviousMarker(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	a, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.UpsertTarget("b.go", "Go", "package b\n")
	if err != nil {
		t.Fatal(err)
	}

	if err := st.MarkInFlight(a.ID, a.Path, a.Text); err != nil {
		t.Fatal(err)
	}
	if err := st.MarkInFlight(b.ID, b.Path, b.Text); err != nil {
		t.Fatal(err)
	}

	targetID, path, _, ok, err := st.InFlight()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || targetID != b.ID || path != b.Path {
		t.Fatalf("want the marker to now point at b.go, got id=%d path=%q ok=%v", targetID, path, ok)
	}
}

func TestOutcomesAndMutants_excludeSupersededGenerations(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	v1, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	mutants, err := st.ReplaceMutants(v1.ID, []target.Mutant{
		{Slug: "CR", Start: 0, End: 0, Replacement: "", Line: 1, Original: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.RecordOutcome(store.Outcome{MutationID: mutants[0].ID, Status: store.StatusUncaught, StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if _, err := st.UpsertTarget("a.go", "Go", "package a\n\nfunc f() {}\n"); err != nil {
		t.Fatal(err)
	}

	outcomes, err := st.Outcomes(store.OutcomeFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("want the superseded generation's outcomes excluded, got %+v", outcomes)
	}

	rows, err := st.Mutants(store.MutantFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("want the superseded generation's mutants excluded, got %+v", rows)
	}
}

func TestReplaceMutants_clearsStaleOutcomesForTheSameTargetRow(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	tg, err := st.UpsertTarget("a.go", "Go", "package a\n")
	if err != nil {
		t.Fatal(err)
	}
	first, err := st.ReplaceMutants(tg.ID, []target.Mutant{
		{Slug: "CR", Start: 0, End: 0, Replacement: "", Line: 1, Original: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.RecordOutcome(store.Outcome{MutationID: first[0].ID, Status: store.StatusUncaught, StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if _, err := st.ReplaceMutants(tg.ID, []target.Mutant{
		{Slug: "COS", Start: 0, End: 0, Replacement: "", Line: 1, Original: ""},
	}); err != nil {
		t.Fatal(err)
	}

	pending, err := st.PendingMutants(tg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Slug != "COS" {
		t.Fatalf("want only the replacement mutant pending, got %+v", pending)
	}
}
