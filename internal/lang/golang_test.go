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

package lang_test

import (
	"testing"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/target"
)

func TestGoEngine_ifConditionRewrite(t *testing.T) {
	t.Parallel()

	src := "package p\nfunc f(x int) int { if x > 0 { return 1 }; return 0 }"
	tg := target.Target{ID: 1, Path: "f.go", Language: "Go", Text: src, Hash: target.Hash(src)}

	e := lang.NewGoEngine()
	mutants, err := e.ApplyAll(tg)
	if err != nil {
		t.Fatal(err)
	}

	byeSlug := map[string][]target.Mutant{}
	for _, m := range mutants {
		byeSlug[m.Slug] = append(byeSlug[m.Slug], m)
	}

	ifMutants := byeSlug[catalog.IF.Slug]
	if len(ifMutants) != 1 {
		t.Fatalf("want exactly one IF mutant, got %d: %+v", len(ifMutants), ifMutants)
	}
	if ifMutants[0].Replacement != "false" || ifMutants[0].Original != "x > 0" {
		t.Errorf("want condition %q replaced with %q, got %q -> %q", "x > 0", "false", ifMutants[0].Original, ifMutants[0].Replacement)
	}
	if ifMutants[0].Line != 2 {
		t.Errorf("want IF mutant on line 2, got %d", ifMutants[0].Line)
	}

	itMutants := byeSlug[catalog.IT.Slug]
	if len(itMutants) != 1 {
		t.Fatalf("want exactly one IT mutant, got %d: %+v", len(itMutants), itMutants)
	}
	if itMutants[0].Replacement != "true" || itMutants[0].Original != "x > 0" {
		t.Errorf("want condition %q replaced with %q, got %q -> %q", "x > 0", "true", itMutants[0].Original, itMutants[0].Replacement)
	}

	cosMutants := byeSlug[catalog.COS.Slug]
	if len(cosMutants) != 1 {
		t.Fatalf("want exactly one COS mutant, got %d: %+v", len(cosMutants), cosMutants)
	}
	if cosMutants[0].Original != ">" || cosMutants[0].Replacement != "<" {
		t.Errorf("want > swapped to <, got %q -> %q", cosMutants[0].Original, cosMutants[0].Replacement)
	}
}

func TestGoEngine_booleanIdentifierFlip(t *testing.T) {
	t.Parallel()

	src := "package p\nfunc f() bool { return true }"
	tg := target.Target{ID: 1, Path: "f.go", Language: "Go", Text: src, Hash: target.Hash(src)}

	e := lang.NewGoEngine()
	mutants, err := e.ApplyAll(tg)
	if err != nil {
		t.Fatal(err)
	}

	var cr []target.Mutant
	for _, m := range mutants {
		if m.Slug == catalog.CR.Slug {
			cr = append(cr, m)
		}
	}
	if len(cr) != 1 {
		t.Fatalf("want exactly one CR mutant, got %d: %+v", len(cr), cr)
	}
	if cr[0].Original != "true" || cr[0].Replacement != "false" {
		t.Errorf("want true flipped to false, got %q -> %q", cr[0].Original, cr[0].Replacement)
	}
}

func TestGoEngine_loopBodyClearedNotArbitraryBlock(t *testing.T) {
	t.Parallel()

	src := "package p\nfunc f() { if true { x := 1; _ = x }; for i := 0; i < 3; i++ { y := 1; _ = y } }"
	tg := target.Target{ID: 1, Path: "f.go", Language: "Go", Text: src, Hash: target.Hash(src)}

	e := lang.NewGoEngine()
	mutants, err := e.ApplyAll(tg)
	if err != nil {
		t.Fatal(err)
	}

	var lc []target.Mutant
	for _, m := range mutants {
		if m.Slug == catalog.LC.Slug {
			lc = append(lc, m)
		}
	}
	if len(lc) != 1 {
		t.Fatalf("want exactly one LC mutant (the for-loop body only), got %d: %+v", len(lc), lc)
	}
	if lc[0].Replacement != "{}" {
		t.Errorf("want loop body replaced with {}, got %q", lc[0].Replacement)
	}
}
