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

// TestTypeScriptEngine_genericArgumentsAreNotComparisonOperators guards
// against the false positive where foo<string, number>(a, b) looks, to a
// naive operator scan, like a pair of < and > comparisons.
func TestTypeScriptEngine_genericArgumentsAreNotComparisonOperators(t *testing.T) {
	t.Parallel()

	src := `const x = foo<string, number>(a, b);`
	tg := target.Target{ID: 1, Path: "f.ts", Language: "TypeScript", Text: src, Hash: target.Hash(src)}

	e := lang.NewTypeScriptEngine()
	mutants, err := e.ApplyAll(tg)
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range mutants {
		if m.Slug == catalog.COS.Slug {
			t.Fatalf("want no COS mutants on a generic argument list, got %+v", m)
		}
	}
}

func TestTypeScriptEngine_ordinaryComparisonStillMutates(t *testing.T) {
	t.Parallel()

	src := `const ok = a < b;`
	tg := target.Target{ID: 1, Path: "f.ts", Language: "TypeScript", Text: src, Hash: target.Hash(src)}

	e := lang.NewTypeScriptEngine()
	mutants, err := e.ApplyAll(tg)
	if err != nil {
		t.Fatal(err)
	}

	var cos []target.Mutant
	for _, m := range mutants {
		if m.Slug == catalog.COS.Slug {
			cos = append(cos, m)
		}
	}
	if len(cos) != 1 {
		t.Fatalf("want exactly one COS mutant on an ordinary comparison, got %d: %+v", len(cos), cos)
	}
	if cos[0].Original != "<" || cos[0].Replacement != ">" {
		t.Errorf("want < swapped to >, got %q -> %q", cos[0].Original, cos[0].Replacement)
	}
}

func TestTypeScriptEngine_argumentSwap(t *testing.T) {
	t.Parallel()

	src := `foo(a, b);`
	tg := target.Target{ID: 1, Path: "f.ts", Language: "TypeScript", Text: src, Hash: target.Hash(src)}

	e := lang.NewTypeScriptEngine()
	mutants, err := e.ApplyAll(tg)
	if err != nil {
		t.Fatal(err)
	}

	var as []target.Mutant
	for _, m := range mutants {
		if m.Slug == catalog.AS.Slug {
			as = append(as, m)
		}
	}
	if len(as) != 1 {
		t.Fatalf("want exactly one AS mutant, got %d: %+v", len(as), as)
	}
	if as[0].Replacement != "b, a" {
		t.Errorf("want arguments swapped to %q, got %q", "b, a", as[0].Replacement)
	}
}
