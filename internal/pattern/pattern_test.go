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

package pattern_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/trailofbits/mewt/internal/pattern"
)

// parseGo is the shared test fixture: every primitive is exercised
// against the Go grammar, since it is the grammar the rest of this
// package's consumers exercise most and its node-kind vocabulary
// (if_statement, binary_expression, call_expression, block) covers every
// primitive this file tests.
func parseGo(t *testing.T, src string) (*sitter.Node, []byte) {
	t.Helper()
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	b := []byte(src)
	tree, err := p.ParseCtx(context.Background(), nil, b)
	if err != nil {
		t.Fatal(err)
	}

	return tree.RootNode(), b
}

func TestReplace_matchesByKindAndPredicate(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() int { return 1 }")
	edits := pattern.Replace(root, src, []string{"return_statement"}, `panic("x")`, "ER", nil)
	if len(edits) != 1 {
		t.Fatalf("want 1 edit, got %d: %+v", len(edits), edits)
	}
	if edits[0].Replacement != `panic("x")` || edits[0].Slug != "ER" {
		t.Errorf("unexpected edit: %+v", edits[0])
	}
	if edits[0].Line != 2 {
		t.Errorf("want line 2, got %d", edits[0].Line)
	}
}

func TestReplace_predicateCanSuppressMatches(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() int { return 1 }")
	never := func(string, *sitter.Node) bool { return false }
	edits := pattern.Replace(root, src, []string{"return_statement"}, "x", "ER", never)
	if len(edits) != 0 {
		t.Fatalf("want 0 edits when predicate always declines, got %d", len(edits))
	}
}

func TestReplaceCondition_skipsWhenAlreadyLiteral(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() { if true { } }")
	edits := pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"true"}, "true", "IT")
	if len(edits) != 0 {
		t.Fatalf("want IT suppressed on a condition that is already \"true\", got %+v", edits)
	}

	itEdits := pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"false"}, "false", "IF")
	if len(itEdits) != 1 {
		t.Fatalf("want 1 IF edit, got %d: %+v", len(itEdits), itEdits)
	}
	if itEdits[0].Replacement != "false" {
		t.Errorf("want replacement \"false\", got %q", itEdits[0].Replacement)
	}
}

func TestReplaceLiteral_transformDecides(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() int { return 42 }")
	declineAll := func(string) (string, bool) { return "", false }
	edits := pattern.ReplaceLiteral(root, src, []string{"int_literal"}, "CR", declineAll)
	if len(edits) != 0 {
		t.Fatalf("want 0 edits when transform always declines, got %d", len(edits))
	}

	negate := func(text string) (string, bool) {
		if text == "42" {
			return "-42", true
		}

		return "", false
	}
	edits = pattern.ReplaceLiteral(root, src, []string{"int_literal"}, "CR", negate)
	if len(edits) != 1 || edits[0].Replacement != "-42" {
		t.Fatalf("want one edit replacing 42 with -42, got %+v", edits)
	}
}

func TestSwapArgs_swapsAdjacentPairsPreservingSeparator(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() { g(a, b) }")
	edits := pattern.SwapArgs(root, src, "call_expression", "arguments", "AS")
	if len(edits) != 1 {
		t.Fatalf("want 1 edit, got %d: %+v", len(edits), edits)
	}
	if edits[0].Replacement != "b, a" {
		t.Errorf("want \"b, a\", got %q", edits[0].Replacement)
	}
}

func TestSwapArgs_threeArgsProducesTwoOverlappingPairs(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() { g(a, b, c) }")
	edits := pattern.SwapArgs(root, src, "call_expression", "arguments", "AS")
	if len(edits) != 2 {
		t.Fatalf("want 2 edits for 3 arguments, got %d: %+v", len(edits), edits)
	}
}

func TestSwapOperator_respectsGuard(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f(x int) bool { return x > 0 }")
	ops := map[string]string{">": "<"}

	blockAll := func(*sitter.Node) bool { return false }
	edits := pattern.SwapOperator(root, src, "binary_expression", "operator", ops, "COS", blockAll)
	if len(edits) != 0 {
		t.Fatalf("want 0 edits when guard blocks everything, got %d", len(edits))
	}

	edits = pattern.SwapOperator(root, src, "binary_expression", "operator", ops, "COS", nil)
	if len(edits) != 1 || edits[0].Replacement != "<" {
		t.Fatalf("want 1 edit swapping > to <, got %+v", edits)
	}
}

func TestSwapOperator_onlyMapsKnownOperators(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f(x int) bool { return x == 0 }")
	ops := map[string]string{">": "<"}
	edits := pattern.SwapOperator(root, src, "binary_expression", "operator", ops, "COS", nil)
	if len(edits) != 0 {
		t.Fatalf("want 0 edits for an operator not in the map, got %+v", edits)
	}
}

func TestDeleteLast_deletesOnlyTheLastNamedChild(t *testing.T) {
	t.Parallel()

	root, src := parseGo(t, "package p\nfunc f() { a := 1; b := 2 }")
	edits := pattern.DeleteLast(root, src, "block", "BL")
	if len(edits) == 0 {
		t.Fatal("want at least one edit")
	}
	for _, e := range edits {
		if e.Replacement != "" {
			t.Errorf("want the deleted range replaced with empty string, got %q", e.Replacement)
		}
	}
}

func TestSameRange(t *testing.T) {
	t.Parallel()

	root, _ := parseGo(t, "package p\nfunc f() { for i := 0; i < 1; i++ { } }")
	var forNode *sitter.Node
	pattern.Walk(root, func(n *sitter.Node) bool {
		if n.Type() == "for_statement" {
			forNode = n
		}

		return true
	})
	if forNode == nil {
		t.Fatal("expected to find a for_statement")
	}
	body := forNode.ChildByFieldName("body")
	if !pattern.SameRange(body, body) {
		t.Error("want a node to be SameRange as itself")
	}
	if pattern.SameRange(body, forNode) {
		t.Error("want distinct ranges to not be SameRange")
	}
	if pattern.SameRange(nil, body) {
		t.Error("want SameRange(nil, x) to be false")
	}
}
