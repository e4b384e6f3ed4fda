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

package lang

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/trailofbits/mewt/internal/pattern"
	"github.com/trailofbits/mewt/internal/target"
)

// parse hands src to parser and returns the resulting tree's root node,
// or nil if the parser produced no tree at all. A nil result (rather than
// an error) is how a parse failure is communicated to the caller:
// ApplyAll then yields zero mutants for that file. Partial trees with
// ERROR nodes are returned normally and walked as-is.
func parse(p *sitter.Parser, src []byte) *sitter.Node {
	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	return root
}

// decorate turns pattern.Edit values into target.Mutant values for t,
// filling in the original source snippet for display. Edits across
// multiple pattern calls are concatenated and then sorted into a
// deterministic (line, start, slug) order.
func decorate(t target.Target, groups ...[]pattern.Edit) []target.Mutant {
	src := t.Text
	var mutants []target.Mutant
	for _, edits := range groups {
		for _, e := range edits {
			mutants = append(mutants, target.Mutant{
				TargetID:    t.ID,
				Slug:        e.Slug,
				Start:       e.Start,
				End:         e.End,
				Replacement: e.Replacement,
				Line:        e.Line,
				Original:    src[e.Start:e.End],
			})
		}
	}
	sort.SliceStable(mutants, func(i, j int) bool {
		a, b := mutants[i], mutants[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}

		return a.Slug < b.Slug
	})

	return mutants
}

// notGenericBracket guards operator-swap edits on "<" and ">" against the
// common false positive of a generic/type-argument list: a tree-sitter
// grammar that does not fold `foo<string, number>(...)` into its own
// dedicated node kind will often still parse `<`/`>` as plain comparison
// operators inside an otherwise-ordinary binary expression. genericKinds
// lists the node kinds the grammar uses for generic/type-argument lists;
// the mutation is suppressed only when the operator's parent is one of
// them. The operator's siblings are not inspected.
func notGenericBracket(genericKinds []string) pattern.Guard {
	kinds := make(map[string]bool, len(genericKinds))
	for _, k := range genericKinds {
		kinds[k] = true
	}

	return func(op *sitter.Node) bool {
		parent := op.Parent()
		if parent == nil {
			return true
		}

		return !kinds[parent.Type()]
	}
}
