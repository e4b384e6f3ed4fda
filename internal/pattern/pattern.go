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

// Package pattern holds the generic, language-agnostic CST-walking
// primitives that every internal/lang engine composes to turn a mutation
// kind's pattern reference into candidate edits. None of these primitives
// know about any specific grammar's node-kind strings; those are supplied
// by the caller, which is what keeps this package reusable across
// languages.
package pattern

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Edit is a single candidate text-range replacement. Start and End are
// byte offsets into the original source; Line is the 1-based line number
// of Start.
type Edit struct {
	Start       int
	End         int
	Replacement string
	Line        int
	Slug        string
}

// Guard suppresses a would-be edit when it returns false. It exists so a
// language engine can install a false-positive guard, e.g. refusing to
// mutate a `<`/`>` pair that is actually a generic-argument delimiter
// rather than a comparison operator.
type Guard func(node *sitter.Node) bool

// Walk performs a pre-order traversal of the CST rooted at n, calling
// visit on every node. If visit returns false, n's children are not
// visited, mirroring the go/ast.Inspect contract.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		Walk(n.Child(i), visit)
	}
}

func lineOf(src []byte, offset int) int {
	line := 1
	if offset > len(src) {
		offset = len(src)
	}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
		}
	}

	return line
}

func toSet(kinds []string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}

	return set
}

func edit(start, end int, src []byte, replacement, slug string) Edit {
	return Edit{
		Start:       start,
		End:         end,
		Replacement: replacement,
		Line:        lineOf(src, start),
		Slug:        slug,
	}
}

// Replace visits every node whose kind is in nodeKinds and whose text
// passes predicate (always passes if predicate is nil), emitting one edit
// that overwrites the node's byte range with replacement. Used for ER,
// LC and BL.
func Replace(root *sitter.Node, src []byte, nodeKinds []string, replacement, slug string, predicate func(text string, node *sitter.Node) bool) []Edit {
	kinds := toSet(nodeKinds)
	var edits []Edit
	Walk(root, func(n *sitter.Node) bool {
		if kinds[n.Type()] {
			text := n.Content(src)
			if predicate == nil || predicate(text, n) {
				edits = append(edits, edit(int(n.StartByte()), int(n.EndByte()), src, replacement, slug))
			}
		}

		return true
	})

	return edits
}

// ReplaceCondition visits every node of parentKind, resolves its
// fieldName child, and emits one edit over that child's byte range
// replacing it with replacement. skipIf lists literal child texts that
// should be left alone because the mutation would be a no-op (e.g. an IT
// mutant on a condition that is already the literal "true"). Used for
// IF, IT and WF.
func ReplaceCondition(root *sitter.Node, src []byte, parentKind, fieldName string, skipIf []string, replacement, slug string) []Edit {
	skip := toSet(skipIf)
	var edits []Edit
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() == parentKind {
			child := n.ChildByFieldName(fieldName)
			if child != nil && !skip[child.Content(src)] {
				edits = append(edits, edit(int(child.StartByte()), int(child.EndByte()), src, replacement, slug))
			}
		}

		return true
	})

	return edits
}

// ReplaceLiteral visits every node whose kind is in literalKinds and
// applies transform to its text. transform returns ok=false to decline
// (e.g. a string or rune literal that CR does not touch). Used for CR.
func ReplaceLiteral(root *sitter.Node, src []byte, literalKinds []string, slug string, transform func(original string) (replacement string, ok bool)) []Edit {
	kinds := toSet(literalKinds)
	var edits []Edit
	Walk(root, func(n *sitter.Node) bool {
		if kinds[n.Type()] {
			text := n.Content(src)
			if newText, ok := transform(text); ok {
				edits = append(edits, edit(int(n.StartByte()), int(n.EndByte()), src, newText, slug))
			}
		}

		return true
	})

	return edits
}

// SwapArgs visits every node of callKind, resolves its argsField child,
// and for each pair of adjacent named children of that node emits one
// edit swapping the two arguments' text (preserving whatever separates
// them, typically ", "). Used for AS.
func SwapArgs(root *sitter.Node, src []byte, callKind, argsField, slug string) []Edit {
	var edits []Edit
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() != callKind {
			return true
		}
		argsNode := n.ChildByFieldName(argsField)
		if argsNode == nil {
			return true
		}
		args := namedChildren(argsNode)
		for i := 0; i+1 < len(args); i++ {
			a, b := args[i], args[i+1]
			between := string(src[a.EndByte():b.StartByte()])
			replacement := b.Content(src) + between + a.Content(src)
			edits = append(edits, edit(int(a.StartByte()), int(b.EndByte()), src, replacement, slug))
		}

		return true
	})

	return edits
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, n.NamedChild(i))
	}

	return children
}

// SwapOperator visits every node of binaryKind, locates its operator
// token (via opField if non-empty, else the first child whose text is a
// key of opMap), and if guard allows it and the operator text is a key
// of opMap, emits an edit replacing the operator token with its mapped
// counterpart. Used for AOS, BOS, LOS, COS, SOS and the compound-
// assignment variants.
func SwapOperator(root *sitter.Node, src []byte, binaryKind, opField string, opMap map[string]string, slug string, guard Guard) []Edit {
	var edits []Edit
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() != binaryKind {
			return true
		}
		opNode := operatorChild(n, opField, src, opMap)
		if opNode == nil {
			return true
		}
		if guard != nil && !guard(opNode) {
			return true
		}
		if repl, ok := opMap[opNode.Content(src)]; ok {
			edits = append(edits, edit(int(opNode.StartByte()), int(opNode.EndByte()), src, repl, slug))
		}

		return true
	})

	return edits
}

// SameRange reports whether a and b denote the same byte range, the
// closest thing to node identity available across two independent
// ChildByFieldName/Child lookups into the same tree.
func SameRange(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}

	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// DeleteLast visits every node of containerKind and, for each one that
// has at least one named child, emits an edit deleting the last named
// child (replacing its range with the empty string). Used for BL: it is
// Replace specialized to "the last statement of a block", since which
// concrete statement kind is "last" varies per call site and can't be
// expressed as a fixed node-kind list.
func DeleteLast(root *sitter.Node, src []byte, containerKind, slug string) []Edit {
	var edits []Edit
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() != containerKind {
			return true
		}
		children := namedChildren(n)
		if len(children) == 0 {
			return true
		}
		last := children[len(children)-1]
		edits = append(edits, edit(int(last.StartByte()), int(last.EndByte()), src, "", slug))

		return true
	})

	return edits
}

func operatorChild(n *sitter.Node, opField string, src []byte, opMap map[string]string) *sitter.Node {
	if opField != "" {
		if c := n.ChildByFieldName(opField); c != nil {
			return c
		}
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if _, ok := opMap[c.Content(src)]; ok {
			return c
		}
	}

	return nil
}
