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
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/pattern"
	"github.com/trailofbits/mewt/internal/target"
)

// goEngine is the Engine for Go source, grounded on the grammar vendored
// as github.com/smacker/go-tree-sitter/golang.
type goEngine struct {
	grammar *GrammarHandle
}

// NewGoEngine builds the Go language engine.
func NewGoEngine() Engine {
	return &goEngine{
		grammar: NewGrammarHandle(func() (*sitter.Language, error) {
			return golang.GetLanguage(), nil
		}),
	}
}

func (*goEngine) Name() string          { return "Go" }
func (*goEngine) Extensions() []string  { return []string{"go"} }
func (e *goEngine) Grammar() *GrammarHandle { return e.grammar }

func (*goEngine) Mutations() []catalog.Kind {
	return []catalog.Kind{
		catalog.ER, catalog.CR, catalog.IF, catalog.IT, catalog.WF,
		catalog.AS, catalog.LC, catalog.BL,
		catalog.AOS, catalog.BOS, catalog.LOS, catalog.COS, catalog.SOS,
		catalog.AAOS, catalog.BAOS, catalog.SAOS,
	}
}

var goArithmeticOps = map[string]string{"+": "-", "-": "+", "*": "/", "/": "*", "%": "*"}
var goBitwiseOps = map[string]string{"&": "|", "|": "&", "^": "^", "<<": ">>", ">>": "<<"}
var goLogicalOps = map[string]string{"&&": "||", "||": "&&"}
var goComparisonOps = map[string]string{"<": ">", ">": "<", "<=": ">=", ">=": "<=", "==": "!=", "!=": "=="}
var goShiftOps = map[string]string{"<<": ">>", ">>": "<<"}
var goCompoundArithAssign = map[string]string{"+=": "-=", "-=": "+="}
var goCompoundBitAssign = map[string]string{"&=": "|=", "|=": "&="}
var goCompoundShiftAssign = map[string]string{"<<=": ">>=", ">>=": "<<="}

func (e *goEngine) ApplyAll(t target.Target) ([]target.Mutant, error) {
	p, err := newParser(e.grammar)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	src := []byte(t.Text)
	root := parse(p, src)
	if root == nil {
		return nil, nil
	}

	var edits [][]pattern.Edit
	edits = append(edits,
		pattern.Replace(root, src, []string{"return_statement"}, `panic("mewt: mutated")`, catalog.ER.Slug, nil),
		pattern.ReplaceLiteral(root, src, []string{"true", "false"}, catalog.CR.Slug, goFlipBool),
		pattern.ReplaceLiteral(root, src, []string{"int_literal"}, catalog.CR.Slug, goNegateInt),
		pattern.ReplaceLiteral(root, src, []string{"float_literal"}, catalog.CR.Slug, goNegateFloat),
		pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"false"}, "false", catalog.IF.Slug),
		pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"true"}, "true", catalog.IT.Slug),
		pattern.ReplaceCondition(root, src, "for_statement", "condition", []string{"false"}, "false", catalog.WF.Slug),
		pattern.SwapArgs(root, src, "call_expression", "arguments", catalog.AS.Slug),
		pattern.Replace(root, src, []string{"block"}, "{}", catalog.LC.Slug, goIsLoopBody),
		pattern.DeleteLast(root, src, "block", catalog.BL.Slug),
		pattern.SwapOperator(root, src, "binary_expression", "operator", goArithmeticOps, catalog.AOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", goBitwiseOps, catalog.BOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", goLogicalOps, catalog.LOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", goComparisonOps, catalog.COS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", goShiftOps, catalog.SOS.Slug, nil),
		pattern.SwapOperator(root, src, "assignment_statement", "operator", goCompoundArithAssign, catalog.AAOS.Slug, nil),
		pattern.SwapOperator(root, src, "assignment_statement", "operator", goCompoundBitAssign, catalog.BAOS.Slug, nil),
		pattern.SwapOperator(root, src, "assignment_statement", "operator", goCompoundShiftAssign, catalog.SAOS.Slug, nil),
	)

	return decorate(t, edits...), nil
}

// goFlipBool flips the predeclared "true" and "false", which tree-sitter-go
// parses as their own "true"/"false" node kinds; any other text is
// declined.
func goFlipBool(text string) (string, bool) {
	switch text {
	case "true":
		return "false", true
	case "false":
		return "true", true
	default:
		return "", false
	}
}

func goNegateInt(text string) (string, bool) {
	if strings.HasPrefix(text, "0") && len(text) > 1 {
		// Hex/octal/binary literal: zeroing is still a valid, meaningful
		// mutation; negation is not worth the base-parsing complexity.
		return "0", true
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return "0", true
	}
	if n == 0 {
		return "1", true
	}

	return strconv.FormatInt(-n, 10), true
}

func goNegateFloat(text string) (string, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "0", true
	}
	if f == 0 {
		return "1", true
	}

	return strconv.FormatFloat(-f, 'g', -1, 64), true
}

func goIsLoopBody(_ string, node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil || parent.Type() != "for_statement" {
		return false
	}
	body := parent.ChildByFieldName("body")

	return pattern.SameRange(body, node)
}
