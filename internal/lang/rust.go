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

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/pattern"
	"github.com/trailofbits/mewt/internal/target"
)

type rustEngine struct {
	grammar *GrammarHandle
}

// NewRustEngine builds the Rust language engine.
func NewRustEngine() Engine {
	return &rustEngine{
		grammar: NewGrammarHandle(func() (*sitter.Language, error) {
			return rust.GetLanguage(), nil
		}),
	}
}

func (*rustEngine) Name() string             { return "Rust" }
func (*rustEngine) Extensions() []string     { return []string{"rs"} }
func (e *rustEngine) Grammar() *GrammarHandle { return e.grammar }

func (*rustEngine) Mutations() []catalog.Kind {
	return []catalog.Kind{
		catalog.ER, catalog.CR, catalog.IF, catalog.IT, catalog.WF,
		catalog.AS, catalog.LC, catalog.BL,
		catalog.AOS, catalog.BOS, catalog.LOS, catalog.COS,
		catalog.AAOS, catalog.BAOS,
	}
}

var rustArithmeticOps = map[string]string{"+": "-", "-": "+", "*": "/", "/": "*", "%": "*"}
var rustBitwiseOps = map[string]string{"&": "|", "|": "&", "^": "^"}
var rustLogicalOps = map[string]string{"&&": "||", "||": "&&"}
var rustComparisonOps = map[string]string{"<": ">", ">": "<", "<=": ">=", ">=": "<=", "==": "!=", "!=": "=="}
var rustCompoundArithAssign = map[string]string{"+=": "-=", "-=": "+="}
var rustCompoundBitAssign = map[string]string{"&=": "|=", "|=": "&="}

func (e *rustEngine) ApplyAll(t target.Target) ([]target.Mutant, error) {
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

	edits := [][]pattern.Edit{
		pattern.Replace(root, src, []string{"return_expression"}, `panic!("mewt: mutated")`, catalog.ER.Slug, nil),
		pattern.ReplaceLiteral(root, src, []string{"boolean_literal"}, catalog.CR.Slug, rustFlipBool),
		pattern.ReplaceLiteral(root, src, []string{"integer_literal"}, catalog.CR.Slug, rustNegateInt),
		pattern.ReplaceLiteral(root, src, []string{"float_literal"}, catalog.CR.Slug, rustNegateFloat),
		pattern.ReplaceCondition(root, src, "if_expression", "condition", []string{"false"}, "false", catalog.IF.Slug),
		pattern.ReplaceCondition(root, src, "if_expression", "condition", []string{"true"}, "true", catalog.IT.Slug),
		pattern.ReplaceCondition(root, src, "while_expression", "condition", []string{"false"}, "false", catalog.WF.Slug),
		pattern.SwapArgs(root, src, "call_expression", "arguments", catalog.AS.Slug),
		pattern.Replace(root, src, []string{"block"}, "{}", catalog.LC.Slug, rustIsLoopBody),
		pattern.DeleteLast(root, src, "block", catalog.BL.Slug),
		pattern.SwapOperator(root, src, "binary_expression", "operator", rustArithmeticOps, catalog.AOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", rustBitwiseOps, catalog.BOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", rustLogicalOps, catalog.LOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", rustComparisonOps, catalog.COS.Slug, nil),
		pattern.SwapOperator(root, src, "compound_assignment_expr", "operator", rustCompoundArithAssign, catalog.AAOS.Slug, nil),
		pattern.SwapOperator(root, src, "compound_assignment_expr", "operator", rustCompoundBitAssign, catalog.BAOS.Slug, nil),
	}

	return decorate(t, edits...), nil
}

func rustFlipBool(text string) (string, bool) {
	if text == "true" {
		return "false", true
	}

	return "true", true
}

func rustNegateInt(text string) (string, bool) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return "0", true
	}
	if n == 0 {
		return "1", true
	}

	return strconv.FormatInt(-n, 10), true
}

func rustNegateFloat(text string) (string, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "0.0", true
	}
	if f == 0 {
		return "1.0", true
	}

	return strconv.FormatFloat(-f, 'g', -1, 64), true
}

func rustIsLoopBody(_ string, node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "while_expression", "loop_expression":
		return pattern.SameRange(parent.ChildByFieldName("body"), node)
	default:
		return false
	}
}
