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
	"github.com/smacker/go-tree-sitter/python"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/pattern"
	"github.com/trailofbits/mewt/internal/target"
)

type pythonEngine struct {
	grammar *GrammarHandle
}

// NewPythonEngine builds the Python language engine.
func NewPythonEngine() Engine {
	return &pythonEngine{
		grammar: NewGrammarHandle(func() (*sitter.Language, error) {
			return python.GetLanguage(), nil
		}),
	}
}

func (*pythonEngine) Name() string             { return "Python" }
func (*pythonEngine) Extensions() []string     { return []string{"py"} }
func (e *pythonEngine) Grammar() *GrammarHandle { return e.grammar }

func (*pythonEngine) Mutations() []catalog.Kind {
	return []catalog.Kind{
		catalog.ER, catalog.CR, catalog.IF, catalog.IT, catalog.WF,
		catalog.AS, catalog.LC, catalog.BL,
		catalog.AOS, catalog.BOS, catalog.LOS, catalog.COS,
		catalog.AAOS, catalog.BAOS,
	}
}

var pyArithmeticOps = map[string]string{"+": "-", "-": "+", "*": "/", "/": "*", "%": "*", "//": "*"}
var pyBitwiseOps = map[string]string{"&": "|", "|": "&", "^": "^"}
var pyLogicalOps = map[string]string{"and": "or", "or": "and"}
var pyComparisonOps = map[string]string{"<": ">", ">": "<", "<=": ">=", ">=": "<=", "==": "!=", "!=": "=="}
var pyCompoundArithAssign = map[string]string{"+=": "-=", "-=": "+="}
var pyCompoundBitAssign = map[string]string{"&=": "|=", "|=": "&="}

func (e *pythonEngine) ApplyAll(t target.Target) ([]target.Mutant, error) {
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
		pattern.Replace(root, src, []string{"return_statement"}, `raise RuntimeError("mewt: mutated")`, catalog.ER.Slug, nil),
		pattern.ReplaceLiteral(root, src, []string{"true", "false"}, catalog.CR.Slug, pyFlipBool),
		pattern.ReplaceLiteral(root, src, []string{"integer"}, catalog.CR.Slug, pyNegateInt),
		pattern.ReplaceLiteral(root, src, []string{"float"}, catalog.CR.Slug, pyNegateFloat),
		pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"False"}, "False", catalog.IF.Slug),
		pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"True"}, "True", catalog.IT.Slug),
		pattern.ReplaceCondition(root, src, "while_statement", "condition", []string{"False"}, "False", catalog.WF.Slug),
		pattern.SwapArgs(root, src, "call", "arguments", catalog.AS.Slug),
		pattern.Replace(root, src, []string{"block"}, "pass", catalog.LC.Slug, pyIsLoopBody),
		pattern.DeleteLast(root, src, "block", catalog.BL.Slug),
		pattern.SwapOperator(root, src, "binary_operator", "operator", pyArithmeticOps, catalog.AOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_operator", "operator", pyBitwiseOps, catalog.BOS.Slug, nil),
		pattern.SwapOperator(root, src, "boolean_operator", "operator", pyLogicalOps, catalog.LOS.Slug, nil),
		pattern.SwapOperator(root, src, "comparison_operator", "", pyComparisonOps, catalog.COS.Slug, nil),
		pattern.SwapOperator(root, src, "augmented_assignment", "operator", pyCompoundArithAssign, catalog.AAOS.Slug, nil),
		pattern.SwapOperator(root, src, "augmented_assignment", "operator", pyCompoundBitAssign, catalog.BAOS.Slug, nil),
	}

	return decorate(t, edits...), nil
}

// pyFlipBool is reached only for nodes of kind "true"/"false"; their
// text content is the capitalized keyword, "True" or "False".
func pyFlipBool(text string) (string, bool) {
	if text == "True" {
		return "False", true
	}

	return "True", true
}

func pyNegateInt(text string) (string, bool) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return "0", true
	}
	if n == 0 {
		return "1", true
	}

	return strconv.FormatInt(-n, 10), true
}

func pyNegateFloat(text string) (string, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "0.0", true
	}
	if f == 0 {
		return "1.0", true
	}

	return strconv.FormatFloat(-f, 'g', -1, 64), true
}

func pyIsLoopBody(_ string, node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil || parent.Type() != "while_statement" {
		return false
	}
	body := parent.ChildByFieldName("body")

	return pattern.SameRange(body, node)
}
