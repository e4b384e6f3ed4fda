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
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/pattern"
	"github.com/trailofbits/mewt/internal/target"
)

type typescriptEngine struct {
	grammar *GrammarHandle
}

// NewTypeScriptEngine builds the TypeScript language engine. It shares
// its mutation set and node-kind vocabulary with JavaScript, since
// tree-sitter-typescript is a superset grammar of tree-sitter-javascript,
// plus the generic/type-argument false-positive guard neither plain
// JavaScript nor Go need.
func NewTypeScriptEngine() Engine {
	return &typescriptEngine{
		grammar: NewGrammarHandle(func() (*sitter.Language, error) {
			return typescript.GetLanguage(), nil
		}),
	}
}

func (*typescriptEngine) Name() string             { return "TypeScript" }
func (*typescriptEngine) Extensions() []string     { return []string{"ts", "tsx"} }
func (e *typescriptEngine) Grammar() *GrammarHandle { return e.grammar }

func (*typescriptEngine) Mutations() []catalog.Kind {
	return jsFamilyMutations()
}

var tsGenericGuard = notGenericBracket([]string{"type_arguments", "type_parameters"})

func (e *typescriptEngine) ApplyAll(t target.Target) ([]target.Mutant, error) {
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

	return decorate(t, jsFamilyEdits(root, src, tsGenericGuard)...), nil
}

// jsFamilyMutations is the mutation set shared by the TypeScript and
// JavaScript engines: both grammars expose the same node-kind vocabulary
// for the constructs mewt mutates.
func jsFamilyMutations() []catalog.Kind {
	return []catalog.Kind{
		catalog.ER, catalog.CR, catalog.IF, catalog.IT, catalog.WF,
		catalog.AS, catalog.LC, catalog.BL,
		catalog.AOS, catalog.BOS, catalog.LOS, catalog.COS, catalog.SOS,
		catalog.AAOS, catalog.BAOS, catalog.SAOS,
	}
}

var jsArithmeticOps = map[string]string{"+": "-", "-": "+", "*": "/", "/": "*", "%": "*"}
var jsBitwiseOps = map[string]string{"&": "|", "|": "&", "^": "^", "<<": ">>", ">>": "<<"}
var jsLogicalOps = map[string]string{"&&": "||", "||": "&&"}
var jsComparisonOps = map[string]string{
	"<": ">", ">": "<", "<=": ">=", ">=": "<=",
	"==": "!=", "!=": "==", "===": "!==", "!==": "===",
}
var jsShiftOps = map[string]string{"<<": ">>", ">>": "<<"}
var jsCompoundArithAssign = map[string]string{"+=": "-=", "-=": "+="}
var jsCompoundBitAssign = map[string]string{"&=": "|=", "|=": "&="}
var jsCompoundShiftAssign = map[string]string{"<<=": ">>=", ">>=": "<<="}

// jsFamilyEdits runs every pattern against root/src using the node-kind
// vocabulary shared by tree-sitter-javascript and tree-sitter-typescript.
// guard, if non-nil, is applied to every bitwise, comparison and shift
// operator swap;
// TypeScript passes its generic-bracket guard, JavaScript passes nil.
func jsFamilyEdits(root *sitter.Node, src []byte, guard pattern.Guard) [][]pattern.Edit {
	return [][]pattern.Edit{
		pattern.Replace(root, src, []string{"return_statement"}, "throw new Error(\"mewt: mutated\")", catalog.ER.Slug, nil),
		pattern.ReplaceLiteral(root, src, []string{"true", "false"}, catalog.CR.Slug, jsFlipBool),
		pattern.ReplaceLiteral(root, src, []string{"number"}, catalog.CR.Slug, jsNegateNumber),
		pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"false"}, "false", catalog.IF.Slug),
		pattern.ReplaceCondition(root, src, "if_statement", "condition", []string{"true"}, "true", catalog.IT.Slug),
		pattern.ReplaceCondition(root, src, "while_statement", "condition", []string{"false"}, "false", catalog.WF.Slug),
		pattern.SwapArgs(root, src, "call_expression", "arguments", catalog.AS.Slug),
		pattern.Replace(root, src, []string{"statement_block"}, "{}", catalog.LC.Slug, jsIsLoopBody),
		pattern.DeleteLast(root, src, "statement_block", catalog.BL.Slug),
		pattern.SwapOperator(root, src, "binary_expression", "operator", jsArithmeticOps, catalog.AOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", jsBitwiseOps, catalog.BOS.Slug, guard),
		pattern.SwapOperator(root, src, "binary_expression", "operator", jsLogicalOps, catalog.LOS.Slug, nil),
		pattern.SwapOperator(root, src, "binary_expression", "operator", jsComparisonOps, catalog.COS.Slug, guard),
		pattern.SwapOperator(root, src, "binary_expression", "operator", jsShiftOps, catalog.SOS.Slug, guard),
		pattern.SwapOperator(root, src, "augmented_assignment_expression", "operator", jsCompoundArithAssign, catalog.AAOS.Slug, nil),
		pattern.SwapOperator(root, src, "augmented_assignment_expression", "operator", jsCompoundBitAssign, catalog.BAOS.Slug, nil),
		pattern.SwapOperator(root, src, "augmented_assignment_expression", "operator", jsCompoundShiftAssign, catalog.SAOS.Slug, nil),
	}
}

func jsFlipBool(text string) (string, bool) {
	if text == "true" {
		return "false", true
	}

	return "true", true
}

func jsNegateNumber(text string) (string, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "0", true
	}
	if f == 0 {
		return "1", true
	}

	return strconv.FormatFloat(-f, 'g', -1, 64), true
}

func jsIsLoopBody(_ string, node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "while_statement", "for_statement", "for_in_statement", "do_statement":
		return pattern.SameRange(parent.ChildByFieldName("body"), node)
	default:
		return false
	}
}
