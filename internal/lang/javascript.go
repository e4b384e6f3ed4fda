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
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/target"
)

type javascriptEngine struct {
	grammar *GrammarHandle
}

// NewJavaScriptEngine builds the JavaScript language engine. JavaScript
// has no generic/type-argument syntax to shadow its comparison and shift
// operators, so it runs jsFamilyEdits with no guard.
func NewJavaScriptEngine() Engine {
	return &javascriptEngine{
		grammar: NewGrammarHandle(func() (*sitter.Language, error) {
			return javascript.GetLanguage(), nil
		}),
	}
}

func (*javascriptEngine) Name() string             { return "JavaScript" }
func (*javascriptEngine) Extensions() []string     { return []string{"js", "jsx", "mjs", "cjs"} }
func (e *javascriptEngine) Grammar() *GrammarHandle { return e.grammar }

func (*javascriptEngine) Mutations() []catalog.Kind {
	return jsFamilyMutations()
}

func (e *javascriptEngine) ApplyAll(t target.Target) ([]target.Mutant, error) {
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

	return decorate(t, jsFamilyEdits(root, src, nil)...), nil
}
