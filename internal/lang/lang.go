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

// Package lang is the language plug-in surface: a uniform capability
// contract each supported language implements (extensions, grammar
// handle, mutation catalog subset, mutant generator).
package lang

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/target"
)

// Engine is the capability set every language plug-in supplies.
type Engine interface {
	// Name is the display name, e.g. "Go", "Rust".
	Name() string

	// Extensions are the file extensions this engine claims, lowercased,
	// without the leading dot.
	Extensions() []string

	// Grammar returns the lazily-initialized, thread-safe grammar handle.
	Grammar() *GrammarHandle

	// Mutations is the union of common and language-specific kinds this
	// engine actually implements.
	Mutations() []catalog.Kind

	// ApplyAll parses t.Text and returns every mutant this engine can
	// produce for it. ApplyAll is a pure function of (grammar version,
	// t.Text, Mutations()): identical inputs must yield an identical
	// output sequence, in source order. A parse failure yields an empty
	// result and a nil error — partial/error nodes are walked normally.
	ApplyAll(t target.Target) ([]target.Mutant, error)
}

// GrammarHandle is a thread-safe, lazily-initialized handle to a
// language's tree-sitter grammar. It is process-wide state: the grammar
// is loaded once and the handle is immutable after that.
type GrammarHandle struct {
	once sync.Once
	lang *sitter.Language
	err  error
	load func() (*sitter.Language, error)
}

// NewGrammarHandle wraps a loader function in a GrammarHandle. load is
// invoked at most once, the first time Get is called.
func NewGrammarHandle(load func() (*sitter.Language, error)) *GrammarHandle {
	return &GrammarHandle{load: load}
}

// Get returns the initialized grammar, loading it on first call. A
// non-nil error here is a GrammarLoad failure and is fatal at startup
// for the owning language.
func (g *GrammarHandle) Get() (*sitter.Language, error) {
	g.once.Do(func() {
		g.lang, g.err = g.load()
	})

	return g.lang, g.err
}

// newParser builds a ready-to-use parser for the engine's grammar, or
// returns an error wrapping the GrammarHandle's load failure.
func newParser(h *GrammarHandle) (*sitter.Parser, error) {
	grammar, err := h.Get()
	if err != nil {
		return nil, err
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)

	return p, nil
}
