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
	"path/filepath"
	"strings"
)

// Registry dispatches by file extension to the right Engine. Registration
// order does not matter.
type Registry struct {
	byExt map[string]Engine
	all   []Engine
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Engine)}
}

// Register adds engine to the registry under every extension it claims.
func (r *Registry) Register(engine Engine) {
	r.all = append(r.all, engine)
	for _, ext := range engine.Extensions() {
		r.byExt[strings.ToLower(ext)] = engine
	}
}

// Resolve returns the Engine whose Extensions() contains path's suffix,
// or false if no engine claims it. Failure to resolve silently excludes
// the file from discovery.
func (r *Registry) Resolve(path string) (Engine, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, false
	}
	e, ok := r.byExt[ext]

	return e, ok
}

// Engines returns every registered engine, in registration order.
func (r *Registry) Engines() []Engine {
	return r.all
}

// NewDefaultRegistry builds the Registry with every language engine mewt
// ships: Go, Rust, TypeScript, Python and JavaScript.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoEngine())
	r.Register(NewRustEngine())
	r.Register(NewTypeScriptEngine())
	r.Register(NewPythonEngine())
	r.Register(NewJavaScriptEngine())

	return r
}
