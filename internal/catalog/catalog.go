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

// Package catalog declares the set of mutation kinds mewt knows about and
// their severities, in the same declarative-table style as the mapping
// tables of a tree-sitter-driven mutation engine: a flat registry the
// pattern engine and language engines look up by slug, never by string
// shape.
package catalog

// PatternRef names the pattern-engine primitive a Kind is implemented with.
// It is opaque to the catalog; only the language engine interprets it.
type PatternRef string

// The pattern-engine primitives of the pattern package, referenced by slug.
const (
	PatternReplace          PatternRef = "replace"
	PatternReplaceCondition PatternRef = "replace_condition"
	PatternReplaceLiteral   PatternRef = "replace_literal"
	PatternSwapArgs         PatternRef = "swap_args"
	PatternSwapOperator     PatternRef = "swap_operator"
)

// Kind is one entry in the mutation catalog: a slug, its severity, a
// human description, and the pattern-engine primitive that implements it.
// Severity is data, never encoded in the slug's spelling — the skip
// planner consults this table, not string shapes.
type Kind struct {
	Slug        string
	Severity    int
	Description string
	Pattern     PatternRef
}

// The common mutation kinds, shared across every language engine that
// chooses to implement them. Severity ranks how likely a mutation is to
// be caught: error/panic replacements are most severe, operator swaps
// least.
var (
	ER = Kind{Slug: "ER", Severity: 100, Description: "Replace an expression or return statement body with a fatal-error sentinel", Pattern: PatternReplace}
	CR = Kind{Slug: "CR", Severity: 40, Description: "Flip boolean literals; negate or zero numeric literals", Pattern: PatternReplaceLiteral}
	IF = Kind{Slug: "IF", Severity: 70, Description: "Rewrite an if condition to false", Pattern: PatternReplaceCondition}
	IT = Kind{Slug: "IT", Severity: 70, Description: "Rewrite an if condition to true", Pattern: PatternReplaceCondition}
	WF = Kind{Slug: "WF", Severity: 70, Description: "Rewrite a while/for condition to false", Pattern: PatternReplaceCondition}
	AS = Kind{Slug: "AS", Severity: 30, Description: "Swap two adjacent positional call arguments", Pattern: PatternSwapArgs}
	LC = Kind{Slug: "LC", Severity: 60, Description: "Replace a loop body with an empty block", Pattern: PatternReplace}
	BL = Kind{Slug: "BL", Severity: 50, Description: "Delete the last statement of a block", Pattern: PatternReplace}

	AOS  = Kind{Slug: "AOS", Severity: 20, Description: "Swap an arithmetic operator (+/-, */÷, %/*)", Pattern: PatternSwapOperator}
	BOS  = Kind{Slug: "BOS", Severity: 15, Description: "Swap a bitwise operator (&/|, ^ permutations, shifts)", Pattern: PatternSwapOperator}
	LOS  = Kind{Slug: "LOS", Severity: 25, Description: "Swap a logical operator (&&/||)", Pattern: PatternSwapOperator}
	COS  = Kind{Slug: "COS", Severity: 35, Description: "Swap a comparison operator (</>, <=/>=, ==/!=)", Pattern: PatternSwapOperator}
	SOS  = Kind{Slug: "SOS", Severity: 15, Description: "Swap a shift operator (<</>>)", Pattern: PatternSwapOperator}
	AAOS = Kind{Slug: "AAOS", Severity: 18, Description: "Swap a compound arithmetic-assignment operator (+=/-=)", Pattern: PatternSwapOperator}
	BAOS = Kind{Slug: "BAOS", Severity: 12, Description: "Swap a compound bitwise-assignment operator (&=/|=)", Pattern: PatternSwapOperator}
	SAOS = Kind{Slug: "SAOS", Severity: 12, Description: "Swap a compound shift-assignment operator (<<=/>>=)", Pattern: PatternSwapOperator}
)

// Common is the union of mutation kinds available to every language engine.
// Not every engine implements every kind; Engine.Mutations reports the
// subset an individual engine actually applies.
var Common = []Kind{ER, CR, IF, IT, WF, AS, LC, BL, AOS, BOS, LOS, COS, SOS, AAOS, BAOS, SAOS}

// bySlug indexes Common by slug for O(1) lookup. Language-specific
// additions are merged in by lang.Engine implementations via Register.
var bySlug = indexBySlug(Common)

func indexBySlug(kinds []Kind) map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		m[k.Slug] = k
	}

	return m
}

// Lookup returns the common Kind for slug, if any.
func Lookup(slug string) (Kind, bool) {
	k, ok := bySlug[slug]

	return k, ok
}

// Register adds language-specific kinds to the global slug index so
// Severity(slug) and Lookup(slug) work uniformly regardless of which
// language engine contributed the kind. Slugs must be unique across the
// whole union.
func Register(kinds ...Kind) {
	for _, k := range kinds {
		bySlug[k.Slug] = k
	}
}

// Severity returns the severity of slug, or 0 if the slug is unknown. The
// skip planner relies on this, never on slug prefixes.
func Severity(slug string) int {
	k, ok := bySlug[slug]
	if !ok {
		return 0
	}

	return k.Severity
}
