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

package campaign

import "github.com/trailofbits/mewt/internal/catalog"

// lineKey identifies one line of one target for skip-planner bookkeeping.
type lineKey struct {
	targetID int64
	line     int
}

// skipPlanner implements C8: once the highest-severity mutant on a line
// is classified Uncaught, less-severe-or-equal mutants on that line are
// marked Skipped without running the test command. It holds only the
// per-line maximum Uncaught severity seen so far this run; resume
// behavior is implemented by seeding that value from the store before
// the planner is consulted (see store.Store.UncaughtLineSeverity).
type skipPlanner struct {
	comprehensive bool
	maxUncaught   map[lineKey]int
	seeded        map[lineKey]bool
	seed          func(targetID int64, line int) (int, error)
}

func newSkipPlanner(comprehensive bool, seed func(targetID int64, line int) (int, error)) *skipPlanner {
	return &skipPlanner{
		comprehensive: comprehensive,
		maxUncaught:   make(map[lineKey]int),
		seeded:        make(map[lineKey]bool),
		seed:          seed,
	}
}

// ShouldSkip reports whether m should be recorded Skipped without
// execution, consulting and lazily seeding per-line state from the
// store on first reference to a line.
func (p *skipPlanner) ShouldSkip(targetID int64, line int, slug string) (bool, error) {
	if p.comprehensive {
		return false, nil
	}
	key := lineKey{targetID: targetID, line: line}
	if !p.seeded[key] {
		severity, err := p.seed(targetID, line)
		if err != nil {
			return false, err
		}
		p.maxUncaught[key] = severity
		p.seeded[key] = true
	}

	return catalog.Severity(slug) <= p.maxUncaught[key], nil
}

// RecordUncaught updates the planner's per-line high-water mark after a
// mutant is classified Uncaught.
func (p *skipPlanner) RecordUncaught(targetID int64, line int, slug string) {
	key := lineKey{targetID: targetID, line: line}
	p.seeded[key] = true
	if s := catalog.Severity(slug); s > p.maxUncaught[key] {
		p.maxUncaught[key] = s
	}
}
