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

package catalog_test

import (
	"testing"

	"github.com/trailofbits/mewt/internal/catalog"
)

func TestLookup(t *testing.T) {
	testCases := []struct {
		slug         string
		wantFound    bool
		wantSeverity int
	}{
		{slug: "ER", wantFound: true, wantSeverity: 100},
		{slug: "COS", wantFound: true, wantSeverity: 35},
		{slug: "NOPE", wantFound: false},
	}
	for _, tc := range testCases {
		t.Run(tc.slug, func(t *testing.T) {
			k, ok := catalog.Lookup(tc.slug)
			if ok != tc.wantFound {
				t.Fatalf("want found=%v, got %v", tc.wantFound, ok)
			}
			if ok && k.Severity != tc.wantSeverity {
				t.Errorf("want severity %d, got %d", tc.wantSeverity, k.Severity)
			}
		})
	}
}

func TestSeverity_unknownSlugIsZero(t *testing.T) {
	if got := catalog.Severity("NOT_A_REAL_SLUG"); got != 0 {
		t.Errorf("want 0, got %d", got)
	}
}

func TestRegister_addsToGlobalIndex(t *testing.T) {
	catalog.Register(catalog.Kind{Slug: "ZZTEST", Severity: 7, Description: "test-only kind", Pattern: catalog.PatternReplace})

	k, ok := catalog.Lookup("ZZTEST")
	if !ok {
		t.Fatal("expected registered kind to be found")
	}
	if k.Severity != 7 {
		t.Errorf("want severity 7, got %d", k.Severity)
	}
	if got := catalog.Severity("ZZTEST"); got != 7 {
		t.Errorf("want severity 7, got %d", got)
	}
}

func TestCommon_slugsAreUnique(t *testing.T) {
	seen := make(map[string]bool, len(catalog.Common))
	for _, k := range catalog.Common {
		if seen[k.Slug] {
			t.Errorf("duplicate slug %q in catalog.Common", k.Slug)
		}
		seen[k.Slug] = true
	}
}
