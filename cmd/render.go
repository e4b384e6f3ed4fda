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

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trailofbits/mewt/internal/log"
	"github.com/trailofbits/mewt/internal/store"
)

// renderResults writes rows in format, one of table, json, sarif or ids.
func renderResults(rows []store.ResultRow, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		renderResultsTable(rows)
	case "json":
		return renderJSON(rows)
	case "ids":
		renderResultIDs(rows)
	case "sarif":
		return renderSARIF(rows)
	default:
		return fmt.Errorf("unknown --format %q", format)
	}

	return nil
}

func renderResultsTable(rows []store.ResultRow) {
	if len(rows) == 0 {
		log.Infoln("No results.")

		return
	}
	for _, r := range rows {
		log.Infof("%-8s %-6s %s:%d  %s -> %s\n", log.StatusColor(r.Status), r.Mutant.Slug, r.Target.Path, r.Mutant.Line, r.Mutant.Original, r.Mutant.Replacement)
	}
}

func renderResultIDs(rows []store.ResultRow) {
	for _, r := range rows {
		log.Infof("%d\n", r.Mutant.ID)
	}
}

// renderMutants writes rows in format, one of table, json or ids.
func renderMutants(rows []store.MutantRow, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		renderMutantsTable(rows)
	case "json":
		return renderJSON(rows)
	case "ids":
		for _, r := range rows {
			log.Infof("%d\n", r.Mutant.ID)
		}
	default:
		return fmt.Errorf("unknown --format %q", format)
	}

	return nil
}

func renderMutantsTable(rows []store.MutantRow) {
	if len(rows) == 0 {
		log.Infoln("No mutants.")

		return
	}
	for _, r := range rows {
		status := r.Status
		if status == "" {
			status = "Pending"
		}
		log.Infof("%-8s %-6s %s:%d  %s -> %s\n", log.StatusColor(status), r.Mutant.Slug, r.Target.Path, r.Mutant.Line, r.Mutant.Original, r.Mutant.Replacement)
	}
}

func renderJSON(v any) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}
	log.Infof("%s\n", enc)

	return nil
}

// columnAt returns the 1-based column of byte offset off within text,
// counted from the start of the line it falls on.
func columnAt(text string, off int) int {
	if off > len(text) {
		off = len(text)
	}
	nl := strings.LastIndexByte(text[:off], '\n')

	return off - nl
}
