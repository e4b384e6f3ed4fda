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
	"github.com/trailofbits/mewt/internal/store"
)

// sarifLog is the root of a SARIF 2.1.0 log, trimmed to the fields mewt
// populates: one run, one tool driver, a flat result list.
type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndColumn   int `json:"endColumn"`
}

// renderSARIF emits one SARIF result per surviving (Uncaught) mutant in
// rows; anything already caught or skipped carries no actionable finding.
func renderSARIF(rows []store.ResultRow) error {
	out := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{Name: "mewt", Version: "1"}},
		}},
	}
	for _, r := range rows {
		if r.Status != store.StatusUncaught {
			continue
		}
		startCol := columnAt(r.Target.Text, r.Mutant.Start)
		endCol := columnAt(r.Target.Text, r.Mutant.End)
		out.Runs[0].Results = append(out.Runs[0].Results, sarifResult{
			RuleID: r.Mutant.Slug,
			Level:  "warning",
			Message: sarifMessage{
				Text: r.Mutant.Original + " survived mutation to " + r.Mutant.Replacement,
			},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: r.Target.Path},
					Region: sarifRegion{
						StartLine:   r.Mutant.Line,
						StartColumn: startCol,
						EndColumn:   endCol,
					},
				},
			}},
		})
	}

	return renderJSON(out)
}
