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
	"strings"

	"github.com/spf13/cobra"

	"github.com/trailofbits/mewt/cmd/internal/flags"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/store"
)

// canonicalStatus maps a case-insensitive --status value to the exact
// spelling stored in the outcomes table, leaving anything unrecognized
// as-is so a typo surfaces as "no rows" rather than a silent no-op.
func canonicalStatus(s string) string {
	for _, known := range []string{store.StatusUncaught, store.StatusTestFail, store.StatusSkipped, store.StatusTimeout} {
		if strings.EqualFold(s, known) {
			return known
		}
	}

	return s
}

func newResultsCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List classified mutant outcomes",
		RunE:  runResults,
	}

	fls := []*flags.Flag{
		{Name: "target", CfgKey: "", DefaultV: "", Usage: "restrict to targets whose path contains this substring"},
		{Name: "status", CfgKey: "", DefaultV: "", Usage: "Uncaught, TestFail, Skipped or Timeout"},
		{Name: "language", CfgKey: "", DefaultV: "", Usage: "restrict to one language"},
		{Name: "mutation_type", CfgKey: "", DefaultV: "", Usage: "restrict to one mutation slug"},
		{Name: "line", CfgKey: "", DefaultV: 0, Usage: "restrict to one source line"},
		{Name: "format", CfgKey: "", DefaultV: "table", Usage: "table, json, sarif or ids"},
	}
	for _, f := range fls {
		if err := flags.Set(cmd, f); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func runResults(cmd *cobra.Command, _ []string) error {
	target, _ := cmd.Flags().GetString("target")
	status, _ := cmd.Flags().GetString("status")
	language, _ := cmd.Flags().GetString("language")
	mutationType, _ := cmd.Flags().GetString("mutation_type")
	line, _ := cmd.Flags().GetInt("line")
	format, _ := cmd.Flags().GetString("format")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if status != "" {
		status = canonicalStatus(status)
	}

	rows, err := st.Outcomes(store.OutcomeFilter{
		TargetPath:   target,
		Status:       status,
		Language:     language,
		MutationType: mutationType,
		Line:         line,
	})
	if err != nil {
		return err
	}

	return renderResults(rows, format)
}
