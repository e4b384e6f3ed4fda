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
	"time"

	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/trailofbits/mewt/cmd/internal/flags"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/log"
	"github.com/trailofbits/mewt/internal/store"
)

// statusSummary is the reported shape of "mewt status": counts by
// outcome status, the number of mutants not yet tested, and the elapsed
// time of the baseline run most recently recorded.
type statusSummary struct {
	Targets         int            `json:"targets"`
	Pending         int            `json:"pending"`
	ByStatus        map[string]int `json:"by_status"`
	BaselineElapsed string         `json:"baseline_elapsed"`
}

func newStatusCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print campaign progress",
		RunE:  runStatus,
	}
	if err := flags.Set(cmd, &flags.Flag{Name: "format", CfgKey: "", DefaultV: "table", Usage: "table or json"}); err != nil {
		return nil, err
	}

	return cmd, nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
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

	targets, err := st.Targets()
	if err != nil {
		return err
	}

	mutants, err := st.Mutants(store.MutantFilter{})
	if err != nil {
		return err
	}

	summary := statusSummary{Targets: len(targets), ByStatus: map[string]int{}}
	for _, m := range mutants {
		if m.Status == "" {
			summary.Pending++

			continue
		}
		summary.ByStatus[m.Status]++
	}

	meta, err := st.Meta()
	if err != nil {
		return err
	}
	if meta.BaselineElapsedMillis > 0 {
		summary.BaselineElapsed = durafmt.Parse(time.Duration(meta.BaselineElapsedMillis) * time.Millisecond).LimitFirstN(2).String()
	}

	if strings.EqualFold(format, "json") {
		return renderJSON(summary)
	}

	renderStatusTable(summary)

	return nil
}

func renderStatusTable(s statusSummary) {
	logStatusLine("Targets", s.Targets)
	logStatusLine("Pending", s.Pending)
	for _, status := range []string{store.StatusUncaught, store.StatusTestFail, store.StatusSkipped, store.StatusTimeout} {
		logStatusLine(status, s.ByStatus[status])
	}
	if s.BaselineElapsed != "" {
		logStatusLine("Baseline elapsed", s.BaselineElapsed)
	}
}

func logStatusLine(label string, v any) {
	log.Infof("%-18s %v\n", label, v)
}
