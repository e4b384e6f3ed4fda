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
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/trailofbits/mewt/cmd/internal/flags"
	"github.com/trailofbits/mewt/internal/campaign"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/execution"
	"github.com/trailofbits/mewt/internal/lang"
)

func newTestCmd(ctx context.Context, hardStop <-chan struct{}) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "test [path]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Run previously synthesized mutants",
		Long: heredoc.Doc(`
			Tests mutants already recorded in the campaign database. With --ids or
			--ids-file, only the listed mutant ids are run; otherwise every pending
			mutant across every target is run, same as "mewt run" minus discovery
			and baseline.
		`),
		RunE: runTest(ctx, hardStop),
	}

	fls := []*flags.Flag{
		{Name: "ids", CfgKey: "", DefaultV: "", Usage: "comma-separated mutant ids to run"},
		{Name: "ids-file", CfgKey: "", DefaultV: "", Usage: "file of newline-separated mutant ids to run, or - for stdin"},
	}
	for _, f := range fls {
		if err := flags.Set(cmd, f); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func runTest(ctx context.Context, hardStop <-chan struct{}) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		path := pathArg(args)
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ids, err := resolveIDs(cmd)
		if err != nil {
			return err
		}

		registry := lang.NewDefaultRegistry()
		excl, err := exclusionRules(cfg)
		if err != nil {
			return err
		}

		runner := campaign.New(st, registry, excl, campaignConfig(path, cfg), hardStop)
		if err := runner.Recover(); err != nil {
			return err
		}

		targets, err := st.Targets()
		if err != nil {
			return err
		}

		if len(ids) == 0 {
			return runner.Run(ctx, targets)
		}

		return runner.RunIDs(ctx, targets, ids)
	}
}

func resolveIDs(cmd *cobra.Command) ([]int64, error) {
	csv, err := cmd.Flags().GetString("ids")
	if err != nil {
		return nil, err
	}
	file, err := cmd.Flags().GetString("ids-file")
	if err != nil {
		return nil, err
	}

	var tokens []string
	if csv != "" {
		tokens = append(tokens, strings.Split(csv, ",")...)
	}
	if file != "" {
		fileTokens, err := readIDLines(file)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, fileTokens...)
	}

	ids := make([]int64, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		id, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, execution.NewExitErr(execution.Usage, "invalid mutant id %q: %v", t, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func readIDLines(path string) ([]string, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, execution.NewExitErr(execution.IO, "opening %s: %v", path, err)
		}
		defer func() { _ = f.Close() }()
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, execution.NewExitErr(execution.IO, "reading %s: %v", path, err)
	}

	return lines, nil
}
