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
	"context"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/trailofbits/mewt/internal/campaign"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/log"
)

func newMutateCmd(ctx context.Context) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "mutate [path]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Discover targets and generate mutants without running tests",
		Long: heredoc.Doc(`
			Discovers targets and generates mutants for any target that does not
			already have any, recording them in the campaign database. No test
			command is run; use "mewt test" afterward to classify the mutants it
			produces.
		`),
		RunE: runMutate(ctx),
	}

	return cmd, nil
}

func runMutate(_ context.Context) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
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

		registry := lang.NewDefaultRegistry()
		excl, err := exclusionRules(cfg)
		if err != nil {
			return err
		}
		incl, err := inclusionRules(cfg)
		if err != nil {
			return err
		}

		targets, err := discoverTargets(path, registry, incl, excl, st)
		if err != nil {
			return err
		}

		runner := campaign.New(st, registry, excl, campaignConfig(path, cfg), nil)
		if err := runner.Synthesize(targets); err != nil {
			return err
		}

		log.Infof("Discovered and synthesized mutants for %d targets\n", len(targets))

		return nil
	}
}
