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
	"github.com/spf13/viper"

	"github.com/trailofbits/mewt/cmd/internal/flags"
	"github.com/trailofbits/mewt/internal/campaign"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/log"
)

func newRunCmd(ctx context.Context, hardStop <-chan struct{}) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Run a full mutation testing campaign",
		Long: heredoc.Doc(`
			Discovers targets, establishes a baseline by running the configured test
			command once against the clean tree, generates mutants for any target
			that doesn't already have any, and tests every pending mutant.

			A second interrupt abandons the in-flight mutant's test run immediately
			instead of waiting for it to finish.
		`),
		RunE: runRun(ctx, hardStop),
	}

	if err := flags.Set(cmd, &flags.Flag{
		Name: "comprehensive", CfgKey: runComprehensiveKey, DefaultV: false,
		Usage: "keep testing every mutant on a line even after one is caught",
	}); err != nil {
		return nil, err
	}

	return cmd, nil
}

func runRun(ctx context.Context, hardStop <-chan struct{}) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		path := pathArg(args)
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Run.Comprehensive = viper.GetBool(runComprehensiveKey)

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

		runner := campaign.New(st, registry, excl, campaignConfig(path, cfg), hardStop)
		if err := runner.Recover(); err != nil {
			return err
		}

		targets, err := discoverTargets(path, registry, incl, excl, st)
		if err != nil {
			return err
		}

		log.Infoln("Running baseline...")
		elapsed, err := runner.Baseline(ctx)
		if err != nil {
			return err
		}
		log.Infof("Baseline passed in %s\n", elapsed)

		if err := runner.Synthesize(targets); err != nil {
			return err
		}

		log.Infoln("Testing mutants...")

		return runner.Run(ctx, targets)
	}
}
