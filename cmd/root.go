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

// Package cmd hosts the cobra command tree: one thin adaptor per row of
// the CLI surface, each parsing flags into a config/filter struct and
// calling into internal/campaign, internal/store or internal/catalog.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/trailofbits/mewt/cmd/internal/flags"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/log"
)

type mewtCmd struct {
	cmd *cobra.Command
}

// Execute builds and runs the mewt root command. hardStop, if non-nil, is
// closed on a second interrupt signal and aborts the in-flight mutant's
// test run immediately instead of waiting for ctx's graceful shutdown to
// finish classifying it.
func Execute(ctx context.Context, hardStop <-chan struct{}, version string) error {
	root, err := newRootCmd(ctx, hardStop, version)
	if err != nil {
		return err
	}

	return root.cmd.Execute()
}

func newRootCmd(ctx context.Context, hardStop <-chan struct{}, version string) (*mewtCmd, error) {
	if version == "" {
		return nil, errors.New("expected a version string")
	}

	cmd := &cobra.Command{
		Use:           "mewt",
		Short:         shortExplainer(),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig()
		},
	}

	if err := setPersistentFlags(cmd); err != nil {
		return nil, err
	}

	subcommands := []func() (*cobra.Command, error){
		func() (*cobra.Command, error) { return newRunCmd(ctx, hardStop) },
		func() (*cobra.Command, error) { return newMutateCmd(ctx) },
		func() (*cobra.Command, error) { return newTestCmd(ctx, hardStop) },
		func() (*cobra.Command, error) { return newPrintCmd() },
		func() (*cobra.Command, error) { return newResultsCmd() },
		func() (*cobra.Command, error) { return newStatusCmd() },
	}
	for _, build := range subcommands {
		sub, err := build()
		if err != nil {
			return nil, err
		}
		cmd.AddCommand(sub)
	}

	return &mewtCmd{cmd: cmd}, nil
}

// setPersistentFlags binds the mewt.toml-shaped flags every subcommand
// shares: db path, logging, target selection and the default test
// command. run's --comprehensive is local to run, not global.
func setPersistentFlags(cmd *cobra.Command) error {
	fls := []*flags.Flag{
		{Name: "db", CfgKey: dbKey, DefaultV: "mewt.sqlite", Usage: "path to the campaign database"},
		{Name: "log.level", CfgKey: logLevelKey, DefaultV: "info", Usage: "log level: debug, info"},
		{Name: "log.color", CfgKey: logColorKey, DefaultV: true, Usage: "colorize log output"},
		{Name: "targets.include", CfgKey: targetsIncludeKey, DefaultV: []string{}, Usage: "regexes a path must match to be discovered (default: no restriction)"},
		{Name: "targets.ignore", CfgKey: targetsIgnoreKey, DefaultV: []string{}, Usage: "path substrings to exclude from discovery"},
		{Name: "test.cmd", CfgKey: testCmdKey, DefaultV: []string{}, Usage: "the test command to run against each mutant"},
		{Name: "test.timeout", CfgKey: testTimeoutKey, DefaultV: 0, Usage: "per-mutant test timeout in seconds (0: derive from baseline)"},
		{Name: "run.mutations", CfgKey: runMutationsKey, DefaultV: []string{}, Usage: "mutation slug whitelist (default: every slug an engine implements)"},
	}
	for _, f := range fls {
		if err := flags.SetPersistent(cmd, f); err != nil {
			return err
		}
	}

	return nil
}

func initConfig() error {
	wd, err := config.WorkingDir()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	config.Init(wd)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.SetColorEnabled(cfg.Log.Color)

	return nil
}

func shortExplainer() string {
	return heredoc.Doc(`
		mewt is a mutation testing campaign engine: it parses source files with
		tree-sitter, applies small semantic mutations, runs your test command
		against each one, and records which mutants your tests actually catch.
	`)
}

