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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trailofbits/mewt/cmd/internal/flags"
	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/log"
	"github.com/trailofbits/mewt/internal/store"
)

func newPrintCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print catalog, targets, mutants or the effective configuration",
	}

	subs := []func() (*cobra.Command, error){
		newPrintMutationsCmd,
		newPrintTargetsCmd,
		newPrintMutantsCmd,
		newPrintConfigCmd,
	}
	for _, build := range subs {
		sub, err := build()
		if err != nil {
			return nil, err
		}
		cmd.AddCommand(sub)
	}

	return cmd, nil
}

func newPrintMutationsCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "mutations",
		Short: "List the mutation catalog",
		RunE:  runPrintMutations,
	}
	fls := []*flags.Flag{
		{Name: "language", CfgKey: "", DefaultV: "", Usage: "restrict to the kinds one language engine implements"},
		{Name: "format", CfgKey: "", DefaultV: "table", Usage: "table or json"},
	}
	for _, f := range fls {
		if err := flags.Set(cmd, f); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func runPrintMutations(cmd *cobra.Command, _ []string) error {
	language, _ := cmd.Flags().GetString("language")
	format, _ := cmd.Flags().GetString("format")

	kinds := catalog.Common
	if language != "" {
		registry := lang.NewDefaultRegistry()
		found := false
		for _, e := range registry.Engines() {
			if strings.EqualFold(e.Name(), language) {
				kinds = e.Mutations()
				found = true

				break
			}
		}
		if !found {
			return fmt.Errorf("unknown language %q", language)
		}
	}

	if strings.EqualFold(format, "json") {
		return renderJSON(kinds)
	}
	for _, k := range kinds {
		log.Infof("%-6s %-3d %s\n", k.Slug, k.Severity, k.Description)
	}

	return nil
}

func newPrintTargetsCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List discovered targets",
		RunE:  runPrintTargets,
	}
	if err := flags.Set(cmd, &flags.Flag{Name: "format", CfgKey: "", DefaultV: "table", Usage: "table or json"}); err != nil {
		return nil, err
	}

	return cmd, nil
}

func runPrintTargets(cmd *cobra.Command, _ []string) error {
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

	if strings.EqualFold(format, "json") {
		return renderJSON(targets)
	}
	for _, t := range targets {
		log.Infof("%-8s %s\n", t.Language, t.Path)
	}

	return nil
}

func newPrintMutantsCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "mutants",
		Short: "List mutants, tested or pending",
		RunE:  runPrintMutants,
	}
	fls := []*flags.Flag{
		{Name: "target", CfgKey: "", DefaultV: "", Usage: "restrict to targets whose path contains this substring"},
		{Name: "tested", CfgKey: "", DefaultV: false, Usage: "only already-classified mutants"},
		{Name: "untested", CfgKey: "", DefaultV: false, Usage: "only still-pending mutants"},
		{Name: "status", CfgKey: "", DefaultV: "", Usage: "Uncaught, TestFail, Skipped or Timeout"},
		{Name: "language", CfgKey: "", DefaultV: "", Usage: "restrict to one language"},
		{Name: "mutation_type", CfgKey: "", DefaultV: "", Usage: "restrict to one mutation slug"},
		{Name: "line", CfgKey: "", DefaultV: 0, Usage: "restrict to one source line"},
		{Name: "format", CfgKey: "", DefaultV: "table", Usage: "table, json or ids"},
	}
	for _, f := range fls {
		if err := flags.Set(cmd, f); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func runPrintMutants(cmd *cobra.Command, _ []string) error {
	target, _ := cmd.Flags().GetString("target")
	tested, _ := cmd.Flags().GetBool("tested")
	untested, _ := cmd.Flags().GetBool("untested")
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

	filter := store.MutantFilter{
		TargetPath:   target,
		Language:     language,
		MutationType: mutationType,
		Line:         line,
	}
	switch {
	case tested && untested:
		return fmt.Errorf("--tested and --untested are mutually exclusive")
	case tested:
		v := true
		filter.Tested = &v
	case untested:
		v := false
		filter.Tested = &v
	}

	if status, _ := cmd.Flags().GetString("status"); status != "" {
		status = canonicalStatus(status)
		rows, err := st.Mutants(filter)
		if err != nil {
			return err
		}
		filtered := rows[:0]
		for _, r := range rows {
			if r.Status == status {
				filtered = append(filtered, r)
			}
		}

		return renderMutants(filtered, format)
	}

	rows, err := st.Mutants(filter)
	if err != nil {
		return err
	}

	return renderMutants(rows, format)
}

func newPrintConfigCmd() (*cobra.Command, error) {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective merged configuration",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			return renderJSON(cfg)
		},
	}, nil
}
