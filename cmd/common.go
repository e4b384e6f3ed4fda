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
	"os"
	"strings"
	"time"

	"github.com/trailofbits/mewt/internal/campaign"
	"github.com/trailofbits/mewt/internal/config"
	"github.com/trailofbits/mewt/internal/discovery"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/store"
	"github.com/trailofbits/mewt/internal/target"
)

// discoverTargets walks path and upserts every discovered file into st,
// the shared step of run, mutate and test.
func discoverTargets(path string, registry *lang.Registry, incl discovery.InclusionRules, excl discovery.ExclusionRules, st *store.Store) ([]target.Target, error) {
	return discovery.Discover(path, registry, incl, excl, st)
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.DB)
}

func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	wd, err := config.WorkingDir()
	if err != nil {
		return "."
	}

	return wd
}

func exclusionRules(cfg *config.Config) (discovery.ExclusionRules, error) {
	return discovery.NewExclusionRules(cfg.Targets.Ignore)
}

func inclusionRules(cfg *config.Config) (discovery.InclusionRules, error) {
	return discovery.NewInclusionRules(cfg.Targets.Include)
}

// campaignConfig translates the merged file/flag configuration plus the
// resolved project path into the Config the campaign runner consumes.
func campaignConfig(path string, cfg *config.Config) campaign.Config {
	whitelist := make(map[string]bool, len(cfg.Run.Mutations))
	for _, slug := range cfg.Run.Mutations {
		whitelist[strings.ToUpper(slug)] = true
	}

	overrides := make([]campaign.PerTargetOverride, 0, len(cfg.Test.PerTarget))
	for _, o := range cfg.Test.PerTarget {
		overrides = append(overrides, campaign.PerTargetOverride{
			Glob:    o.Glob,
			TestCmd: o.Cmd,
			Timeout: time.Duration(o.Timeout) * time.Second,
		})
	}

	return campaign.Config{
		Path:          path,
		TestCmd:       cfg.Test.Cmd,
		TestTimeout:   time.Duration(cfg.Test.Timeout) * time.Second,
		Comprehensive: cfg.Run.Comprehensive,
		Mutations:     whitelist,
		PerTarget:     overrides,
	}
}

// HardStopOnSecondSignal returns a channel closed the first time a signal
// arrives on stop. main wires stop to a signal.Notify channel that has
// already been drained once for the graceful-shutdown context, so the
// signal this function observes is the *second* SIGINT/SIGTERM: the
// immediate-abort case, where the in-flight mutant's test run is
// abandoned without waiting for it to finish.
func HardStopOnSecondSignal(stop <-chan os.Signal) <-chan struct{} {
	hard := make(chan struct{})
	go func() {
		<-stop
		close(hard)
	}()

	return hard
}
