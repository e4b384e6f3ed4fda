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

// Package campaign is the orchestrator: it turns a resolved configuration,
// a campaign store and a language registry into a running mutation
// testing campaign, cycling each mutant through apply, test, classify and
// rollback. Execution is strictly serial, with two-tier SIGINT handling:
// a first signal finishes the in-flight mutant and stops scheduling new
// ones, a second abandons the in-flight test run immediately.
package campaign

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trailofbits/mewt/internal/discovery"
	"github.com/trailofbits/mewt/internal/execution"
	"github.com/trailofbits/mewt/internal/lang"
	"github.com/trailofbits/mewt/internal/log"
	"github.com/trailofbits/mewt/internal/store"
	"github.com/trailofbits/mewt/internal/target"
)

const defaultMinTimeout = 5 * time.Second

// errHardStop is returned by the hard-stop watcher goroutine to cancel
// the errgroup's derived context as soon as a second SIGINT arrives,
// rather than waiting for the test command to finish on its own.
var errHardStop = errors.New("campaign: hard stop requested")

// Config is the resolved, merged configuration the runner acts on,
// matching the `[run]`/`[test]`/`[targets]` sections of mewt.toml.
type Config struct {
	Path          string
	TestCmd       []string
	TestTimeout   time.Duration
	Comprehensive bool
	Mutations     map[string]bool // empty = every slug an engine implements
	PerTarget     []PerTargetOverride
}

// PerTargetOverride is one `[[test.per_target]]` entry: the first whose
// Glob matches a target's path wins, overriding cmd/timeout for it.
type PerTargetOverride struct {
	Glob    string
	TestCmd []string
	Timeout time.Duration
}

// Runner is the campaign state machine (C7).
type Runner struct {
	store    *store.Store
	registry *lang.Registry
	rules    discovery.ExclusionRules
	cfg      Config
	hardStop <-chan struct{}
}

// New builds a Runner. hardStop, if non-nil, is closed on a second SIGINT
// and causes the in-flight mutant's test run to be abandoned immediately,
// without classification.
func New(st *store.Store, registry *lang.Registry, rules discovery.ExclusionRules, cfg Config, hardStop <-chan struct{}) *Runner {
	return &Runner{store: st, registry: registry, rules: rules, cfg: cfg, hardStop: hardStop}
}

// Recover restores the one target file marked in-flight in the store, if
// any, before anything else runs. The marker is set in the store right
// before a mutant's replacement text is written to disk and cleared
// right after the original is restored (see runMutant); a marker still
// present at startup means the process died between those two writes on
// a previous run and the file on disk still holds mutated text.
//
// This is deliberately not a hash comparison against every stored
// target: a target's on-disk content can also diverge from its stored
// hash because the user legitimately edited the file between campaign
// runs, which discovery is meant to pick up as a new generation, not
// something Recover should silently stomp back to the old text.
func (r *Runner) Recover() error {
	_, path, text, ok, err := r.store.InFlight()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	log.Infof("restoring %s to its last known-good text after an interrupted run\n", path)
	if err := writeFile(path, text); err != nil {
		return err
	}

	return r.store.ClearInFlight()
}

// Baseline runs the configured test command once against the clean tree
// to establish the default timeout basis. A failing baseline aborts the
// campaign: mutation testing against an already-red suite is meaningless.
func (r *Runner) Baseline(ctx context.Context) (time.Duration, error) {
	timeout := r.cfg.TestTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	v, err := runTestCmd(ctx, r.cfg.Path, r.cfg.TestCmd, timeout)
	if err != nil {
		return 0, execution.NewExitErr(execution.TestSpawn, "running baseline: %v", err)
	}
	if v.status != store.StatusUncaught {
		return 0, execution.NewExitErr(execution.BaselineFail, "baseline test command failed (exit %d)", v.exitCode)
	}
	if err := r.store.SetMeta(store.CampaignMeta{BaselineElapsedMillis: v.elapsed.Milliseconds(), TestCmd: joinCmd(r.cfg.TestCmd)}); err != nil {
		return 0, err
	}

	return v.elapsed, nil
}

func joinCmd(cmd []string) string {
	out := ""
	for i, c := range cmd {
		if i > 0 {
			out += " "
		}
		out += c
	}

	return out
}

// Synthesize (re)generates mutants for every target that does not yet
// have any. Because UpsertTarget keys rows by (path, hash), a target row
// already pins one specific file content; a changed file produces a new
// row via discovery, not a mutation of this one, so "needs regenerating"
// reduces to "this row has no mutants yet".
func (r *Runner) Synthesize(targets []target.Target) error {
	for _, t := range targets {
		engine, ok := r.registry.Resolve(t.Path)
		if !ok {
			continue
		}
		pending, err := r.store.PendingMutants(t.ID)
		if err != nil {
			return err
		}
		existing, err := r.store.Outcomes(store.OutcomeFilter{TargetPath: t.Path})
		if err != nil {
			return err
		}
		hasOutcomes := false
		for _, o := range existing {
			if o.Target.ID == t.ID {
				hasOutcomes = true

				break
			}
		}
		if len(pending) > 0 || hasOutcomes {
			continue
		}

		mutants, err := engine.ApplyAll(t)
		if err != nil {
			log.Errorf("parse failure on %s, skipping: %v\n", t.Path, err)

			continue
		}
		mutants = filterMutations(mutants, r.cfg.Mutations)

		if _, err := r.store.ReplaceMutants(t.ID, mutants); err != nil {
			return err
		}
	}

	return nil
}

func filterMutations(mutants []target.Mutant, whitelist map[string]bool) []target.Mutant {
	if len(whitelist) == 0 {
		return mutants
	}
	kept := make([]target.Mutant, 0, len(mutants))
	for _, m := range mutants {
		if whitelist[m.Slug] {
			kept = append(kept, m)
		}
	}

	return kept
}

// Run tests every pending mutant across every target, in path-sorted
// order. ctx is cancelled on the first SIGINT: the in-flight mutant
// finishes classification and restoration, then the loop returns without
// scheduling more work.
func (r *Runner) Run(ctx context.Context, targets []target.Target) error {
	sort.Slice(targets, func(i, j int) bool { return targets[i].Path < targets[j].Path })

	planner := newSkipPlanner(r.cfg.Comprehensive, r.store.UncaughtLineSeverity)

	for _, t := range targets {
		if ctx.Err() != nil {
			return nil
		}
		if err := r.runTarget(ctx, t, planner); err != nil {
			return err
		}
	}

	return nil
}

// RunIDs tests only the still-pending mutants whose ids are in ids; an id
// that already has an outcome is not run again. It skips the per-line
// severity planner: an explicit id list is an explicit instruction to run
// exactly those mutants.
func (r *Runner) RunIDs(ctx context.Context, targets []target.Target, ids []int64) error {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	byID := make(map[int64]target.Target, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
	}

	for _, t := range targets {
		if ctx.Err() != nil {
			return nil
		}
		testCmd, timeout := r.resolveOverride(t.Path)
		pending, err := r.store.PendingMutants(t.ID)
		if err != nil {
			return err
		}
		for _, m := range pending {
			if !want[m.ID] {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			aborted, err := r.runMutant(ctx, t, m, testCmd, timeout, newSkipPlanner(true, r.store.UncaughtLineSeverity))
			if err != nil {
				return err
			}
			if aborted {
				return nil
			}
		}
	}

	return nil
}

func (r *Runner) runTarget(ctx context.Context, t target.Target, planner *skipPlanner) error {
	testCmd, timeout := r.resolveOverride(t.Path)

	for {
		if ctx.Err() != nil {
			return nil
		}
		pending, err := r.store.PendingMutants(t.ID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		m := pending[0]

		skip, err := planner.ShouldSkip(t.ID, m.Line, m.Slug)
		if err != nil {
			return err
		}
		if skip {
			if err := r.store.RecordOutcome(store.Outcome{MutationID: m.ID, Status: store.StatusSkipped, StartedAt: now()}); err != nil {
				return err
			}

			continue
		}

		aborted, err := r.runMutant(ctx, t, m, testCmd, timeout, planner)
		if err != nil {
			return err
		}
		if aborted {
			return nil
		}
	}
}

// runMutant applies m, runs the test command under timeout, restores the
// original text, and persists the classification. The deliberately
// unused ctx parameter documents that a first SIGINT (which cancels ctx)
// must NOT interrupt a mutant already in flight: spec.md §4.7 requires
// the in-flight mutant to finish classification normally on the first
// signal, and only a second signal (hardStop) may abandon it without
// classifying it. The caller loop still uses ctx to decide whether to
// start another mutant after this one returns.
func (r *Runner) runMutant(_ context.Context, t target.Target, m target.Mutant, testCmd []string, timeout time.Duration, planner *skipPlanner) (aborted bool, err error) {
	if err := r.store.MarkInFlight(t.ID, t.Path, t.Text); err != nil {
		return false, err
	}

	mutated := t.Text[:m.Start] + m.Replacement + t.Text[m.End:]
	if err := writeFile(t.Path, mutated); err != nil {
		return false, err
	}
	defer func() {
		if restoreErr := writeFile(t.Path, t.Text); restoreErr != nil {
			panic(restoreErr)
		}
		if clearErr := r.store.ClearInFlight(); clearErr != nil {
			panic(clearErr)
		}
	}()

	started := now()
	var v verdict
	var runErr error

	// gctx is derived from context.Background(), not from ctx: the test
	// command's deadline and its race against hardStop are the ONLY
	// things allowed to end this run early. Deriving from ctx would let
	// the first SIGINT kill the child through the timeout branch in
	// runTestCmd and persist a bogus Timeout outcome instead of letting
	// the mutant finish normally.
	// The test goroutine always returns a non-nil error so that gctx is
	// cancelled once the command finishes, which releases the watcher.
	errTestDone := errors.New("campaign: test command finished")
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		v, runErr = runTestCmd(gctx, dirOf(t.Path), testCmd, timeout)

		return errTestDone
	})
	g.Go(func() error {
		if r.hardStop == nil {
			<-gctx.Done()

			return nil
		}
		select {
		case <-r.hardStop:
			aborted = true

			return errHardStop
		case <-gctx.Done():
			return nil
		}
	})
	_ = g.Wait()

	// Restore before recording anything: the original text must be back
	// on disk, and the in-flight marker cleared, before the outcome is
	// committed, not merely before this function returns.
	if restoreErr := writeFile(t.Path, t.Text); restoreErr != nil {
		panic(restoreErr)
	}
	if clearErr := r.store.ClearInFlight(); clearErr != nil {
		panic(clearErr)
	}

	if aborted {
		return true, nil
	}
	if runErr != nil {
		return false, execution.NewExitErr(execution.TestSpawn, "running test command for mutant %d: %v", m.ID, runErr)
	}

	if v.status == store.StatusUncaught {
		planner.RecordUncaught(t.ID, m.Line, m.Slug)
	}

	err = r.store.RecordOutcome(store.Outcome{
		MutationID:    m.ID,
		Status:        v.status,
		ElapsedMillis: v.elapsed.Milliseconds(),
		StartedAt:     started,
	})

	return false, err
}

// resolveOverride returns the first [[test.per_target]] entry whose glob
// matches path, falling back to the campaign-wide command and timeout.
func (r *Runner) resolveOverride(path string) ([]string, time.Duration) {
	for _, o := range r.cfg.PerTarget {
		if matched, _ := filepathMatch(o.Glob, path); matched {
			cmd, timeout := o.TestCmd, o.Timeout
			if len(cmd) == 0 {
				cmd = r.cfg.TestCmd
			}
			if timeout == 0 {
				timeout = r.defaultTimeout()
			}

			return cmd, timeout
		}
	}

	return r.cfg.TestCmd, r.defaultTimeout()
}

func (r *Runner) defaultTimeout() time.Duration {
	if r.cfg.TestTimeout > 0 {
		return r.cfg.TestTimeout
	}
	meta, err := r.store.Meta()
	if err == nil && meta.BaselineElapsedMillis > 0 {
		derived := 2 * time.Duration(meta.BaselineElapsedMillis) * time.Millisecond
		if derived > defaultMinTimeout {
			return derived
		}
	}

	return defaultMinTimeout
}
