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

// Package store is the embedded, transactional campaign store: a single
// SQLite file holding targets, mutations, outcomes and campaign metadata,
// shaped after snow-ghost-agent's SQLiteAggregator (open, migrate, typed
// query methods over database/sql + mattn/go-sqlite3), but transactional
// where the campaign runner's atomicity and crash-safety invariants
// require it.
package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/trailofbits/mewt/internal/catalog"
	"github.com/trailofbits/mewt/internal/execution"
	"github.com/trailofbits/mewt/internal/target"
)

// Outcome status values.
const (
	StatusUncaught = "Uncaught"
	StatusTestFail = "TestFail"
	StatusSkipped  = "Skipped"
	StatusTimeout  = "Timeout"
)

// Outcome is the classification result of testing one mutant.
type Outcome struct {
	MutationID    int64
	Status        string
	ElapsedMillis int64
	StartedAt     time.Time
}

// Store is a repository-style wrapper around one SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and migrates
// its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "opening %s: %v", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS targets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		language TEXT NOT NULL,
		text TEXT NOT NULL,
		hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(path, hash)
	);
	CREATE INDEX IF NOT EXISTS idx_targets_path ON targets(path);

	CREATE TABLE IF NOT EXISTS mutations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_id INTEGER NOT NULL REFERENCES targets(id),
		slug TEXT NOT NULL,
		severity INTEGER NOT NULL,
		start INTEGER NOT NULL,
		end INTEGER NOT NULL,
		replacement TEXT NOT NULL,
		line INTEGER NOT NULL,
		original TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mutations_target ON mutations(target_id);
	CREATE INDEX IF NOT EXISTS idx_mutations_target_line ON mutations(target_id, line);

	CREATE TABLE IF NOT EXISTS outcomes (
		mutation_id INTEGER PRIMARY KEY REFERENCES mutations(id),
		status TEXT NOT NULL,
		elapsed_millis INTEGER NOT NULL,
		started_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		baseline_elapsed_millis INTEGER NOT NULL DEFAULT 0,
		test_cmd TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS in_flight (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		target_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		text TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return execution.NewExitErr(execution.Store, "migrating schema: %v", err)
	}

	return nil
}

// UpsertTarget resolves (path, hash(text)) to a persisted Target,
// inserting a new row only when that pair has not been seen before. The
// row is immutable once created: a changed file produces a new row and
// new id.
func (s *Store) UpsertTarget(path, language, text string) (target.Target, error) {
	hash := target.Hash(text)

	var id int64
	err := s.db.QueryRow(`SELECT id FROM targets WHERE path = ? AND hash = ?`, path, hash).Scan(&id)
	switch {
	case err == nil:
		return target.Target{ID: id, Path: path, Text: text, Hash: hash, Language: language}, nil
	case err != sql.ErrNoRows:
		return target.Target{}, execution.NewExitErr(execution.Store, "looking up target %s: %v", path, err)
	}

	res, err := s.db.Exec(`INSERT INTO targets (path, language, text, hash) VALUES (?, ?, ?, ?)`, path, language, text, hash)
	if err != nil {
		return target.Target{}, execution.NewExitErr(execution.Store, "inserting target %s: %v", path, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return target.Target{}, execution.NewExitErr(execution.Store, "reading target id for %s: %v", path, err)
	}

	return target.Target{ID: id, Path: path, Text: text, Hash: hash, Language: language}, nil
}

// currentGeneration restricts a query aliasing the targets table as t to
// the newest row per path: UpsertTarget never retires a superseded
// (path, oldHash) row in place, so every read that cares about "the
// target as it exists now" must exclude earlier generations explicitly,
// or a file that was edited and re-discovered would be double-counted
// under both its old and new hash forever.
const currentGeneration = `t.id = (SELECT MAX(id) FROM targets t2 WHERE t2.path = t.path)`

// Targets returns the current generation of every target path, ordered
// by path.
func (s *Store) Targets() ([]target.Target, error) {
	rows, err := s.db.Query(`SELECT id, path, language, text, hash FROM targets t WHERE ` + currentGeneration + ` ORDER BY path`)
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "listing targets: %v", err)
	}
	defer rows.Close()

	var targets []target.Target
	for rows.Next() {
		var t target.Target
		if err := rows.Scan(&t.ID, &t.Path, &t.Language, &t.Text, &t.Hash); err != nil {
			return nil, execution.NewExitErr(execution.Store, "scanning target: %v", err)
		}
		targets = append(targets, t)
	}

	return targets, rows.Err()
}

// TargetByID looks up one target row by id regardless of generation. The
// crash-recovery path needs the exact row that was live when a mutation
// was applied, which may or may not still be the current generation for
// its path.
func (s *Store) TargetByID(id int64) (target.Target, bool, error) {
	var t target.Target
	err := s.db.QueryRow(`SELECT id, path, language, text, hash FROM targets WHERE id = ?`, id).
		Scan(&t.ID, &t.Path, &t.Language, &t.Text, &t.Hash)
	if err == sql.ErrNoRows {
		return target.Target{}, false, nil
	}
	if err != nil {
		return target.Target{}, false, execution.NewExitErr(execution.Store, "looking up target %d: %v", id, err)
	}

	return t, true, nil
}

// MarkInFlight records that targetID's file at path currently holds a
// mutant's replacement text instead of originalText, overwriting any
// previous in-flight marker. It must be committed before the mutated
// text is written to disk, so a crash between the two leaves enough
// state for Recover to undo the write on the next startup.
func (s *Store) MarkInFlight(targetID int64, path, originalText string) error {
	_, err := s.db.Exec(`
		INSERT INTO in_flight (id, target_id, path, text) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET target_id = excluded.target_id, path = excluded.path, text = excluded.text
	`, targetID, path, originalText)
	if err != nil {
		return execution.NewExitErr(execution.Store, "marking target %d in-flight: %v", targetID, err)
	}

	return nil
}

// ClearInFlight removes the in-flight marker once the original text has
// been restored to disk.
func (s *Store) ClearInFlight() error {
	if _, err := s.db.Exec(`DELETE FROM in_flight WHERE id = 1`); err != nil {
		return execution.NewExitErr(execution.Store, "clearing in-flight marker: %v", err)
	}

	return nil
}

// InFlight reports the target/path/text an unfinished apply left marked,
// if any. A non-empty result means the process was interrupted between
// writing a mutant's replacement text and restoring the original.
func (s *Store) InFlight() (targetID int64, path, text string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT target_id, path, text FROM in_flight WHERE id = 1`)
	scanErr := row.Scan(&targetID, &path, &text)
	if scanErr == sql.ErrNoRows {
		return 0, "", "", false, nil
	}
	if scanErr != nil {
		return 0, "", "", false, execution.NewExitErr(execution.Store, "reading in-flight marker: %v", scanErr)
	}

	return targetID, path, text, true, nil
}

// ReplaceMutants atomically deletes every mutant (and outcome) belonging
// to targetID and inserts mutants in its place, inside a single
// transaction. Returned mutants carry their assigned ids.
func (s *Store) ReplaceMutants(targetID int64, mutants []target.Mutant) ([]target.Mutant, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "beginning mutant replace tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM outcomes WHERE mutation_id IN (SELECT id FROM mutations WHERE target_id = ?)`, targetID); err != nil {
		return nil, execution.NewExitErr(execution.Store, "clearing stale outcomes: %v", err)
	}
	if _, err := tx.Exec(`DELETE FROM mutations WHERE target_id = ?`, targetID); err != nil {
		return nil, execution.NewExitErr(execution.Store, "clearing stale mutations: %v", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO mutations (target_id, slug, severity, start, end, replacement, line, original) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "preparing mutant insert: %v", err)
	}
	defer stmt.Close()

	out := make([]target.Mutant, len(mutants))
	for i, m := range mutants {
		res, err := stmt.Exec(targetID, m.Slug, catalog.Severity(m.Slug), m.Start, m.End, m.Replacement, m.Line, m.Original)
		if err != nil {
			return nil, execution.NewExitErr(execution.Store, "inserting mutant %s: %v", m.Slug, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, execution.NewExitErr(execution.Store, "reading mutant id: %v", err)
		}
		m.ID = id
		m.TargetID = targetID
		out[i] = m
	}

	if err := tx.Commit(); err != nil {
		return nil, execution.NewExitErr(execution.Store, "committing mutant replace: %v", err)
	}

	return out, nil
}

// PendingMutants returns the mutants of targetID that have no outcome
// yet, in the (line asc, severity desc, slug asc) order the execution
// loop runs them.
func (s *Store) PendingMutants(targetID int64) ([]target.Mutant, error) {
	rows, err := s.db.Query(`
		SELECT m.id, m.target_id, m.slug, m.start, m.end, m.replacement, m.line, m.original
		FROM mutations m
		LEFT JOIN outcomes o ON o.mutation_id = m.id
		WHERE m.target_id = ? AND o.mutation_id IS NULL
		ORDER BY m.line ASC, m.severity DESC, m.slug ASC
	`, targetID)
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "listing pending mutants: %v", err)
	}
	defer rows.Close()

	var mutants []target.Mutant
	for rows.Next() {
		var m target.Mutant
		if err := rows.Scan(&m.ID, &m.TargetID, &m.Slug, &m.Start, &m.End, &m.Replacement, &m.Line, &m.Original); err != nil {
			return nil, execution.NewExitErr(execution.Store, "scanning mutant: %v", err)
		}
		mutants = append(mutants, m)
	}

	return mutants, rows.Err()
}

// MutantsByIDs resolves a set of mutant ids; ids with no row are skipped.
func (s *Store) MutantsByIDs(ids []int64) ([]target.Mutant, error) {
	var mutants []target.Mutant
	for _, id := range ids {
		var m target.Mutant
		err := s.db.QueryRow(`SELECT id, target_id, slug, start, end, replacement, line, original FROM mutations WHERE id = ?`, id).
			Scan(&m.ID, &m.TargetID, &m.Slug, &m.Start, &m.End, &m.Replacement, &m.Line, &m.Original)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, execution.NewExitErr(execution.Store, "looking up mutant %d: %v", id, err)
		}
		mutants = append(mutants, m)
	}

	return mutants, nil
}

// UncaughtLineSeverity returns the highest severity among mutants already
// classified Uncaught on (targetID, line), or 0 if none. It is how the
// skip planner re-derives its per-line high-water mark from stored
// outcomes on resume.
func (s *Store) UncaughtLineSeverity(targetID int64, line int) (int, error) {
	var severity sql.NullInt64
	err := s.db.QueryRow(`
		SELECT MAX(m.severity)
		FROM mutations m
		JOIN outcomes o ON o.mutation_id = m.id
		WHERE m.target_id = ? AND m.line = ? AND o.status = ?
	`, targetID, line, StatusUncaught).Scan(&severity)
	if err != nil {
		return 0, execution.NewExitErr(execution.Store, "checking line %d severity: %v", line, err)
	}
	if !severity.Valid {
		return 0, nil
	}

	return int(severity.Int64), nil
}

// RecordOutcome commits a single mutant's classification. The mutation_id
// primary key on outcomes enforces "a mutation has zero or one outcome"
// at the schema level.
func (s *Store) RecordOutcome(o Outcome) error {
	_, err := s.db.Exec(`INSERT INTO outcomes (mutation_id, status, elapsed_millis, started_at) VALUES (?, ?, ?, ?)`,
		o.MutationID, o.Status, o.ElapsedMillis, o.StartedAt)
	if err != nil {
		return execution.NewExitErr(execution.Store, "recording outcome for mutant %d: %v", o.MutationID, err)
	}

	return nil
}

// OutcomeFilter narrows the rows Outcomes returns.
type OutcomeFilter struct {
	TargetPath   string
	Status       string
	Language     string
	MutationType string
	Line         int
}

// ResultRow is one joined (mutation, outcome, target) row for reporting.
type ResultRow struct {
	Mutant target.Mutant
	Target target.Target
	Status string
}

// Outcomes lists classified mutants matching filter, joined with their
// target and outcome, ordered by target path then mutant line.
func (s *Store) Outcomes(filter OutcomeFilter) ([]ResultRow, error) {
	query := `
		SELECT t.id, t.path, t.language, t.hash, t.text, m.id, m.target_id, m.slug, m.start, m.end, m.replacement, m.line, m.original, o.status
		FROM outcomes o
		JOIN mutations m ON m.id = o.mutation_id
		JOIN targets t ON t.id = m.target_id
		WHERE ` + currentGeneration + `
	`
	var args []any
	if filter.TargetPath != "" {
		query += ` AND t.path LIKE ?`
		args = append(args, "%"+filter.TargetPath+"%")
	}
	if filter.Status != "" {
		query += ` AND o.status = ?`
		args = append(args, filter.Status)
	}
	if filter.Language != "" {
		query += ` AND t.language = ?`
		args = append(args, filter.Language)
	}
	if filter.MutationType != "" {
		query += ` AND m.slug = ?`
		args = append(args, filter.MutationType)
	}
	if filter.Line != 0 {
		query += ` AND m.line = ?`
		args = append(args, filter.Line)
	}
	query += ` ORDER BY t.path ASC, m.line ASC, m.slug ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "querying outcomes: %v", err)
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(
			&r.Target.ID, &r.Target.Path, &r.Target.Language, &r.Target.Hash, &r.Target.Text,
			&r.Mutant.ID, &r.Mutant.TargetID, &r.Mutant.Slug, &r.Mutant.Start, &r.Mutant.End,
			&r.Mutant.Replacement, &r.Mutant.Line, &r.Mutant.Original, &r.Status,
		); err != nil {
			return nil, execution.NewExitErr(execution.Store, "scanning outcome row: %v", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// MutantRow is one (mutation, target) row with its outcome status, or ""
// if the mutant has not been tested yet.
type MutantRow struct {
	Mutant target.Mutant
	Target target.Target
	Status string
}

// MutantFilter narrows the rows Mutants returns. Tested, if non-nil,
// restricts to classified (true) or still-pending (false) mutants.
type MutantFilter struct {
	TargetPath   string
	Language     string
	MutationType string
	Line         int
	Tested       *bool
}

// Mutants lists every mutant matching filter, joined with its target and,
// if classified, its outcome status.
func (s *Store) Mutants(filter MutantFilter) ([]MutantRow, error) {
	query := `
		SELECT t.id, t.path, t.language, t.hash, m.id, m.target_id, m.slug, m.start, m.end, m.replacement, m.line, m.original, COALESCE(o.status, '')
		FROM mutations m
		JOIN targets t ON t.id = m.target_id
		LEFT JOIN outcomes o ON o.mutation_id = m.id
		WHERE ` + currentGeneration + `
	`
	var args []any
	if filter.TargetPath != "" {
		query += ` AND t.path LIKE ?`
		args = append(args, "%"+filter.TargetPath+"%")
	}
	if filter.Language != "" {
		query += ` AND t.language = ?`
		args = append(args, filter.Language)
	}
	if filter.MutationType != "" {
		query += ` AND m.slug = ?`
		args = append(args, filter.MutationType)
	}
	if filter.Line != 0 {
		query += ` AND m.line = ?`
		args = append(args, filter.Line)
	}
	if filter.Tested != nil {
		if *filter.Tested {
			query += ` AND o.status IS NOT NULL`
		} else {
			query += ` AND o.status IS NULL`
		}
	}
	query += ` ORDER BY t.path ASC, m.line ASC, m.slug ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, execution.NewExitErr(execution.Store, "querying mutants: %v", err)
	}
	defer rows.Close()

	var out []MutantRow
	for rows.Next() {
		var r MutantRow
		if err := rows.Scan(
			&r.Target.ID, &r.Target.Path, &r.Target.Language, &r.Target.Hash,
			&r.Mutant.ID, &r.Mutant.TargetID, &r.Mutant.Slug, &r.Mutant.Start, &r.Mutant.End,
			&r.Mutant.Replacement, &r.Mutant.Line, &r.Mutant.Original, &r.Status,
		); err != nil {
			return nil, execution.NewExitErr(execution.Store, "scanning mutant row: %v", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// CampaignMeta is the singleton row tracking campaign-level state.
type CampaignMeta struct {
	BaselineElapsedMillis int64
	TestCmd               string
}

// Meta reads the campaign_meta row, returning the zero value if it has
// never been written.
func (s *Store) Meta() (CampaignMeta, error) {
	var m CampaignMeta
	err := s.db.QueryRow(`SELECT baseline_elapsed_millis, test_cmd FROM campaign_meta WHERE id = 1`).
		Scan(&m.BaselineElapsedMillis, &m.TestCmd)
	if err == sql.ErrNoRows {
		return CampaignMeta{}, nil
	}
	if err != nil {
		return CampaignMeta{}, execution.NewExitErr(execution.Store, "reading campaign metadata: %v", err)
	}

	return m, nil
}

// SetMeta upserts the singleton campaign_meta row.
func (s *Store) SetMeta(m CampaignMeta) error {
	_, err := s.db.Exec(`
		INSERT INTO campaign_meta (id, baseline_elapsed_millis, test_cmd) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET baseline_elapsed_millis = excluded.baseline_elapsed_millis, test_cmd = excluded.test_cmd
	`, m.BaselineElapsedMillis, m.TestCmd)
	if err != nil {
		return execution.NewExitErr(execution.Store, "writing campaign metadata: %v", err)
	}

	return nil
}
