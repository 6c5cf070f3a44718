// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed runs in a SQLite database so earlier
// triage output can be listed and searched without re-running discovery.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/source-triage/internal/research"
	"github.com/pdiddy/source-triage/pkg/types"
)

const dbFile = "archive.db"

// Store manages the run archive database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at dir/archive.db and
// creates the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			technique_id TEXT NOT NULL,
			technique_name TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER,
			result_count INTEGER,
			excluded_count INTEGER,
			gaps TEXT,
			warnings TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_technique ON runs(technique_id)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			url TEXT NOT NULL,
			title TEXT,
			snippet TEXT,
			domain TEXT,
			category TEXT,
			tier INTEGER,
			position INTEGER,
			score REAL,
			label TEXT,
			excluded INTEGER NOT NULL DEFAULT 0,
			analysis TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE results_fts USING fts5(title, snippet, content=results, content_rowid=rowid)`,
			`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
				INSERT INTO results_fts(rowid, title, snippet) VALUES (new.rowid, new.title, new.snippet);
			END`,
			`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, title, snippet) VALUES('delete', old.rowid, old.title, old.snippet);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// SaveRun stores a completed run and its results. It returns the new run's
// archive ID.
func (s *Store) SaveRun(ctx context.Context, run *research.RunResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	gapsJSON, _ := json.Marshal(run.Summary.Gaps)
	warningsJSON, _ := json.Marshal(run.Warnings)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (technique_id, technique_name, started_at, duration_ms, result_count, excluded_count, gaps, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Technique.ID, run.Technique.Name,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Duration.Milliseconds(),
		len(run.Summary.Results), len(run.Summary.Excluded),
		string(gapsJSON), string(warningsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, url, title, snippet, domain, category, tier, position, score, label, excluded, analysis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(r types.ScoredResult, excluded bool) error {
		var analysisJSON []byte
		if r.Analysis != nil {
			analysisJSON, _ = json.Marshal(r.Analysis)
		}
		_, err := stmt.ExecContext(ctx,
			runID, r.URL, r.Title, r.Snippet, r.Domain, r.Category,
			r.Tier, r.Position, r.Score.Value, string(r.Score.Label),
			excluded, string(analysisJSON),
		)
		return err
	}
	for _, r := range run.Summary.Results {
		if err := insert(r, false); err != nil {
			return 0, fmt.Errorf("inserting result %s: %w", r.URL, err)
		}
	}
	for _, r := range run.Summary.Excluded {
		if err := insert(r, true); err != nil {
			return 0, fmt.Errorf("inserting excluded result %s: %w", r.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RunSummary is one archived run's header row.
type RunSummary struct {
	ID            int64     `json:"id" yaml:"id"`
	TechniqueID   string    `json:"technique_id" yaml:"technique_id"`
	TechniqueName string    `json:"technique_name" yaml:"technique_name"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	ResultCount   int       `json:"result_count" yaml:"result_count"`
	ExcludedCount int       `json:"excluded_count" yaml:"excluded_count"`
}

// ListRuns returns archived runs, newest first, optionally filtered by
// technique ID. A zero limit uses the store default.
func (s *Store) ListRuns(ctx context.Context, techniqueID string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	query := `SELECT id, technique_id, technique_name, started_at, result_count, excluded_count
		FROM runs`
	var args []any
	if techniqueID != "" {
		query += ` WHERE technique_id = ?`
		args = append(args, techniqueID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		if err := rows.Scan(&r.ID, &r.TechniqueID, &r.TechniqueName, &started, &r.ResultCount, &r.ExcludedCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SearchHit is one full-text match over archived result titles and
// snippets.
type SearchHit struct {
	RunID       int64   `json:"run_id" yaml:"run_id"`
	TechniqueID string  `json:"technique_id" yaml:"technique_id"`
	URL         string  `json:"url" yaml:"url"`
	Title       string  `json:"title" yaml:"title"`
	Snippet     string  `json:"snippet" yaml:"snippet"`
	Score       float64 `json:"score" yaml:"score"`
	Label       string  `json:"label" yaml:"label"`
}

// Search runs an FTS5 query over archived results, ranked by relevance.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.run_id, runs.technique_id, r.url, r.title, r.snippet, r.score, r.label
		FROM results_fts
		JOIN results r ON r.rowid = results_fts.rowid
		JOIN runs ON runs.id = r.run_id
		WHERE results_fts MATCH ?
		ORDER BY results_fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.RunID, &h.TechniqueID, &h.URL, &h.Title, &h.Snippet, &h.Score, &h.Label); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// LoadRun reconstructs an archived run's scored results, survivors first.
func (s *Store) LoadRun(ctx context.Context, runID int64) ([]types.ScoredResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, snippet, domain, category, tier, position, score, label, excluded, analysis
		FROM results WHERE run_id = ? ORDER BY excluded, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run %d: %w", runID, err)
	}
	defer rows.Close()

	var results []types.ScoredResult
	for rows.Next() {
		var (
			r            types.ScoredResult
			label        string
			excluded     bool
			analysisJSON sql.NullString
		)
		if err := rows.Scan(&r.URL, &r.Title, &r.Snippet, &r.Domain, &r.Category,
			&r.Tier, &r.Position, &r.Score.Value, &label, &excluded, &analysisJSON); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Score.Label = types.ScoreLabel(label)
		if analysisJSON.Valid && analysisJSON.String != "" {
			var a types.ContentAnalysis
			if json.Unmarshal([]byte(analysisJSON.String), &a) == nil {
				r.Analysis = &a
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
