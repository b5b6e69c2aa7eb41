// Package scorestore persists PageRank vectors and analytics snapshots in
// PostgreSQL or SQLite. Vectors are keyed by graph version and solver
// parameters, so a restarted searcher serving the same graph with the same
// settings can skip the power iteration.
package scorestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/health"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/sqldb"
)

var schema = map[sqldb.Dialect][]string{
	sqldb.Postgres: {
		`CREATE TABLE IF NOT EXISTS pagerank_runs (
			version    TEXT NOT NULL,
			params     TEXT NOT NULL,
			nodes      INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			converged  BOOLEAN NOT NULL,
			saved_at   BIGINT NOT NULL,
			PRIMARY KEY (version, params)
		)`,
		`CREATE TABLE IF NOT EXISTS pagerank_scores (
			version TEXT NOT NULL,
			params  TEXT NOT NULL,
			url     TEXT NOT NULL,
			score   DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (version, params, url),
			FOREIGN KEY (version, params) REFERENCES pagerank_runs(version, params) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS analytics_snapshots (
			id          BIGSERIAL PRIMARY KEY,
			data        JSONB NOT NULL,
			captured_at BIGINT NOT NULL
		)`,
	},
	sqldb.SQLite: {
		`CREATE TABLE IF NOT EXISTS pagerank_runs (
			version    TEXT NOT NULL,
			params     TEXT NOT NULL,
			nodes      INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			converged  BOOLEAN NOT NULL,
			saved_at   INTEGER NOT NULL,
			PRIMARY KEY (version, params)
		)`,
		`CREATE TABLE IF NOT EXISTS pagerank_scores (
			version TEXT NOT NULL,
			params  TEXT NOT NULL,
			url     TEXT NOT NULL,
			score   REAL NOT NULL,
			PRIMARY KEY (version, params, url),
			FOREIGN KEY (version, params) REFERENCES pagerank_runs(version, params) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS analytics_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			data        TEXT NOT NULL,
			captured_at INTEGER NOT NULL
		)`,
	},
}

// Store reads and writes score vectors.
type Store struct {
	db     *sqldb.DB
	now    func() time.Time
	logger *slog.Logger
}

// New wraps db. Call Migrate before first use.
func New(db *sqldb.DB) *Store {
	return &Store{
		db:     db,
		now:    time.Now,
		logger: slog.Default().With("component", "scorestore", "dialect", string(db.Dialect)),
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts, ok := schema[s.db.Dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %s", s.db.Dialect)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating score store: %w", err)
		}
	}
	return nil
}

// PageRankRun is one stored PageRank vector. Params is the canonical
// rendering of the solver settings that produced it (pagerank.Config.Key).
type PageRankRun struct {
	Version    string
	Params     string
	Scores     map[string]float64
	Iterations int
	Converged  bool
}

// SavePageRank replaces the vector stored under run's version and params.
func (s *Store) SavePageRank(ctx context.Context, run PageRankRun) error {
	if run.Version == "" {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "pagerank version is empty")
	}
	if run.Params == "" {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "pagerank params are empty")
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(
			`DELETE FROM pagerank_scores WHERE version = ? AND params = ?`), run.Version, run.Params); err != nil {
			return fmt.Errorf("clearing scores: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO pagerank_runs (version, params, nodes, iterations, converged, saved_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (version, params) DO UPDATE SET
			   nodes = excluded.nodes,
			   iterations = excluded.iterations,
			   converged = excluded.converged,
			   saved_at = excluded.saved_at`),
			run.Version, run.Params, len(run.Scores), run.Iterations, run.Converged, s.now().UnixNano()); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.db.Rebind(
			`INSERT INTO pagerank_scores (version, params, url, score) VALUES (?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for url, score := range run.Scores {
			if _, err := stmt.ExecContext(ctx, run.Version, run.Params, url, score); err != nil {
				return fmt.Errorf("inserting score for %s: %w", url, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving pagerank %s (%s): %w", run.Version, run.Params, err)
	}
	s.logger.Info("pagerank saved",
		"version", run.Version,
		"params", run.Params,
		"nodes", len(run.Scores),
		"converged", run.Converged,
	)
	return nil
}

// LoadPageRank returns the run stored under version and params, or an error
// wrapping ErrNotFound. A vector saved under other params is not returned.
func (s *Store) LoadPageRank(ctx context.Context, version, params string) (*PageRankRun, error) {
	run := &PageRankRun{Version: version, Params: params}
	var nodes int
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT nodes, iterations, converged FROM pagerank_runs WHERE version = ? AND params = ?`),
		version, params).Scan(&nodes, &run.Iterations, &run.Converged)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound,
			"no pagerank stored for version %s with %s", version, params)
	}
	if err != nil {
		return nil, fmt.Errorf("querying pagerank run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT url, score FROM pagerank_scores WHERE version = ? AND params = ?`), version, params)
	if err != nil {
		return nil, fmt.Errorf("querying pagerank scores: %w", err)
	}
	defer rows.Close()

	run.Scores = make(map[string]float64, nodes)
	for rows.Next() {
		var url string
		var score float64
		if err := rows.Scan(&url, &score); err != nil {
			return nil, fmt.Errorf("scanning score row: %w", err)
		}
		run.Scores[url] = score
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestVersion returns the most recently saved graph version, or an error
// wrapping ErrNotFound when nothing has been saved.
func (s *Store) LatestVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM pagerank_runs ORDER BY saved_at DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.New(apperrors.ErrNotFound, http.StatusNotFound, "no pagerank stored")
	}
	if err != nil {
		return "", fmt.Errorf("querying latest pagerank: %w", err)
	}
	return version, nil
}

// SaveAnalyticsSnapshot appends a JSON-encoded analytics snapshot.
func (s *Store) SaveAnalyticsSnapshot(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES (?, ?)`),
		string(data), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	return nil
}

// LatestAnalyticsSnapshot returns the newest snapshot, or nil when none has
// been saved.
func (s *Store) LatestAnalyticsSnapshot(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest analytics snapshot: %w", err)
	}
	return []byte(data), nil
}

// HealthCheck pings the database. The store is optional, so failure is
// reported as degraded.
func (s *Store) HealthCheck() health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		if err := s.db.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	}
}
