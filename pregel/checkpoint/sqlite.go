package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/flowgraph/pregel"
)

// SQLite is an embedded, single-file pregel.Checkpointer backed by
// modernc.org/sqlite (pure Go, no cgo). Suited to local workflows and
// single-process deployments that still want durability across restarts.
type SQLite[S any] struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite-backed checkpointer at
// path. ":memory:" is valid for tests.
func NewSQLite[S any](path string) (*SQLite[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pregel/checkpoint: opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pregel/checkpoint: %s: %w", pragma, err)
		}
	}

	s := &SQLite[S]{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite[S]) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS pregel_checkpoints (
	run_id    TEXT NOT NULL,
	superstep INTEGER NOT NULL,
	payload   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (run_id, superstep)
);`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLite[S]) Close() error { return s.db.Close() }

// Save implements pregel.Checkpointer.
func (s *SQLite[S]) Save(ctx context.Context, cp pregel.Checkpoint[S]) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pregel_checkpoints (run_id, superstep, payload, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, superstep) DO UPDATE SET payload=excluded.payload, created_at=excluded.created_at`,
		cp.RunID, cp.Superstep, string(data), cp.Timestamp)
	if err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	return nil
}

// LoadLatest implements pregel.Checkpointer.
func (s *SQLite[S]) LoadLatest(ctx context.Context, runID string) (pregel.Checkpoint[S], bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM pregel_checkpoints WHERE run_id = ? ORDER BY superstep DESC LIMIT 1`, runID)
	return scanCheckpoint[S](row, "load_latest", runID)
}

// Load implements pregel.Checkpointer.
func (s *SQLite[S]) Load(ctx context.Context, runID string, superstep int) (pregel.Checkpoint[S], bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM pregel_checkpoints WHERE run_id = ? AND superstep = ?`, runID, superstep)
	return scanCheckpoint[S](row, "load", runID)
}

// List implements pregel.Checkpointer.
func (s *SQLite[S]) List(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT superstep FROM pregel_checkpoints WHERE run_id = ? ORDER BY superstep ASC`, runID)
	if err != nil {
		return nil, &pregel.CheckpointError{Op: "list", RunID: runID, Cause: err}
	}
	defer rows.Close()

	var steps []int
	for rows.Next() {
		var step int
		if err := rows.Scan(&step); err != nil {
			return nil, &pregel.CheckpointError{Op: "list", RunID: runID, Cause: err}
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// Prune implements pregel.Checkpointer.
func (s *SQLite[S]) Prune(ctx context.Context, runID string, keepCount int) error {
	steps, err := s.List(ctx, runID)
	if err != nil {
		return err
	}
	if len(steps) <= keepCount {
		return nil
	}
	cutoff := steps[len(steps)-keepCount-1]
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM pregel_checkpoints WHERE run_id = ? AND superstep <= ?`, runID, cutoff)
	if err != nil {
		return &pregel.CheckpointError{Op: "prune", RunID: runID, Cause: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint[S any](row rowScanner, op, runID string) (pregel.Checkpoint[S], bool, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return pregel.Checkpoint[S]{}, false, nil
		}
		return pregel.Checkpoint[S]{}, false, &pregel.CheckpointError{Op: op, RunID: runID, Cause: err}
	}

	var cp pregel.Checkpoint[S]
	if err := json.Unmarshal([]byte(payload), &cp); err != nil {
		return pregel.Checkpoint[S]{}, false, &pregel.CheckpointError{Op: op, RunID: runID, Cause: err}
	}
	return cp, true, nil
}
