package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/flowgraph/pregel"
)

// MySQL is a remote pregel.Checkpointer backed by a shared MySQL instance,
// suited to multi-process or multi-host deployments where checkpoints must
// outlive any one worker.
type MySQL[S any] struct {
	db *sql.DB
}

// NewMySQL opens a MySQL-backed checkpointer against dsn (the
// go-sql-driver/mysql DSN format, e.g. "user:pass@tcp(host:3306)/dbname").
// The pregel_checkpoints table is created if it doesn't exist.
func NewMySQL[S any](ctx context.Context, dsn string) (*MySQL[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("pregel/checkpoint: opening mysql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pregel/checkpoint: pinging mysql: %w", err)
	}

	m := &MySQL[S]{db: db}
	if err := m.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *MySQL[S]) createTables(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS pregel_checkpoints (
	run_id     VARCHAR(255) NOT NULL,
	superstep  INT NOT NULL,
	payload    LONGTEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (run_id, superstep)
) ENGINE=InnoDB;`)
	return err
}

// Close releases the underlying connection pool.
func (m *MySQL[S]) Close() error { return m.db.Close() }

// Save implements pregel.Checkpointer using a single INSERT ... ON
// DUPLICATE KEY UPDATE so a retried save is idempotent.
func (m *MySQL[S]) Save(ctx context.Context, cp pregel.Checkpoint[S]) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	_, err = m.db.ExecContext(ctx,
		`INSERT INTO pregel_checkpoints (run_id, superstep, payload, created_at)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE payload = VALUES(payload), created_at = VALUES(created_at)`,
		cp.RunID, cp.Superstep, string(data), cp.Timestamp)
	if err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	return nil
}

// LoadLatest implements pregel.Checkpointer.
func (m *MySQL[S]) LoadLatest(ctx context.Context, runID string) (pregel.Checkpoint[S], bool, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT payload FROM pregel_checkpoints WHERE run_id = ? ORDER BY superstep DESC LIMIT 1`, runID)
	return scanCheckpoint[S](row, "load_latest", runID)
}

// Load implements pregel.Checkpointer.
func (m *MySQL[S]) Load(ctx context.Context, runID string, superstep int) (pregel.Checkpoint[S], bool, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT payload FROM pregel_checkpoints WHERE run_id = ? AND superstep = ?`, runID, superstep)
	return scanCheckpoint[S](row, "load", runID)
}

// List implements pregel.Checkpointer.
func (m *MySQL[S]) List(ctx context.Context, runID string) ([]int, error) {
	rows, err := m.db.QueryContext(ctx,
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
func (m *MySQL[S]) Prune(ctx context.Context, runID string, keepCount int) error {
	steps, err := m.List(ctx, runID)
	if err != nil {
		return err
	}
	if len(steps) <= keepCount {
		return nil
	}
	cutoff := steps[len(steps)-keepCount-1]
	_, err = m.db.ExecContext(ctx,
		`DELETE FROM pregel_checkpoints WHERE run_id = ? AND superstep <= ?`, runID, cutoff)
	if err != nil {
		return &pregel.CheckpointError{Op: "prune", RunID: runID, Cause: err}
	}
	return nil
}
