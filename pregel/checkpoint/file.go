// Package checkpoint provides concrete pregel.Checkpointer backends: a
// local-file store (tmp-then-rename), an embedded SQLite store, a remote
// MySQL store, and a remote etcd store.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/flowgraph/pregel"
)

// File persists checkpoints as one JSON file per (runID, superstep) under
// Dir, writing via a temp file plus rename so a reader never observes a
// partially written checkpoint.
type File[S any] struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a File checkpointer rooted at dir. dir is created if it
// doesn't exist.
func NewFile[S any](dir string) (*File[S], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pregel/checkpoint: creating dir %s: %w", dir, err)
	}
	return &File[S]{dir: dir}, nil
}

func (f *File[S]) runDir(runID string) string {
	return filepath.Join(f.dir, sanitize(runID))
}

func (f *File[S]) path(runID string, superstep int) string {
	return filepath.Join(f.runDir(runID), fmt.Sprintf("%010d.json", superstep))
}

// Save implements pregel.Checkpointer.
func (f *File[S]) Save(ctx context.Context, cp pregel.Checkpoint[S]) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.runDir(cp.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}

	tmp, err := os.CreateTemp(dir, "checkpoint-*.tmp")
	if err != nil {
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}

	if err := os.Rename(tmpPath, f.path(cp.RunID, cp.Superstep)); err != nil {
		os.Remove(tmpPath)
		return &pregel.CheckpointError{Op: "save", RunID: cp.RunID, Cause: err}
	}
	return nil
}

// LoadLatest implements pregel.Checkpointer.
func (f *File[S]) LoadLatest(ctx context.Context, runID string) (pregel.Checkpoint[S], bool, error) {
	steps, err := f.List(ctx, runID)
	if err != nil {
		return pregel.Checkpoint[S]{}, false, err
	}
	if len(steps) == 0 {
		return pregel.Checkpoint[S]{}, false, nil
	}
	return f.Load(ctx, runID, steps[len(steps)-1])
}

// Load implements pregel.Checkpointer.
func (f *File[S]) Load(ctx context.Context, runID string, superstep int) (pregel.Checkpoint[S], bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(runID, superstep))
	if os.IsNotExist(err) {
		return pregel.Checkpoint[S]{}, false, nil
	}
	if err != nil {
		return pregel.Checkpoint[S]{}, false, &pregel.CheckpointError{Op: "load", RunID: runID, Cause: err}
	}

	var cp pregel.Checkpoint[S]
	if err := json.Unmarshal(data, &cp); err != nil {
		return pregel.Checkpoint[S]{}, false, &pregel.CheckpointError{Op: "load", RunID: runID, Cause: err}
	}
	return cp, true, nil
}

// List implements pregel.Checkpointer.
func (f *File[S]) List(ctx context.Context, runID string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.runDir(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &pregel.CheckpointError{Op: "list", RunID: runID, Cause: err}
	}

	var steps []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		steps = append(steps, n)
	}
	sort.Ints(steps)
	return steps, nil
}

// Prune implements pregel.Checkpointer.
func (f *File[S]) Prune(ctx context.Context, runID string, keepCount int) error {
	steps, err := f.List(ctx, runID)
	if err != nil {
		return err
	}
	if len(steps) <= keepCount {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range steps[:len(steps)-keepCount] {
		if err := os.Remove(f.path(runID, s)); err != nil && !os.IsNotExist(err) {
			return &pregel.CheckpointError{Op: "prune", RunID: runID, Cause: err}
		}
	}
	return nil
}

func sanitize(runID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(runID)
}
