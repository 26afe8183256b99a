package checkpoint

// MySQL tests require a live server; set TEST_MYSQL_DSN to run them, e.g.
//
//	export TEST_MYSQL_DSN="user:password@tcp(localhost:3306)/test_db?parseTime=true"
//	go test -v -run TestMySQL ./pregel/checkpoint

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/flowgraph/pregel"
)

func getTestMySQLDSN(t *testing.T) string {
	t.Helper()
	return os.Getenv("TEST_MYSQL_DSN")
}

func TestMySQL_SaveLoadLatest(t *testing.T) {
	dsn := getTestMySQLDSN(t)
	if dsn == "" {
		t.Skip("skipping MySQL tests: TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	m, err := NewMySQL[testState](ctx, dsn)
	if err != nil {
		t.Fatalf("NewMySQL failed: %v", err)
	}
	defer m.Close()

	cp := pregel.Checkpoint[testState]{RunID: "mysql-run-1", Superstep: 1, State: testState{Value: "first"}, Timestamp: time.Now()}
	if err := m.Save(ctx, cp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := m.LoadLatest(ctx, "mysql-run-1")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if !ok || got.State.Value != "first" {
		t.Errorf("expected to load back Value = 'first', got ok=%v value=%q", ok, got.State.Value)
	}
}

func TestMySQL_Prune(t *testing.T) {
	dsn := getTestMySQLDSN(t)
	if dsn == "" {
		t.Skip("skipping MySQL tests: TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	m, err := NewMySQL[testState](ctx, dsn)
	if err != nil {
		t.Fatalf("NewMySQL failed: %v", err)
	}
	defer m.Close()

	for step := 1; step <= 3; step++ {
		cp := pregel.Checkpoint[testState]{RunID: "mysql-run-2", Superstep: step, Timestamp: time.Now()}
		if err := m.Save(ctx, cp); err != nil {
			t.Fatalf("Save step %d failed: %v", step, err)
		}
	}
	if err := m.Prune(ctx, "mysql-run-2", 1); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	steps, err := m.List(ctx, "mysql-run-2")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(steps) != 1 || steps[0] != 3 {
		t.Errorf("expected only step 3 to survive pruning, got %v", steps)
	}
}
