package tool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	mock := &MockTool{ToolName: "search"}
	r.Register(mock)

	got, ok := r.Lookup("search")
	if !ok {
		t.Fatal("expected search to be registered")
	}
	if got.Name() != "search" {
		t.Errorf("expected Name() = search, got %s", got.Name())
	}

	_, ok = r.Lookup("missing")
	if ok {
		t.Error("expected missing tool lookup to fail")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&MockTool{ToolName: "a"})
	r.Register(&MockTool{ToolName: "b"})

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 registered names, got %v", names)
	}
}

func TestMockTool_ReturnsResponsesInOrderThenRepeatsLast(t *testing.T) {
	m := &MockTool{
		ToolName: "seq",
		Responses: []map[string]any{
			{"n": 1},
			{"n": 2},
		},
	}
	ctx := context.Background()

	r1, _ := m.Call(ctx, nil)
	r2, _ := m.Call(ctx, nil)
	r3, _ := m.Call(ctx, nil)

	if r1["n"] != 1 || r2["n"] != 2 || r3["n"] != 2 {
		t.Errorf("expected sequence 1,2,2 (repeating last), got %v %v %v", r1, r2, r3)
	}
	if m.CallCount() != 3 {
		t.Errorf("expected 3 recorded calls, got %d", m.CallCount())
	}
}

func TestMockTool_ReturnsConfiguredError(t *testing.T) {
	boom := errors.New("boom")
	m := &MockTool{ToolName: "failing", Err: boom}
	_, err := m.Call(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
}

func TestHTTPTool_GetRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	h := NewHTTPTool()
	out, err := h.Call(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if out["status_code"] != 200 {
		t.Errorf("expected status_code 200, got %v", out["status_code"])
	}
	if out["body"] != "hello" {
		t.Errorf("expected body 'hello', got %v", out["body"])
	}
}

func TestHTTPTool_MissingURLErrors(t *testing.T) {
	h := NewHTTPTool()
	_, err := h.Call(context.Background(), map[string]any{})
	if err == nil {
		t.Fatal("expected an error when url is missing")
	}
}

func TestHTTPTool_RejectsUnsupportedMethod(t *testing.T) {
	h := NewHTTPTool()
	_, err := h.Call(context.Background(), map[string]any{"url": "http://example.com", "method": "DELETE"})
	if err == nil {
		t.Fatal("expected an error for an unsupported method")
	}
}
