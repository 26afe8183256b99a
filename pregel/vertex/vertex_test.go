package vertex

import (
	"context"
	"errors"
	"testing"

	"github.com/flowgraph/pregel"
)

type routeState struct {
	Branch string
}

func TestRouter_StateFieldMatchesBranch(t *testing.T) {
	r := Router[routeState]{
		Base: pregel.Base[routeState]{VertexID: "router"},
		Route: StateField(
			func(s routeState) string { return s.Branch },
			map[string]pregel.VertexId{"yes": "handle-yes", "no": "handle-no"},
			"",
		),
	}

	sc := &pregel.SuperstepContext[routeState]{State: routeState{Branch: "yes"}}
	result, err := r.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(result.Outbox) != 1 || result.Outbox[0].To != "handle-yes" {
		t.Fatalf("expected route to handle-yes, got %+v", result.Outbox)
	}
	if result.State != pregel.Halted {
		t.Errorf("expected router to halt (so a later message can reactivate it), got %v", result.State)
	}
}

func TestRouter_StateFieldFallsBackToDefault(t *testing.T) {
	r := Router[routeState]{
		Route: StateField(
			func(s routeState) string { return s.Branch },
			map[string]pregel.VertexId{"yes": "handle-yes"},
			"fallback",
		),
	}
	sc := &pregel.SuperstepContext[routeState]{State: routeState{Branch: "unknown"}}
	result, err := r.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if result.Outbox[0].To != "fallback" {
		t.Errorf("expected fallback route, got %s", result.Outbox[0].To)
	}
}

func TestRouter_NoMatchNoDefaultIsRoutingError(t *testing.T) {
	r := Router[routeState]{
		Route: StateField(
			func(s routeState) string { return s.Branch },
			map[string]pregel.VertexId{"yes": "handle-yes"},
			"",
		),
	}
	sc := &pregel.SuperstepContext[routeState]{State: routeState{Branch: "nope"}}
	_, err := r.Compute(context.Background(), sc)
	if !errors.Is(err, pregel.ErrRouting) {
		t.Fatalf("expected ErrRouting, got %v", err)
	}
}

func TestRouter_NeverRetries(t *testing.T) {
	r := Router[routeState]{}
	if r.RetryableError(errors.New("anything")) {
		t.Error("expected Router.RetryableError to always return false")
	}
}

type fanState struct {
	Received int
	Done     bool
}

func TestFanOut_BroadcastSendsSamePayloadToAllTargets(t *testing.T) {
	f := FanOut[fanState]{
		Targets:  []pregel.VertexId{"w1", "w2", "w3"},
		Strategy: Broadcast[fanState](func(s fanState) any { return "work" }),
	}
	sc := &pregel.SuperstepContext[fanState]{State: fanState{}}
	result, err := f.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(result.Outbox) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result.Outbox))
	}
	for _, m := range result.Outbox {
		if m.Payload != "work" {
			t.Errorf("expected payload 'work' for %s, got %v", m.To, m.Payload)
		}
	}
}

func TestFanOut_SplitArrayDistributesRoundRobin(t *testing.T) {
	f := FanOut[fanState]{
		Targets: []pregel.VertexId{"w1", "w2"},
		Strategy: SplitArray[fanState](func(s fanState) []any {
			return []any{1, 2, 3, 4}
		}),
	}
	sc := &pregel.SuperstepContext[fanState]{State: fanState{}}
	result, err := f.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(result.Outbox) != 2 {
		t.Fatalf("expected 2 messages (one per target), got %d", len(result.Outbox))
	}
}

func TestFanOut_SplitArrayOneToOneDeliversBareElement(t *testing.T) {
	f := FanOut[fanState]{
		Targets: []pregel.VertexId{"w1", "w2", "w3"},
		Strategy: SplitArray[fanState](func(s fanState) []any {
			return []any{10, 20, 30}
		}),
	}
	sc := &pregel.SuperstepContext[fanState]{State: fanState{}}
	result, err := f.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := map[pregel.VertexId]any{"w1": 10, "w2": 20, "w3": 30}
	if len(result.Outbox) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(result.Outbox))
	}
	for _, m := range result.Outbox {
		if m.Payload != want[m.To] {
			t.Errorf("target %s: expected bare element %v, got %v (%T)", m.To, want[m.To], m.Payload, m.Payload)
		}
	}
}

func TestFanIn_StaysHaltedUntilBarrierCompletes(t *testing.T) {
	merge := CollectArray(
		func(s fanState, payloads []any) fanState {
			s.Received += len(payloads)
			return s
		},
		func(s fanState) int { return s.Received },
		3,
	)
	f := FanIn[fanState]{Merge: merge, Next: []pregel.VertexId{"after"}}

	sc := &pregel.SuperstepContext[fanState]{
		State:   fanState{Received: 1},
		Inbound: []pregel.Message{{Payload: 1}},
	}
	result, err := f.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if result.State != pregel.Halted {
		t.Errorf("expected Halted while barrier incomplete, got %v", result.State)
	}
	if len(result.Outbox) != 0 {
		t.Errorf("expected no outbound messages before the barrier completes, got %v", result.Outbox)
	}

	sc2 := &pregel.SuperstepContext[fanState]{
		State:   result.Update,
		Inbound: []pregel.Message{{Payload: 1}, {Payload: 1}},
	}
	result2, err := f.Compute(context.Background(), sc2)
	if err != nil {
		t.Fatalf("second Compute failed: %v", err)
	}
	if result2.State != pregel.Completed {
		t.Errorf("expected Completed once barrier satisfied, got %v", result2.State)
	}
	if len(result2.Outbox) != 1 || result2.Outbox[0].To != "after" {
		t.Errorf("expected activation of 'after', got %+v", result2.Outbox)
	}
}

func TestFanIn_FirstSuccessWinsIgnoresLaterMessages(t *testing.T) {
	merge := FirstSuccessWins(
		func(s fanState, payload any) fanState { s.Done = true; return s },
		func(payload any) bool { return payload == "ok" },
	)
	f := FanIn[fanState]{Merge: merge}

	sc := &pregel.SuperstepContext[fanState]{
		Inbound: []pregel.Message{{Payload: "fail"}, {Payload: "ok"}, {Payload: "ok"}},
	}
	result, err := f.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if result.State != pregel.Completed || !result.Update.Done {
		t.Errorf("expected first success to complete the barrier, got state=%v update=%+v", result.State, result.Update)
	}
}

type transformState struct {
	N int
}

func TestTransform_AppliesFnAndCompletesWithNoNext(t *testing.T) {
	tr := Transform[transformState]{
		Fn: func(s transformState, inbound []pregel.Message) (transformState, error) {
			s.N++
			return s, nil
		},
	}
	sc := &pregel.SuperstepContext[transformState]{State: transformState{N: 1}}
	result, err := tr.Compute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if result.Update.N != 2 {
		t.Errorf("expected N = 2, got %d", result.Update.N)
	}
	if result.State != pregel.Completed {
		t.Errorf("expected Completed with no Next, got %v", result.State)
	}
}

func TestTransform_PropagatesFnError(t *testing.T) {
	boom := errors.New("boom")
	tr := Transform[transformState]{
		Fn: func(s transformState, inbound []pregel.Message) (transformState, error) {
			return s, boom
		},
	}
	_, err := tr.Compute(context.Background(), &pregel.SuperstepContext[transformState]{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error to propagate, got %v", err)
	}
}
