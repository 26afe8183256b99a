package pregel

import "testing"

type counterState struct {
	Total int
	Last  VertexId
}

func sumReducer(prev, update counterState) counterState {
	prev.Total += update.Total
	if update.Last != "" {
		prev.Last = update.Last
	}
	return prev
}

func TestMergeUpdates_EmptyReturnsUnchanged(t *testing.T) {
	prev := counterState{Total: 5}
	got := MergeUpdates(sumReducer, prev, nil)
	if got != prev {
		t.Errorf("expected unchanged state %+v, got %+v", prev, got)
	}
}

func TestMergeUpdates_FoldsAllUpdates(t *testing.T) {
	updates := map[VertexId]counterState{
		"b": {Total: 2},
		"a": {Total: 1},
		"c": {Total: 3},
	}
	got := MergeUpdates(sumReducer, counterState{}, updates)
	if got.Total != 6 {
		t.Errorf("expected Total = 6, got %d", got.Total)
	}
}

func TestMergeUpdates_DeterministicTieBreakOrder(t *testing.T) {
	// A non-commutative reducer (records the last applied Last field) must
	// still fold in VertexId order every time, regardless of map iteration.
	updates := map[VertexId]counterState{
		"z-vertex": {Last: "z-vertex"},
		"a-vertex": {Last: "a-vertex"},
		"m-vertex": {Last: "m-vertex"},
	}
	for i := 0; i < 20; i++ {
		got := MergeUpdates(sumReducer, counterState{}, updates)
		if got.Last != "z-vertex" {
			t.Fatalf("expected tie-break to settle on the lexicographically last vertex, got %q", got.Last)
		}
	}
}
