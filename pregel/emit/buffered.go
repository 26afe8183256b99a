package emit

import (
	"context"
	"sync"
)

// Buffered implements Emitter by storing events in memory, organized by
// RunID, with filtered retrieval. Intended for tests and short-lived
// development workflows, not production volumes.
type Buffered struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewBuffered creates an empty Buffered emitter.
func NewBuffered() *Buffered {
	return &Buffered{events: make(map[string][]Event)}
}

// Emit appends e to its run's history.
func (b *Buffered) Emit(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[e.RunID] = append(b.events[e.RunID], e)
}

// EmitBatch appends events in order.
func (b *Buffered) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.Emit(e)
	}
	return nil
}

// Flush is a no-op: events are already durable in memory.
func (b *Buffered) Flush(ctx context.Context) error { return nil }

// HistoryFilter narrows History results. Zero-value fields mean "no
// constraint"; non-zero fields are combined with AND.
type HistoryFilter struct {
	VertexID string
	Msg      string
	MinStep  *int
	MaxStep  *int
}

func (f HistoryFilter) matches(e Event) bool {
	if f.VertexID != "" && e.VertexID != f.VertexID {
		return false
	}
	if f.Msg != "" && e.Msg != f.Msg {
		return false
	}
	if f.MinStep != nil && e.Superstep < *f.MinStep {
		return false
	}
	if f.MaxStep != nil && e.Superstep > *f.MaxStep {
		return false
	}
	return true
}

// History returns all events recorded for runID, unfiltered.
func (b *Buffered) History(runID string) []Event {
	return b.HistoryWithFilter(runID, HistoryFilter{})
}

// HistoryWithFilter returns runID's events matching filter, in emission
// order.
func (b *Buffered) HistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	src := b.events[runID]
	out := make([]Event, 0, len(src))
	for _, e := range src {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Clear discards runID's history. An empty runID clears everything.
func (b *Buffered) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
