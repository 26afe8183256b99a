package emit

import "context"

// Null implements Emitter by discarding every event. It is the zero-cost
// default when TracingEnabled is false or no backend is configured.
type Null struct{}

// NewNull returns a Null emitter.
func NewNull() *Null { return &Null{} }

// Emit discards e.
func (n *Null) Emit(e Event) {}

// EmitBatch discards events.
func (n *Null) EmitBatch(ctx context.Context, events []Event) error { return nil }

// Flush is a no-op.
func (n *Null) Flush(ctx context.Context) error { return nil }
