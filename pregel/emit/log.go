package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Log implements Emitter by writing one line per event to an io.Writer,
// either as human-readable key=value pairs or as JSON Lines.
type Log struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

// NewLog creates a Log emitter. A nil writer defaults to os.Stdout.
func NewLog(w io.Writer, jsonMode bool) *Log {
	if w == nil {
		w = os.Stdout
	}
	return &Log{w: w, json: jsonMode}
}

// Emit writes one line for e.
func (l *Log) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(e)
}

func (l *Log) writeLocked(e Event) {
	if l.json {
		line, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(l.w, `{"msg":"emit_marshal_error","error":%q}`+"\n", err.Error())
			return
		}
		l.w.Write(append(line, '\n'))
		return
	}
	fmt.Fprintf(l.w, "[%s] run=%s step=%d vertex=%s meta=%v\n", e.Msg, e.RunID, e.Superstep, e.VertexID, e.Meta)
}

// EmitBatch writes each event in order.
func (l *Log) EmitBatch(ctx context.Context, events []Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.writeLocked(e)
	}
	return nil
}

// Flush closes the underlying writer if it implements io.Closer.
func (l *Log) Flush(ctx context.Context) error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
