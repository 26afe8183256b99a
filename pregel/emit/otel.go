package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTel implements Emitter by turning each event into an immediately-ended
// OpenTelemetry span, so superstep and vertex activity shows up in any
// tracing backend the process's TracerProvider is wired to (Jaeger, Zipkin,
// a vendor collector, ...).
type OTel struct {
	tracer trace.Tracer
}

// NewOTel creates an OTel emitter from tracer, typically
// otel.Tracer("pregel").
func NewOTel(tracer trace.Tracer) *OTel {
	return &OTel{tracer: tracer}
}

func (o *OTel) attrs(e Event) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("run_id", e.RunID),
		attribute.Int("superstep", e.Superstep),
	}
	if e.VertexID != "" {
		attrs = append(attrs, attribute.String("vertex_id", e.VertexID))
	}
	for k, v := range e.Meta {
		attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", v)))
	}
	return attrs
}

// Emit starts and immediately ends a span named e.Msg.
func (o *OTel) Emit(e Event) {
	_, span := o.tracer.Start(context.Background(), e.Msg)
	defer span.End()
	span.SetAttributes(o.attrs(e)...)
	if errMsg, ok := e.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(fmt.Errorf("%s", errMsg))
	}
}

// EmitBatch creates one span per event.
func (o *OTel) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, span := o.tracer.Start(ctx, e.Msg)
		span.SetAttributes(o.attrs(e)...)
		if errMsg, ok := e.Meta["error"].(string); ok {
			span.SetStatus(codes.Error, errMsg)
			span.RecordError(fmt.Errorf("%s", errMsg))
		}
		span.End()
	}
	return nil
}

// Flush is a no-op: span export is the TracerProvider's responsibility.
// Callers that need a hard flush should call ForceFlush on their configured
// sdktrace.TracerProvider directly.
func (o *OTel) Flush(ctx context.Context) error { return nil }
