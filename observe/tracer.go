package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpMeta describes a credential operation for telemetry purposes.
type OpMeta struct {
	Op     string // Operation name, e.g. "cache.loadToken" (required)
	Source string // Requesting component (optional)
	Tool   string // Owning tool discriminator (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: creds.<op>
func (m OpMeta) SpanName() string {
	return "creds." + m.Op
}

// Tracer wraps OpenTelemetry tracing with credential-operation span
// management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a credential operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
// No credential material is ever attached to a span.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("creds.op", meta.Op),
		attribute.Bool("creds.error", false), // Updated in EndSpan if error
	}
	if meta.Source != "" {
		attrs = append(attrs, attribute.String("creds.source", meta.Source))
	}
	if meta.Tool != "" {
		attrs = append(attrs, attribute.String("creds.tool", meta.Tool))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// EndSpan ends the span, marking error status when err is non-nil.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.SetAttributes(attribute.Bool("creds.error", true))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Ensure tracerImpl implements Tracer
var _ Tracer = (*tracerImpl)(nil)
