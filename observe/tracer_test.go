package observe

import (
	"context"
	"errors"
	"testing"

	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestOpMeta_SpanName(t *testing.T) {
	meta := OpMeta{Op: "cache.loadToken"}
	if got := meta.SpanName(); got != "creds.cache.loadToken" {
		t.Errorf("SpanName() = %q, want %q", got, "creds.cache.loadToken")
	}
}

func TestTracer_StartEndSpan(t *testing.T) {
	tracer := newTracer(tracenoop.NewTracerProvider().Tracer("test"))

	ctx, span := tracer.StartSpan(context.Background(), OpMeta{
		Op:     "provider.token",
		Source: "tokenProvider",
		Tool:   "aws-toolkit-go",
	})
	if ctx == nil || span == nil {
		t.Fatal("StartSpan should return a context and span")
	}

	// Both paths must be safe.
	tracer.EndSpan(span, nil)

	_, span = tracer.StartSpan(context.Background(), OpMeta{Op: "provider.token"})
	tracer.EndSpan(span, errors.New("boom"))
}

func TestTracer_EndSpanNil(t *testing.T) {
	tracer := newTracer(tracenoop.NewTracerProvider().Tracer("test"))
	// Must not panic.
	tracer.EndSpan(nil, nil)
}
