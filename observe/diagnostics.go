package observe

import (
	"context"
	"regexp"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Diagnostic results.
const (
	ResultSucceeded = "Succeeded"
	ResultFailed    = "Failed"
	ResultCancelled = "Cancelled"
)

// Diagnostic is one reportable event about a credential operation: which
// action ran, on whose behalf, how it ended, and why. ReasonDetail must
// already be scrubbed (see Scrub) before the event is recorded.
type Diagnostic struct {
	Action       string
	Source       string
	Result       string
	Reason       string
	ReasonDetail string
}

// DiagnosticSink receives diagnostic events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Record is fire-and-forget; it must not block on export and must
//   not panic.
type DiagnosticSink interface {
	Record(ctx context.Context, d Diagnostic)
}

// nopSink discards all events.
type nopSink struct{}

func (nopSink) Record(context.Context, Diagnostic) {}

// NopDiagnostics returns a sink that discards everything.
func NopDiagnostics() DiagnosticSink {
	return nopSink{}
}

// MemorySink collects events for inspection in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Diagnostic
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the event.
func (s *MemorySink) Record(_ context.Context, d Diagnostic) {
	s.mu.Lock()
	s.events = append(s.events, d)
	s.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.events))
	copy(out, s.events)
	return out
}

// Reset discards all recorded events.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// loggerSink writes each event as a structured log entry.
type loggerSink struct {
	log Logger
}

// NewLoggerSink returns a sink that records events through log.
func NewLoggerSink(log Logger) DiagnosticSink {
	if log == nil {
		log = NopLogger()
	}
	return &loggerSink{log: log}
}

func (s *loggerSink) Record(ctx context.Context, d Diagnostic) {
	fields := []Field{
		{Key: "action", Value: d.Action},
		{Key: "result", Value: d.Result},
	}
	if d.Source != "" {
		fields = append(fields, Field{Key: "source", Value: d.Source})
	}
	if d.Reason != "" {
		fields = append(fields, Field{Key: "reason", Value: d.Reason})
	}
	if d.ReasonDetail != "" {
		fields = append(fields, Field{Key: "reasonDetail", Value: d.ReasonDetail})
	}
	if d.Result == ResultFailed {
		s.log.Warn(ctx, "credential operation failed", fields...)
	} else {
		s.log.Debug(ctx, "credential operation", fields...)
	}
}

// metricSink counts events by action, result and reason.
type metricSink struct {
	counter metric.Int64Counter
}

// NewMetricSink returns a sink that counts events on meter. The detail string
// is deliberately not attached: it is free-form and would explode attribute
// cardinality.
func NewMetricSink(meter metric.Meter) (DiagnosticSink, error) {
	counter, err := meter.Int64Counter(
		"creds.diagnostic.total",
		metric.WithDescription("Total number of credential diagnostic events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	return &metricSink{counter: counter}, nil
}

func (s *metricSink) Record(ctx context.Context, d Diagnostic) {
	attrs := []attribute.KeyValue{
		attribute.String("action", d.Action),
		attribute.String("result", d.Result),
	}
	if d.Reason != "" {
		attrs = append(attrs, attribute.String("reason", d.Reason))
	}
	s.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// MultiSink fans each event out to every sink in order.
type MultiSink []DiagnosticSink

// Record delivers d to each sink.
func (m MultiSink) Record(ctx context.Context, d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, d)
		}
	}
}

var (
	// Absolute or drive-letter paths with at least two separators: deep
	// enough to identify a user's filesystem layout.
	pathPattern = regexp.MustCompile(`(?:[A-Za-z]:)?(?:[\\/][\w.~-]+){2,}`)

	// Account-ID-shaped digit runs.
	accountPattern = regexp.MustCompile(`\b\d{12}\b`)
)

// Scrub removes substrings that could identify a user or account from a
// diagnostic detail: filesystem paths and account-ID-like digit runs.
func Scrub(s string) string {
	s = pathPattern.ReplaceAllString(s, "[path]")
	s = accountPattern.ReplaceAllString(s, "[account]")
	return s
}

// Compile-time interface checks.
var (
	_ DiagnosticSink = nopSink{}
	_ DiagnosticSink = (*MemorySink)(nil)
	_ DiagnosticSink = (*loggerSink)(nil)
	_ DiagnosticSink = (*metricSink)(nil)
	_ DiagnosticSink = MultiSink(nil)
)
