package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestScrub_Paths(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		leaks string
	}{
		{"unix path", "open /home/alice/.aws/sso/cache/abc.json: permission denied", "/home/alice"},
		{"windows path", `open C:\Users\alice\cache\abc.json: access denied`, `C:\Users`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scrub(tt.in)
			if strings.Contains(got, tt.leaks) {
				t.Errorf("Scrub(%q) = %q, still leaks %q", tt.in, got, tt.leaks)
			}
			if !strings.Contains(got, "[path]") {
				t.Errorf("Scrub(%q) = %q, expected a [path] placeholder", tt.in, got)
			}
		})
	}
}

func TestScrub_AccountIDs(t *testing.T) {
	got := Scrub("assume role failed for account 123456789012")
	if strings.Contains(got, "123456789012") {
		t.Errorf("Scrub should remove account-ID-like digit runs, got %q", got)
	}
	if !strings.Contains(got, "[account]") {
		t.Errorf("expected [account] placeholder, got %q", got)
	}
}

func TestScrub_PlainTextUntouched(t *testing.T) {
	in := "entry is corrupt"
	if got := Scrub(in); got != in {
		t.Errorf("Scrub(%q) = %q, want unchanged", in, got)
	}
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	sink.Record(ctx, Diagnostic{Action: "loadToken", Result: ResultFailed, Reason: "parse failure"})
	sink.Record(ctx, Diagnostic{Action: "saveToken", Result: ResultSucceeded})

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("Events() length = %d, want 2", len(events))
	}
	if events[0].Action != "loadToken" || events[1].Action != "saveToken" {
		t.Errorf("events out of order: %+v", events)
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Error("Reset() should discard events")
	}
}

func TestLoggerSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLoggerSink(NewLoggerWithWriter("debug", &buf))

	sink.Record(context.Background(), Diagnostic{
		Action:       "loadToken",
		Source:       "tokenProvider",
		Result:       ResultFailed,
		Reason:       "parse failure",
		ReasonDetail: "entry is corrupt",
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("sink should write one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["action"] != "loadToken" || entry["reason"] != "parse failure" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["level"] != "warn" {
		t.Errorf("failed events should log at warn, got %v", entry["level"])
	}
}

func TestLoggerSink_NilLogger(t *testing.T) {
	sink := NewLoggerSink(nil)
	// Must not panic.
	sink.Record(context.Background(), Diagnostic{Action: "x", Result: ResultFailed})
}

func TestMultiSink(t *testing.T) {
	a := NewMemorySink()
	b := NewMemorySink()
	multi := MultiSink{a, nil, b}

	multi.Record(context.Background(), Diagnostic{Action: "loadToken", Result: ResultFailed})

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("every sink should receive the event: %d, %d", len(a.Events()), len(b.Events()))
	}
}
