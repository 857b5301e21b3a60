package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("entries below the level should be dropped: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("entries at or above the level should be written: %s", out)
	}
}

func TestLogger_RedactsCredentialFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "token obtained",
		Field{Key: "accessToken", Value: "super-secret"},
		Field{Key: "clientSecret", Value: "also-secret"},
		Field{Key: "region", Value: "us-east-1"},
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["accessToken"] != "[REDACTED]" || entry["clientSecret"] != "[REDACTED]" {
		t.Errorf("credential fields must be redacted: %v", entry)
	}
	if entry["region"] != "us-east-1" {
		t.Errorf("non-credential fields must pass through: %v", entry)
	}
	if strings.Contains(buf.String(), "super-secret") {
		t.Error("secret value leaked into the log output")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("debug", &buf).(ExtendedLogger)
	logger := base.With(Field{Key: "component", Value: "cache"})

	logger.Info(context.Background(), "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON entry: %v", err)
	}
	if entry["component"] != "cache" {
		t.Errorf("attached field missing: %v", entry)
	}
}

func TestLogger_WithRedactsAttachedFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter("debug", &buf).(ExtendedLogger)
	logger := base.With(Field{Key: "token", Value: "secret"})

	logger.Info(context.Background(), "hello")

	if strings.Contains(buf.String(), "secret") {
		t.Errorf("attached credential fields must be redacted: %s", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogLevel_String(t *testing.T) {
	if LevelDebug.String() != "debug" || LevelError.String() != "error" {
		t.Error("unexpected level strings")
	}
}
