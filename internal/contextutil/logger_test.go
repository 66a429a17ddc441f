package contextutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	if !HasLogger(ctx) {
		t.Fatal("HasLogger() = false after WithLogger")
	}
	LoggerFromContext(ctx).Info("hello", "request_id", "abc")

	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("LoggerFromContext() did not return the stored logger, output = %q", buf.String())
	}
}

func TestLoggerFromContext_Default(t *testing.T) {
	ctx := context.Background()
	if HasLogger(ctx) {
		t.Error("HasLogger() = true on an empty context")
	}
	if got := LoggerFromContext(ctx); got != slog.Default() {
		t.Error("LoggerFromContext() should fall back to slog.Default()")
	}

	ctx = WithLogger(ctx, nil)
	if got := LoggerFromContext(ctx); got != slog.Default() {
		t.Error("LoggerFromContext() should ignore a nil logger")
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() = %q, want empty", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("RequestID() = %q, want req-1", got)
	}
	if HasLogger(ctx) {
		t.Error("request id must not be mistaken for a logger")
	}
}
