package sentry

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitWithoutDSN(t *testing.T) {
	if err := Init(Config{}, discardLogger()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := Init(Config{}, nil); err != nil {
		t.Fatalf("expected nil error with nil logger, got %v", err)
	}
}

func TestInitInvalidDSN(t *testing.T) {
	if err := Init(Config{DSN: "not a dsn"}, discardLogger()); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestCaptureExceptionNil(t *testing.T) {
	CaptureException(nil, nil, discardLogger())
	CaptureException(errors.New("boom"), map[string]string{"component": "test"}, nil)
}

func TestPanicError(t *testing.T) {
	base := errors.New("boom")
	if got := panicError(base); got != base {
		t.Fatalf("expected error passthrough")
	}
	if got := panicError("text"); got.Error() != "panic: text" {
		t.Fatalf("unexpected message %q", got.Error())
	}
}

func TestPanicReporterWithoutClient(t *testing.T) {
	report := PanicReporter(discardLogger())
	report("slot exploded", map[string]string{"path": "/simulation/telemetry"})
	report(errors.New("boom"), nil)
}
