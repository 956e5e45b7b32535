package sentry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Init configures the global Sentry client. An empty DSN leaves reporting
// disabled and is not an error.
func Init(cfg Config, logger *slog.Logger) error {
	if cfg.DSN == "" {
		if logger != nil {
			logger.Warn("sentry dsn not configured, error tracking disabled")
		}
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Authorization")
				delete(event.Request.Headers, "Cookie")
			}
			return event
		},
	})
	if err != nil {
		if logger != nil {
			logger.Error("sentry init failed", "error", err)
		}
		return fmt.Errorf("sentry init: %w", err)
	}

	if logger != nil {
		logger.Info("sentry initialized", "environment", cfg.Environment)
	}
	return nil
}

// CaptureException sends err with optional tags. Without an initialized
// client this is a no-op.
func CaptureException(err error, tags map[string]string, logger *slog.Logger) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})

	if logger != nil {
		logger.Debug("exception captured in sentry", "error", err.Error())
	}
}

func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// PanicReporter returns a callback that forwards a recovered panic value to
// Sentry with the given tags. It does not recover or re-panic.
func PanicReporter(logger *slog.Logger) func(recovered any, tags map[string]string) {
	return func(recovered any, tags map[string]string) {
		CaptureException(panicError(recovered), tags, logger)
		Flush(2 * time.Second)
	}
}

func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", recovered)
}
