// Package otel provides OpenTelemetry instrumentation for baton: HTTP
// spans, store spans, and mutation/lint counters. Exporter setup is left to
// the embedding environment; without one the instruments are no-ops.
package otel

import (
	"context"
	"log/slog"
)

// ShutdownFunc is called to flush and shut down the trace provider.
type ShutdownFunc func(ctx context.Context) error

// InitTracer returns a no-op shutdown function. An OTLP exporter can be
// plugged in here without touching the call sites.
func InitTracer(serviceName string) ShutdownFunc {
	slog.Info("otel tracer initialized", "service", serviceName)
	return func(_ context.Context) error {
		return nil
	}
}
