package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "baton"

// StartSaveSpan starts a span for a requirement save.
func StartSaveSpan(ctx context.Context, reqID, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "requirement.save",
		trace.WithAttributes(
			attribute.String("requirement.id", reqID),
			attribute.String("requirement.action", action),
		),
	)
}

// StartMigrationSpan starts a span for the legacy state migration.
func StartMigrationSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "requirement.migrate_legacy")
}
