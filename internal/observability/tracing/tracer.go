// Package tracing provides OpenTelemetry tracing for the HTTP surface and
// the aggregation pipeline. Without a configured tracer provider every span
// is a no-op, so the instrumentation costs nothing in deployments that do
// not export traces.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the application-wide tracer instance.
var tracer = otel.Tracer("localpulse")

// StartSpan starts a span on the application tracer.
//
//	ctx, span := tracing.StartSpan(ctx, "events fan-out")
//	defer span.End()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, opts...)
}
