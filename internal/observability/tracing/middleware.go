package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"localpulse/internal/handler/http/requestid"
	"localpulse/internal/handler/http/responsewriter"
)

// Middleware creates one server span per HTTP request.
//
// It extracts any incoming W3C Trace Context, starts a span named after the
// method and path, echoes the trace ID in the X-Trace-Id response header,
// and records method, path, status code, and the request ID (when the
// request ID middleware ran before this one) as span attributes. A 5xx
// status marks the span as an error.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())

		wrapped := responsewriter.Wrap(w)
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		attrs := []attribute.KeyValue{
			attribute.Int("http.status_code", wrapped.StatusCode()),
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		}
		if id := requestid.FromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("request.id", id))
		}
		span.SetAttributes(attrs...)

		if wrapped.StatusCode() >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	})
}
