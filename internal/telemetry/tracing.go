package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "go-genai-core"

// Tracer returns a named tracer scoped under the module's root tracer name.
// With no SDK registered, otel.Tracer returns a no-op implementation, so
// calling this unconditionally costs nothing when the host process hasn't
// wired an exporter.
func Tracer(component string) trace.Tracer {
	name := tracerName
	if component != "" {
		name = tracerName + "/" + component
	}
	return otel.Tracer(name)
}

// StartSpan is a convenience wrapper around Tracer(component).Start.
func StartSpan(ctx context.Context, component, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(component).Start(ctx, spanName, opts...)
}
