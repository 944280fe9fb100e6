package transport

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer installs a process-wide TracerProvider tagged with
// serviceName, grounded on hector's observability.InitGlobalTracer. No
// OTLP exporter dependency is wired (none of it is otherwise exercised
// by this module; see DESIGN.md), so spans are created and ended for
// in-process propagation and middleware instrumentation without being
// shipped to a collector.
func InitTracer(ctx context.Context, serviceName string) (trace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp, nil
}

// GetTracer returns a named tracer from the process-wide TracerProvider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
