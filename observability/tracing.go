package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// TracingConfig controls OpenTelemetry trace export.
type TracingConfig struct {
	Endpoint string `json:"endpoint,omitempty" env:"ENDPOINT"` // OTLP/HTTP URL; empty disables tracing
}

// Merge applies non-zero values from source into c.
func (c *TracingConfig) Merge(source *TracingConfig) {
	if source.Endpoint != "" {
		c.Endpoint = source.Endpoint
	}
}

// SetupTracing installs a global tracer provider exporting to the configured
// endpoint. With no endpoint it installs nothing and returns a no-op
// shutdown. The returned shutdown flushes pending spans.
func SetupTracing(ctx context.Context, serviceName string, cfg TracingConfig) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
