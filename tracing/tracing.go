// Package tracing wraps send_and_receive transactions in OpenTelemetry
// spans, grounded on the teacher's TracingManager
// (framework/observability/tracing.go): same exporter-by-string
// selection, same lifecycle shape, retargeted from HTTP/gRPC request
// spans to IPC transaction spans.
package tracing

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config selects the tracing exporter and sampling rate.
type Config struct {
	Enabled      bool
	ServiceName  string
	Exporter     string // "stdout", "otlp", "jaeger", "zipkin"
	Endpoint     string
	SamplingRate float64
}

// Tracer wraps a send_and_receive transaction in a span. A disabled
// Tracer is a valid zero-overhead no-op.
type Tracer struct {
	mu       sync.RWMutex
	config   Config
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// New builds a Tracer from cfg. When cfg.Enabled is false, New returns
// a Tracer whose StartTransaction is a no-op, so callers never branch
// on whether tracing is on.
func New(cfg Config) (*Tracer, error) {
	if !cfg.Enabled {
		return &Tracer{config: cfg}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("tracing: building resource: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing: building exporter: %w", err)
	}

	sampler := sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	if cfg.SamplingRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SamplingRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		config:   cfg,
		tracer:   provider.Tracer(cfg.ServiceName),
		provider: provider,
	}, nil
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "jaeger":
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	case "zipkin":
		return zipkin.New(cfg.Endpoint)
	case "otlp":
		client := otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		return otlptrace.New(context.Background(), client)
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
	}
}

// StartTransaction opens a span for one send_and_receive transaction.
// Callers must call the returned func to end the span, typically via
// defer, once the reply is delivered or the transaction fails.
func (t *Tracer) StartTransaction(ctx context.Context, requestID, source, destination, variant string) (context.Context, func(err error)) {
	t.mu.RLock()
	tracer := t.tracer
	t.mu.RUnlock()
	if tracer == nil {
		return ctx, func(error) {}
	}

	ctx, span := tracer.Start(ctx, "send_and_receive",
		trace.WithAttributes(
			attribute.String("dx.request_id", requestID),
			attribute.String("dx.source", source),
			attribute.String("dx.destination", destination),
			attribute.String("dx.variant", variant),
		))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}

// Shutdown flushes and closes the underlying provider, if any.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.mu.RLock()
	provider := t.provider
	t.mu.RUnlock()
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
