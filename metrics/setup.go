package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Config selects and configures the metrics exporter.
type Config struct {
	Exporter       string // "stdout" (or empty) or "prometheus"; "otlp" is rejected
	PrometheusPort int
	OTLPEndpoint   string
	ResourceAttrs  map[string]string
}

// Setup builds and installs a MeterProvider as the process default,
// matching config.Exporter. Callers must Shutdown the returned
// provider on exit.
func Setup(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	var reader sdkmetric.Reader
	var err error

	switch cfg.Exporter {
	case "", "stdout":
		reader, err = setupStdoutExporter()
	case "prometheus":
		reader, err = setupPrometheusExporter()
	case "otlp":
		return nil, fmt.Errorf("metrics: OTLP exporter requires otlpmetrichttp, not wired into this build")
	default:
		return nil, fmt.Errorf("metrics: unknown exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrsFromMap(cfg.ResourceAttrs)...))
	if err != nil {
		return nil, fmt.Errorf("metrics: building resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	return provider, nil
}

func setupStdoutExporter() (sdkmetric.Reader, error) {
	exp, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("metrics: stdout exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}

func setupPrometheusExporter() (sdkmetric.Reader, error) {
	exp, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("metrics: prometheus exporter: %w", err)
	}
	return exp, nil
}

func attrsFromMap(attrs map[string]string) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		out = append(out, attribute.String(k, v))
	}
	return out
}

// Shutdown flushes and closes the provider. A nil provider is a no-op.
func Shutdown(ctx context.Context, provider *sdkmetric.MeterProvider) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
