// Package telemetry wires OpenTelemetry tracing and metrics exporters and
// defines the instruments recorded around itinerary builds.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config is read from OTEL_* variables.
type Config struct {
	ServiceName    string `env:"SERVICE_NAME" envDefault:"nestmap-api"`
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string        `env:"EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Enabled        bool          `env:"ENABLED" envDefault:"false"`
	SampleRatio    float64       `env:"TRACES_SAMPLE_RATIO" envDefault:"1"`
	ExportInterval time.Duration `env:"METRIC_EXPORT_INTERVAL" envDefault:"15s"`
}

func (c Config) sampler() sdktrace.Sampler {
	if c.SampleRatio <= 0 || c.SampleRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

// Shutdown flushes pending spans and metrics and stops the exporters.
type Shutdown func(context.Context) error

// Setup installs the W3C trace-context propagator and, when enabled, OTLP
// exporters as the global tracer and meter providers. With telemetry
// disabled the global no-op providers stay in place and Shutdown does
// nothing.
func Setup(ctx context.Context, cfg Config) (Shutdown, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	spans, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	metrics, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = spans.Shutdown(ctx)
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
