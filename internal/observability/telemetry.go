package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/types"
	"github.com/Multi-Agent-LLMs/mallm-sub000/pkg/version"
)

const (
	defaultBatchTimeout   = 5 * time.Second
	defaultExportInterval = 15 * time.Second
	defaultServiceName    = "mallm"
)

// Metric names recorded across the engine.
const (
	MetricSessions        = "mallm.sessions"
	MetricSessionDuration = "mallm.session.duration"
	MetricTurns           = "mallm.turns"
	MetricLLMCalls        = "mallm.llm.calls"
	MetricDecodeRetries   = "mallm.decode.retries"
	MetricVotesDropped    = "mallm.votes.dropped"
)

// Telemetry bundles the tracer and meter providers handed to every
// component. Shutdown flushes pending spans and metrics.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	shutdown []func(context.Context) error
}

// Shutdown flushes and stops the exporters. It is safe to call on a
// Telemetry built with everything disabled.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return types.WrapError(types.OBSERVABILITY_SHUTDOWN_FAILED, "failed to shutdown telemetry", errors.Join(errs...))
	}
	return nil
}

// InitTelemetry creates the providers described by tracing and metrics and
// installs them as the OpenTelemetry globals. Disabled halves fall back to
// providers that record nothing.
func InitTelemetry(ctx context.Context, tracing TracingConfig, metrics MetricsConfig) (*Telemetry, error) {
	t := &Telemetry{}

	tp, err := InitTracing(ctx, tracing)
	if err != nil {
		return nil, err
	}
	t.TracerProvider = tp
	t.shutdown = append(t.shutdown, tp.Shutdown)

	mp, shutdown, err := InitMetrics(ctx, metrics, tracing.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	t.MeterProvider = mp
	if shutdown != nil {
		t.shutdown = append(t.shutdown, shutdown)
	}

	otel.SetTracerProvider(t.TracerProvider)
	otel.SetMeterProvider(t.MeterProvider)
	return t, nil
}

// InitTracing returns a tracer provider exporting over OTLP gRPC. When
// tracing is disabled the provider has no span processor and records
// nothing.
func InitTracing(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "invalid tracing configuration", err)
	}

	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED,
			fmt.Sprintf("failed to connect trace exporter to %s", cfg.Endpoint), err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(defaultBatchTimeout)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
		sdktrace.WithResource(res),
	), nil
}

// InitMetrics returns a meter provider pushing to an OTLP gRPC collector on
// a periodic reader, or a no-op provider when metrics are disabled.
func InitMetrics(ctx context.Context, cfg MetricsConfig, serviceName string) (metric.MeterProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return noop.NewMeterProvider(), nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "invalid metrics configuration", err)
	}

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED,
			fmt.Sprintf("failed to connect metric exporter to %s", cfg.Endpoint), err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultExportInterval
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	return provider, provider.Shutdown, nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to create resource", err)
	}
	return res, nil
}
