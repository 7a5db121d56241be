// Package telemetry wires optional OpenTelemetry tracing around analysis
// runs. Spans cover the pipeline stages so slow loads and resolutions show up
// per stage rather than as one opaque command duration.
package telemetry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config controls tracer initialization.
type Config struct {
	// Enabled turns span export on; when false InitTracer is a no-op.
	Enabled bool
	// ServiceName and ServiceVersion identify this binary in trace backends.
	ServiceName    string
	ServiceVersion string
	// Sampler selects the sampling strategy: always, never, or ratio.
	Sampler string
	// Ratio is the sample fraction used by the ratio sampler.
	Ratio float64
}

// InitTracer installs the global tracer provider and returns its shutdown
// function. The exporter endpoint and headers come from the standard
// OTEL_EXPORTER_OTLP_ENDPOINT / OTEL_EXPORTER_OTLP_HEADERS variables.
func InitTracer(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resource")
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trace exporter")
	}

	// Short batch timeout: analyze runs exit quickly and the final flush
	// happens in the provider shutdown.
	processor := trace.NewBatchSpanProcessor(
		exporter,
		trace.WithMaxExportBatchSize(512),
		trace.WithBatchTimeout(1*time.Second),
	)

	provider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSpanProcessor(processor),
		trace.WithSampler(newSampler(cfg.Sampler, cfg.Ratio)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Provider shutdown flushes the processor, which shuts down the exporter.
	return provider.Shutdown, nil
}

func newSampler(kind string, ratio float64) trace.Sampler {
	switch kind {
	case "never":
		return trace.NeverSample()
	case "ratio":
		return trace.ParentBased(trace.TraceIDRatioBased(ratio))
	default:
		return trace.AlwaysSample()
	}
}
