// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
)

// Exporter names accepted by Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	batchTimeout   = time.Second
	exportInterval = time.Minute
)

// ShutdownFunc flushes pending spans and metrics and stops the providers.
type ShutdownFunc func(context.Context) error

// Config controls where generation telemetry goes.
type Config struct {
	// Exporter is ExporterNone, ExporterStdout, or ExporterOTLP. Empty means
	// stdout.
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
	// SampleRatio is the fraction of runs traced. Values outside (0, 1)
	// trace every run.
	SampleRatio float64
	// LLMProvider and LLMModel are stamped on the resource so every span and
	// metric names the analysis backend that produced it.
	LLMProvider string
	LLMModel    string
}

// Init installs stdout exporters.
func Init(serviceName, version string) (ShutdownFunc, error) {
	return InitWithConfig(serviceName, version, Config{Exporter: ExporterStdout})
}

// InitWithConfig installs global tracer and meter providers for cfg. With
// ExporterNone the global no-op providers stay in place.
func InitWithConfig(serviceName, version string, cfg Config) (ShutdownFunc, error) {
	if cfg.Exporter == ExporterNone {
		return func(context.Context) error { return nil }, nil
	}

	spanExp, metricExp, err := newExporters(cfg, serviceName+"/"+version)
	if err != nil {
		return nil, err
	}

	res := NewResource(serviceName, version, cfg)
	tp := trace.NewTracerProvider(
		trace.WithBatcher(spanExp, trace.WithBatchTimeout(batchTimeout)),
		trace.WithResource(res),
		trace.WithSampler(Sampler(cfg.SampleRatio)),
	)
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExp, metric.WithInterval(exportInterval))),
		metric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// NewResource describes this process: service name and version plus the
// configured analysis backend.
func NewResource(serviceName, version string, cfg Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	}
	if cfg.LLMProvider != "" {
		attrs = append(attrs, attribute.String(AttrLLMProvider, cfg.LLMProvider))
	}
	if cfg.LLMModel != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, cfg.LLMModel))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// Sampler returns the root sampler for ratio. Document spans follow their
// run span, so a sampled run is always complete.
func Sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func newExporters(cfg Config, userAgent string) (trace.SpanExporter, metric.Exporter, error) {
	switch cfg.Exporter {
	case "", ExporterStdout:
		spanExp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		metricExp, err := stdoutmetric.New()
		if err != nil {
			_ = spanExp.Shutdown(context.Background())
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		return spanExp, metricExp, nil
	case ExporterOTLP:
		if cfg.OTLPEndpoint == "" {
			return nil, nil, fmt.Errorf("otlp endpoint is required")
		}
		return newOTLPExporters(cfg, userAgent)
	default:
		return nil, nil, fmt.Errorf("unknown telemetry exporter: %s", cfg.Exporter)
	}
}

func newOTLPExporters(cfg Config, userAgent string) (trace.SpanExporter, metric.Exporter, error) {
	dialUA := grpc.WithUserAgent(userAgent)
	traceOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithDialOption(dialUA),
	}
	metricOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithDialOption(dialUA),
	}
	if cfg.OTLPInsecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	ctx := context.Background()
	spanExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = spanExp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}
	return spanExp, metricExp, nil
}
