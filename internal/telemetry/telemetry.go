// Package telemetry installs the OpenTelemetry tracer and meter providers.
//
// Traces go to an OTLP/HTTP collector when an endpoint is configured,
// otherwise to a rotated JSON file when a trace file is configured. Metrics
// are written to a rotated file when a metrics file is configured. With
// nothing configured Setup leaves the no-op globals in place.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config configures Setup.
type Config struct {
	Enabled         bool          `env:"AGENTLAB_OTEL_ENABLED" envDefault:"true"`
	Endpoint        string        `env:"AGENTLAB_OTEL_ENDPOINT"`
	TraceFile       string        `env:"AGENTLAB_TRACE_FILE"`
	MetricsFile     string        `env:"AGENTLAB_METRICS_FILE"`
	MetricsInterval time.Duration `env:"AGENTLAB_METRICS_INTERVAL" envDefault:"10s"`
}

// ShutdownFunc flushes and releases the providers.
type ShutdownFunc func(context.Context) error

// Setup installs global providers for serviceName according to cfg.
func Setup(ctx context.Context, serviceName string, cfg Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled || (cfg.Endpoint == "" && cfg.TraceFile == "" && cfg.MetricsFile == "") {
		return noop, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, fmt.Errorf("failed to create resource: %w", err)
	}

	var (
		shutdowns []ShutdownFunc
		closers   []io.Closer
	)

	shutdown := func(ctx context.Context) error {
		var errs []error

		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}

		for _, c := range closers {
			errs = append(errs, c.Close())
		}

		return errors.Join(errs...)
	}

	spanExporter, closer, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return noop, err
	}

	if closer != nil {
		closers = append(closers, closer)
	}

	if spanExporter != nil {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.TraceContext{})

		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if cfg.MetricsFile != "" {
		file := rotated(cfg.MetricsFile)
		closers = append(closers, file)

		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(file))
		if err != nil {
			_ = shutdown(ctx)
			return noop, fmt.Errorf("failed to create metric exporter: %w", err)
		}

		interval := cfg.MetricsInterval
		if interval <= 0 {
			interval = 10 * time.Second
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(mp)

		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return shutdown, nil
}

func newSpanExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, io.Closer, error) {
	switch {
	case cfg.Endpoint != "":
		var opt otlptracehttp.Option
		if strings.Contains(cfg.Endpoint, "://") {
			opt = otlptracehttp.WithEndpointURL(cfg.Endpoint)
		} else {
			opt = otlptracehttp.WithEndpoint(cfg.Endpoint)
		}

		exp, err := otlptracehttp.New(ctx, opt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create otlp exporter: %w", err)
		}

		return exp, nil, nil
	case cfg.TraceFile != "":
		file := rotated(cfg.TraceFile)

		exp, err := stdouttrace.New(stdouttrace.WithWriter(file))
		if err != nil {
			_ = file.Close()
			return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		return exp, file, nil
	default:
		return nil, nil, nil
	}
}

func rotated(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}
