// Package telemetry wires the OpenTelemetry tracer provider. Spans are
// emitted by the api gateway; this package only decides where they go.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/nwestfall/bookforge/internal/config"
	"github.com/nwestfall/bookforge/internal/log"
)

// serviceName identifies bookforge in exported traces.
const serviceName = "bookforge"

// noopShutdown is returned when telemetry is disabled.
func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider per the config and returns a
// shutdown function that flushes pending spans. When telemetry is
// disabled the default no-op provider stays in place.
//
// stdoutWriter receives spans for the "stdout" exporter; pass the log
// file or io.Discard, never the terminal a TUI is drawing on.
func Init(cfg config.TelemetryConfig, stdoutWriter io.Writer) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	exporter, err := newExporter(cfg, stdoutWriter)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	log.Info(log.CatAPI, "Telemetry enabled", "exporter", cfg.Exporter)
	return provider.Shutdown, nil
}

func newExporter(cfg config.TelemetryConfig, stdoutWriter io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		return otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		if stdoutWriter == nil {
			stdoutWriter = io.Discard
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(stdoutWriter),
			stdouttrace.WithPrettyPrint(),
		)
	}
}
