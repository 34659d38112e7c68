// Package otel configures OpenTelemetry tracing for commands.
package otel

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/louisbranch/pie/internal/platform/config"
)

// Config holds the tracing settings read from the environment.
type Config struct {
	// Endpoint is the OTLP/HTTP collector URL (PIE_OTEL_ENDPOINT).
	Endpoint string `env:"OTEL_ENDPOINT"`
	// Enabled set to "false" disables tracing even with an endpoint (PIE_OTEL_ENABLED).
	Enabled string `env:"OTEL_ENABLED"`
}

// Active reports whether spans should be exported.
func (c Config) Active() bool {
	return strings.TrimSpace(c.Endpoint) != "" && !strings.EqualFold(strings.TrimSpace(c.Enabled), "false")
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when PIE_OTEL_ENDPOINT is empty or PIE_OTEL_ENABLED is
// "false", Setup returns a no-op shutdown function and no global provider is
// registered. Spans started before that stay no-ops.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return noop, err
	}
	if !cfg.Active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(strings.TrimSpace(cfg.Endpoint)),
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
