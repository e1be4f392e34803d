// Package otel sets up OpenTelemetry tracing for the gateway.
package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"
)

type Config struct {
	Servicename string
	// Endpoint is the OTLP gRPC collector address. Tracing stays disabled when empty.
	Endpoint string
	Insecure bool
	Logger   logr.Logger
}

// Init installs the global tracer provider and propagators. The returned func flushes
// and stops the exporter.
func Init(ctx context.Context, c Config) (context.Context, func(), error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if c.Endpoint == "" {
		c.Logger.V(1).Info("no otel endpoint configured, tracing disabled")
		return ctx, func() {}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.Endpoint)}
	if c.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return ctx, nil, fmt.Errorf("creating otlp trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(c.Servicename),
	))
	if err != nil {
		return ctx, nil, fmt.Errorf("creating otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		c.Logger.Error(err, "opentelemetry error")
	}))
	c.Logger.Info("tracing enabled", "endpoint", c.Endpoint, "insecure", c.Insecure)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			c.Logger.Error(err, "failed to shut down tracer provider")
		}
	}

	return ctx, shutdown, nil
}
