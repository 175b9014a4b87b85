package otel

import (
	"context"
	"sync"
	"time"

	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "ewsclient"

var (
	connectionFailed bool
	connectionMutex  sync.Mutex
)

func noopShutdown(context.Context) error { return nil }

// Setup installs an OTLP/HTTP tracer provider for serviceName and returns its
// shutdown function. Tracing stays a no-op when collectorURL is empty or the
// exporter cannot be created.
func Setup(ctx context.Context, serviceName, collectorURL string) (func(context.Context) error, error) {
	if collectorURL == "" {
		logger.Info(log_messages.TracingDisabled)
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	connectionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	traceExporter, err := otlptracehttp.New(connectionCtx,
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithEndpoint(collectorURL),
	)
	if err != nil {
		handleConnectionError(err)
		return noopShutdown, nil
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger.Info("OTLP tracing enabled", zap.String("collector", collectorURL), zap.String("service", serviceName))

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tracerProvider.Shutdown(shutdownCtx)
	}, nil
}

// GetTracer returns a tracer from the provider installed at call time.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func GetMeter(name string) metric.Meter {
	return otel.Meter(name)
}

// Propagator is the process-wide propagator used to stamp outgoing requests.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

func handleConnectionError(err error) {
	connectionMutex.Lock()
	defer connectionMutex.Unlock()
	if !connectionFailed {
		logger.Error(log_messages.OTLPConnectionError, err)
		connectionFailed = true
	}
}
