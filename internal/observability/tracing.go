// Package observability wires distributed tracing into genkit's tracer
// provider. Spans are exported over OTLP HTTP to a local collector
// agent, which handles authentication and forwarding to the backend.
package observability

import (
	"context"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/koopa0/concierge/internal/log"
)

// Config for the OTLP trace exporter.
type Config struct {
	// AgentHost is the collector's OTLP HTTP endpoint.
	AgentHost string
	// Environment tags spans with the deployment environment.
	Environment string
	// ServiceName is the service name shown in the APM backend.
	ServiceName string
}

// DefaultAgentHost is the standard local OTLP HTTP endpoint.
const DefaultAgentHost = "localhost:4318"

// Setup registers an OTLP HTTP span exporter with genkit's tracer
// provider. Must run before genkit.Init so the processor sees every
// span. An exporter construction failure only disables tracing; it is
// never fatal.
//
// The returned shutdown function flushes pending spans.
func Setup(ctx context.Context, cfg Config, logger log.Logger) func(context.Context) error {
	if logger == nil {
		logger = log.NewNop()
	}

	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// Genkit's tracer provider reads the standard OTEL environment
	// variables for resource attributes. Setup runs once before any
	// goroutine starts, so Setenv is safe here.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating otlp exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return tracing.TracerProvider().Shutdown
}
