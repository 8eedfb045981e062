// Package telemetry provides optional OpenTelemetry tracing of MCP tool
// invocations. Tracing is off unless FLUTTERMCP_OTLP_ENDPOINT is set, in
// which case finished spans are exported to that collector endpoint as
// OTLP/HTTP protobuf.
package telemetry

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// endpointEnv names the collector endpoint environment variable, e.g.
// "http://localhost:4318/v1/traces".
const endpointEnv = "FLUTTERMCP_OTLP_ENDPOINT"

// tracerName is the instrumentation scope for this module.
const tracerName = "github.com/fluttermcp/cli"

// Init configures the global tracer provider.
//
// Returns a shutdown function that flushes pending spans; with no
// endpoint configured both tracing and shutdown are no-ops.
func Init(ctx context.Context, serviceName, version string) func(context.Context) error {
	endpoint := os.Getenv(endpointEnv)
	if endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }
	}

	exporter := newOTLPExporter(endpoint, serviceName, version)
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	log.Debug("Telemetry enabled", "endpoint", endpoint)
	return tp.Shutdown
}

// Tracer returns the module tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTool opens a span for an MCP tool invocation.
func StartTool(ctx context.Context, tool string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "tool."+tool,
		trace.WithAttributes(attribute.String("mcp.tool", tool)))
}
