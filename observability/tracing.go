package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exporter types accepted by TracerConfig.ExporterType.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// shutdownTimeout bounds the final span flush on exit.
const shutdownTimeout = 5 * time.Second

// TracerConfig selects where the spans of a run are exported.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string

	// ExporterType is one of ExporterNone, ExporterStdout or ExporterOTLP
	ExporterType string

	// OTLPEndpoint is the collector address for ExporterOTLP
	OTLPEndpoint string

	// SamplingRate is the fraction of root spans kept, from 0 to 1
	SamplingRate float64

	// Output receives stdout spans; nil means os.Stderr
	Output io.Writer
}

// DefaultTracerConfig returns a configuration that records spans without
// exporting them.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		ServiceName:    "gosln",
		ServiceVersion: "dev",
		ExporterType:   ExporterNone,
		OTLPEndpoint:   "localhost:4317",
		SamplingRate:   1.0,
	}
}

// Tracing owns the tracer provider installed by SetupTracing.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// SetupTracing installs a global tracer provider exporting to the
// configured destination.
func SetupTracing(ctx context.Context, config TracerConfig) (*Tracing, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	export, err := exporterOption(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(config.SamplingRate))),
	}
	if export != nil {
		opts = append(opts, export)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return &Tracing{provider: tp}, nil
}

func exporterOption(ctx context.Context, config TracerConfig) (sdktrace.TracerProviderOption, error) {
	switch config.ExporterType {
	case ExporterNone, "":
		return nil, nil
	case ExporterStdout:
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		// Synchronous so spans reach the writer before the process exits.
		return sdktrace.WithSyncer(exporter), nil
	case ExporterOTLP:
		conn, err := grpc.NewClient(config.OTLPEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", config.OTLPEndpoint, err)
		}
		exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("create OTLP exporter: %w", err), conn.Close())
		}
		return sdktrace.WithBatcher(exporter), nil
	}
	return nil, fmt.Errorf("unsupported exporter type: %s", config.ExporterType)
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// Shutdown flushes pending spans and releases the exporter. It is safe to
// call on a nil Tracing.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shut down tracer provider: %w", err)
	}
	return nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
