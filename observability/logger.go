// Package observability provides structured logging, Prometheus metrics and
// OpenTelemetry tracing for the solution compiler.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the structured logger handed to the builder, the converter and
// the project readers. Message templates use mtlog's {Property} syntax.
//
// The Context variants attach the TraceId and SpanId of the active span, so
// log events line up with the build spans exported by SetupTracing.
type Logger interface {
	Verbose(messageTemplate string, args ...any)
	VerboseContext(ctx context.Context, messageTemplate string, args ...any)

	Debug(messageTemplate string, args ...any)
	DebugContext(ctx context.Context, messageTemplate string, args ...any)

	Info(messageTemplate string, args ...any)
	InfoContext(ctx context.Context, messageTemplate string, args ...any)

	Warn(messageTemplate string, args ...any)
	WarnContext(ctx context.Context, messageTemplate string, args ...any)

	Error(messageTemplate string, args ...any)
	ErrorContext(ctx context.Context, messageTemplate string, args ...any)

	// ForContext returns a child logger that adds key to every event.
	ForContext(key string, value any) Logger
}

// LogLevel is the minimum severity a logger writes.
type LogLevel int

// Log levels, most detailed first.
const (
	VerboseLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var minimumLevels = map[LogLevel]func() mtlog.Option{
	VerboseLevel: mtlog.Verbose,
	DebugLevel:   mtlog.Debug,
	InfoLevel:    mtlog.Information,
	WarnLevel:    mtlog.Warning,
	ErrorLevel:   mtlog.Error,
}

// ParseLogLevel maps a CLI verbosity name to a log level.
func ParseLogLevel(verbosity string) (LogLevel, error) {
	switch strings.ToLower(verbosity) {
	case "q", "quiet":
		return ErrorLevel, nil
	case "m", "minimal":
		return WarnLevel, nil
	case "n", "normal", "":
		return InfoLevel, nil
	case "d", "detailed":
		return DebugLevel, nil
	case "diag", "diagnostic":
		return VerboseLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown verbosity %q", verbosity)
}

// NewLogger creates a logger writing to output at the given minimum level.
func NewLogger(output io.Writer, level LogLevel) Logger {
	minimum, ok := minimumLevels[level]
	if !ok {
		minimum = mtlog.Information
	}
	return &mtlogLogger{
		logger: mtlog.New(
			mtlog.WithSink(sinks.NewConsoleSinkWithWriter(output)),
			mtlog.WithTimestamp(),
			minimum(),
		),
	}
}

type mtlogLogger struct {
	logger core.Logger
}

// correlated enriches the logger with the span carried by ctx, if any.
func (l *mtlogLogger) correlated(ctx context.Context) core.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l.logger
	}
	return l.logger.
		ForContext("TraceId", sc.TraceID().String()).
		ForContext("SpanId", sc.SpanID().String())
}

func (l *mtlogLogger) Verbose(tmpl string, args ...any) { l.logger.Verbose(tmpl, args...) }
func (l *mtlogLogger) Debug(tmpl string, args ...any)   { l.logger.Debug(tmpl, args...) }
func (l *mtlogLogger) Info(tmpl string, args ...any)    { l.logger.Info(tmpl, args...) }
func (l *mtlogLogger) Warn(tmpl string, args ...any)    { l.logger.Warn(tmpl, args...) }
func (l *mtlogLogger) Error(tmpl string, args ...any)   { l.logger.Error(tmpl, args...) }

func (l *mtlogLogger) VerboseContext(ctx context.Context, tmpl string, args ...any) {
	l.correlated(ctx).VerboseContext(ctx, tmpl, args...)
}

func (l *mtlogLogger) DebugContext(ctx context.Context, tmpl string, args ...any) {
	l.correlated(ctx).DebugContext(ctx, tmpl, args...)
}

func (l *mtlogLogger) InfoContext(ctx context.Context, tmpl string, args ...any) {
	l.correlated(ctx).InfoContext(ctx, tmpl, args...)
}

func (l *mtlogLogger) WarnContext(ctx context.Context, tmpl string, args ...any) {
	l.correlated(ctx).WarnContext(ctx, tmpl, args...)
}

func (l *mtlogLogger) ErrorContext(ctx context.Context, tmpl string, args ...any) {
	l.correlated(ctx).ErrorContext(ctx, tmpl, args...)
}

func (l *mtlogLogger) ForContext(key string, value any) Logger {
	return &mtlogLogger{logger: l.logger.ForContext(key, value)}
}

// NewNullLogger creates a logger that discards everything.
func NewNullLogger() Logger {
	return nullLogger{}
}

type nullLogger struct{}

func (nullLogger) Verbose(string, ...any)                         {}
func (nullLogger) VerboseContext(context.Context, string, ...any) {}
func (nullLogger) Debug(string, ...any)                           {}
func (nullLogger) DebugContext(context.Context, string, ...any)   {}
func (nullLogger) Info(string, ...any)                            {}
func (nullLogger) InfoContext(context.Context, string, ...any)    {}
func (nullLogger) Warn(string, ...any)                            {}
func (nullLogger) WarnContext(context.Context, string, ...any)    {}
func (nullLogger) Error(string, ...any)                           {}
func (nullLogger) ErrorContext(context.Context, string, ...any)   {}
func (n nullLogger) ForContext(string, any) Logger                { return n }
