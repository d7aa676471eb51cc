package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the tracer name for gosln operations
	TracerName = "github.com/willibrandon/gosln"
)

// Common attribute keys
const (
	AttrProjectPath   = attribute.Key("gosln.project.path")
	AttrSolutionPath  = attribute.Key("gosln.solution.path")
	AttrConfiguration = attribute.Key("gosln.configuration.path")
	AttrOperation     = attribute.Key("gosln.operation")
	AttrCacheHit      = attribute.Key("gosln.cache.hit")
	AttrChangeCount   = attribute.Key("gosln.change.count")
	AttrIssueCount    = attribute.Key("gosln.issue.count")
)

// StartBuildSpan starts a span for building a solution from a configuration file
func StartBuildSpan(ctx context.Context, configurationPath string) (context.Context, trace.Span) {
	return startSpan(ctx, "solution.build",
		AttrConfiguration.String(configurationPath),
		AttrOperation.String("build"),
	)
}

// StartProjectReadSpan starts a span for reading one project file
func StartProjectReadSpan(ctx context.Context, projectPath string) (context.Context, trace.Span) {
	return startSpan(ctx, "project.read",
		AttrProjectPath.String(projectPath),
		AttrOperation.String("read"),
	)
}

// StartDependencyResolutionSpan starts a span for resolving the dependencies of a project
func StartDependencyResolutionSpan(ctx context.Context, projectPath string) (context.Context, trace.Span) {
	return startSpan(ctx, "dependency.resolve",
		AttrProjectPath.String(projectPath),
		AttrOperation.String("resolve"),
	)
}

// StartSolutionUpdateSpan starts a span for updating an existing solution file
func StartSolutionUpdateSpan(ctx context.Context, solutionPath string) (context.Context, trace.Span) {
	return startSpan(ctx, "solution.update",
		AttrSolutionPath.String(solutionPath),
		AttrOperation.String("update"),
	)
}

// RecordCacheHit records cache hit/miss on the current span
func RecordCacheHit(ctx context.Context, hit bool) {
	trace.SpanFromContext(ctx).SetAttributes(AttrCacheHit.Bool(hit))
}

// RecordResult records the change and issue counts of an operation on the current span
func RecordResult(ctx context.Context, changes, issues int) {
	trace.SpanFromContext(ctx).SetAttributes(
		AttrChangeCount.Int(changes),
		AttrIssueCount.Int(issues),
	)
}

// EndSpanWithError ends a span with an error status
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
