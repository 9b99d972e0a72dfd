package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if dir := ProjectDirFromContext(ctx); dir != "" {
		fields = append(fields, zap.String("project.dir", dir))
	}

	if p := EventPathFromContext(ctx); p != "" {
		fields = append(fields, zap.String("fs.path", p))
	}

	return fields
}

type projectDirCtxKey struct{}
type eventPathCtxKey struct{}

// WithProjectDir tags ctx with the candidate project directory being handled.
func WithProjectDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, projectDirCtxKey{}, dir)
}

// ProjectDirFromContext returns the candidate directory, or "".
func ProjectDirFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(projectDirCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithEventPath tags ctx with the raw filesystem path that triggered work.
func WithEventPath(ctx context.Context, p string) context.Context {
	return context.WithValue(ctx, eventPathCtxKey{}, p)
}

// EventPathFromContext returns the triggering path, or "".
func EventPathFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(eventPathCtxKey{}).(string); ok {
		return s
	}
	return ""
}
