package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_ProjectAndPath(t *testing.T) {
	ctx := WithProjectDir(context.Background(), "/watch/alpha")
	ctx = WithEventPath(ctx, "/watch/alpha/docs/concept.md")

	assert.Equal(t, "/watch/alpha", ProjectDirFromContext(ctx))
	assert.Equal(t, "/watch/alpha/docs/concept.md", EventPathFromContext(ctx))

	fields := ContextFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"project.dir", "fs.path"}, keys)
}

func TestContextFields_TraceCorrelation(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := ContextFields(ctx)
	found := map[string]string{}
	for _, f := range fields {
		found[f.Key] = f.String
	}
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", found["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", found["span_id"])
}
