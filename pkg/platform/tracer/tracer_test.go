package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofie/pkg/platform/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, tracer.SpanGuidanceRespond, tracer.Bool("flag", true))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.String("another", "attr"))
	span.AddEvent("event", tracer.Int("count", 42))
	span.End(errors.New("ignored"))
}

func TestOTelTracer_UsesGlobalProvider(t *testing.T) {
	_, span := tracer.NewOTel().Start(context.Background(), tracer.SpanGenerationCall,
		tracer.Int(tracer.AttrPromptChars, 120),
		tracer.Attribute{Key: "modules", Value: []string{"protocols"}},
	)
	require.NotNil(t, span)
	span.End(errors.New("backend down"))
}

func TestRecorder_CapturesSpansInEndOrder(t *testing.T) {
	rec := tracer.NewRecorder()
	ctx := context.Background()

	_, outer := rec.Start(ctx, "outer", tracer.String("k", "v"))
	_, inner := rec.Start(ctx, "inner")
	inner.End(nil)
	outer.SetAttributes(tracer.Int("n", 2))
	outer.End(errors.New("failed"))

	assert.Equal(t, []string{"inner", "outer"}, rec.Names())
	spans := rec.Spans()
	assert.Equal(t, "v", spans[1].Attrs["k"])
	assert.Equal(t, 2, spans[1].Attrs["n"])
	assert.EqualError(t, spans[1].Err, "failed")
}

func TestHashUserID(t *testing.T) {
	assert.Empty(t, tracer.HashUserID(""))
	h := tracer.HashUserID("user-123")
	assert.Len(t, h, 16)
	assert.Equal(t, h, tracer.HashUserID("user-123"))
	assert.NotEqual(t, h, tracer.HashUserID("user-124"))
}
