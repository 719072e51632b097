package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(Config{}).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(Config{Sampler: "never"}).Description())
	assert.Contains(t, sampler(Config{Sampler: "ratio", SamplerRatio: 0.5}).Description(), "TraceIDRatioBased{0.5}")
}

func TestWithSpanRecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	err := WithSpan(context.Background(), "ok", func(context.Context) error { return nil },
		attribute.String("agent", "claude"))
	require.NoError(t, err)

	failure := errors.New("boom")
	err = WithSpan(context.Background(), "fails", func(context.Context) error { return failure })
	assert.Equal(t, failure, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ok", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "fails", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	assert.NotPanics(t, func() { RecordError(context.Background(), nil) })
}
