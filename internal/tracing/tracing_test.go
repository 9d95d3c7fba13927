package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_DisabledIsNoop(t *testing.T) {
	tp, err := InitTracing(context.Background(), Config{ServiceName: "weekstats", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())

	_, span := StartSpan(context.Background(), "noop")
	span.End()

	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestInitTracing_EnabledWithoutEndpointIsNoop(t *testing.T) {
	tp, err := InitTracing(context.Background(), Config{ServiceName: "weekstats", Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, tp.provider)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "AlwaysOnSampler"},
		{1, "AlwaysOnSampler"},
		{-2, "AlwaysOnSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := sampler(tt.ratio).Description()
		assert.Contains(t, desc, "ParentBased")
		assert.Contains(t, desc, tt.want)
	}
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("collector:4318"), 2)
	assert.Len(t, exporterOptions("http://collector:4318/v1/traces"), 2)
	assert.Len(t, exporterOptions("https://otel.example/v1/traces"), 1)
}

func TestInitTracing_Enabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), Config{
		ServiceName:  "weekstats",
		OTLPEndpoint: "127.0.0.1:4318",
		SampleRatio:  0.5,
		Enabled:      true,
	})
	require.NoError(t, err)
	require.NotNil(t, tp.provider)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
