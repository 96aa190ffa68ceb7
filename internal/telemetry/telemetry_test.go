package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_NoopWhenUnconfigured(t *testing.T) {
	shutdown, err := Setup(t.Context(), "test", Config{Enabled: true})
	require.NoError(t, err)
	require.NoError(t, shutdown(t.Context()))
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(t.Context(), "test", Config{Enabled: false, Endpoint: "http://192.0.2.1:4318"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_TraceFile(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	path := filepath.Join(t.TempDir(), "traces.log")

	shutdown, err := Setup(t.Context(), "test", Config{Enabled: true, TraceFile: path})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(t.Context(), "unit-span")
	span.End()

	require.NoError(t, shutdown(t.Context()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "unit-span")
}

func TestSetup_OTLPEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := Setup(t.Context(), "test", Config{Enabled: true, Endpoint: "http://192.0.2.1:4318"})
	require.NoError(t, err)
	require.NoError(t, shutdown(t.Context()))
}
