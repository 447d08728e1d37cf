package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	metrics, err := NewMetrics(meter, false)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	// Recording against a no-op meter should not panic.
	ctx := context.Background()
	metrics.RecordHTTPRequest(ctx, "GET", "/books", 200, 10*time.Millisecond)
	metrics.RecordK8sOperation(ctx, "list", "books", "bdk", "success", 50*time.Millisecond)
	metrics.RecordContextSwitch(ctx, "kognitos-dev", "success")
	metrics.RecordLogin(ctx, "dev", "success")
}

func TestNewMetricsDetailedLabels(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	metrics, err := NewMetrics(meter, true)
	require.NoError(t, err)
	assert.True(t, metrics.detailedLabels)

	metrics.RecordK8sOperation(context.Background(), "get", "pods", "org-acme-ws-proto1", "error", time.Millisecond)
}

func TestMetricsZeroValueIsSafe(t *testing.T) {
	// An uninitialized Metrics must not panic when recording.
	var metrics Metrics

	ctx := context.Background()
	metrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	metrics.RecordK8sOperation(ctx, "list", "books", "bdk", "success", time.Millisecond)
	metrics.RecordContextSwitch(ctx, "kognitos-dev", "success")
	metrics.RecordLogin(ctx, "dev", "error")
}
