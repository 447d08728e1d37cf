package instrumentation

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	assert.False(t, provider.Enabled())
	require.NotNil(t, provider.Metrics())

	// No-op metrics accept recordings without error.
	provider.Metrics().RecordHTTPRequest(context.Background(), "GET", "/books", 200, time.Millisecond)
}

func TestNewProviderUnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: "graphite",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metrics exporter")
}

// TestMetricsExposedViaPrometheus verifies metrics recorded through the
// provider surface on a scrape of the default Prometheus registry.
func TestMetricsExposedViaPrometheus(t *testing.T) {
	config := Config{
		ServiceName:     "mission-control-test",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	}

	ctx := context.Background()
	provider, err := NewProvider(ctx, config)
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()
	require.NotNil(t, metrics)

	metrics.RecordHTTPRequest(ctx, "GET", "/books", 200, 15*time.Millisecond)
	metrics.RecordK8sOperation(ctx, "list", "books", "bdk", "success", 40*time.Millisecond)
	metrics.RecordContextSwitch(ctx, "kognitos-dev", "success")
	metrics.RecordLogin(ctx, "dev", "success")

	// The OTel prometheus exporter registers to the default registry, the
	// same registry the metrics server scrapes.
	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	output := string(body)

	for _, metricName := range []string{
		"http_requests_total",
		"http_request_duration_seconds",
		"kubernetes_operations_total",
		"kubernetes_operation_duration_seconds",
		"context_switches_total",
		"environment_logins_total",
	} {
		assert.True(t, strings.Contains(output, metricName), "expected %s in scrape output", metricName)
	}
}
