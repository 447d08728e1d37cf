// Package instrumentation provides OpenTelemetry instrumentation for the
// dashboard server.
//
// It exposes metrics for HTTP request handling and Kubernetes operations,
// plus counters for context switches and environment logins. Metrics export
// via Prometheus by default, with OTLP and stdout exporters available.
// Tracing is off unless an exporter is configured.
//
// Configuration comes from environment variables:
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: mission-control)
//
// Namespace and resource_type labels on Kubernetes operation metrics are
// behind METRICS_DETAILED_LABELS because workspace namespaces are unbounded.
package instrumentation
