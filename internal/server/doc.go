// Package server provides shared infrastructure for the dashboard server:
// the ServerContext dependency container with functional options, health
// check endpoints for liveness and readiness probes, and a dedicated
// Prometheus metrics server kept off the main listener.
package server
