// Package logging provides structured logging helpers built on log/slog.
//
// It defines the attribute keys used across the application so log output
// stays queryable, small constructors for those attributes, and host
// sanitization for messages that may embed Kubernetes API server addresses.
// SlogAdapter bridges *slog.Logger to the plain argument-pair Logger
// interfaces used by the server and Kubernetes client packages.
package logging
