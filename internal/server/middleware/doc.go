// Package middleware provides HTTP middleware for the dashboard server:
// request metrics recording with path normalization, and security headers.
package middleware
