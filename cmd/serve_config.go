package cmd

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// ListenAddr is the dashboard listen address.
	ListenAddr string

	// DefaultNamespace is the namespace resource lists default to.
	DefaultNamespace string

	// KubeconfigPath overrides kubeconfig resolution. Empty means
	// $KUBECONFIG or the default chain.
	KubeconfigPath string

	// Context pins the kube context at startup. Empty keeps the
	// kubeconfig's current context.
	Context string

	// ConfigPath points at the JSON config file. Empty means the
	// default location under ~/.config/mission-control.
	ConfigPath string

	// Kubernetes client rate limits and per-request timeout.
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	// Logging settings.
	LogLevel  string
	LogFormat string

	// MetricsAddr is the dedicated metrics server address, used when
	// instrumentation is enabled.
	MetricsAddr string
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for values that would fail at
// startup anyway, so errors surface before any listener opens.
func (c ServeConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.ListenAddr, err)
	}

	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", c.MetricsAddr, err)
		}
	}

	if strings.TrimSpace(c.DefaultNamespace) == "" {
		return fmt.Errorf("default namespace must not be empty")
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format %q: must be json or text", c.LogFormat)
	}

	if c.QPSLimit <= 0 {
		return fmt.Errorf("qps limit must be positive, got %v", c.QPSLimit)
	}
	if c.BurstLimit <= 0 {
		return fmt.Errorf("burst limit must be positive, got %d", c.BurstLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	return nil
}
