// Package auth performs cluster access setup for remote environments.
//
// Remote Kognitos clusters authenticate through short-lived credentials
// provisioned by a setup-access.sh script in the operator's gitops
// checkout. This package runs that script for the environment a kube
// context belongs to and tracks a one-shot "login performed" flag the
// dashboard polls to show a toast.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kognitos/mission-control/internal/appurl"
	"github.com/kognitos/mission-control/internal/logging"
)

// LoginTimeout bounds a single run of the access setup script.
const LoginTimeout = 2 * time.Minute

var (
	// ErrUnsupportedContext is returned when the context does not belong to
	// a dev, stg or prod environment.
	ErrUnsupportedContext = errors.New("login is only supported for dev, stg and prod contexts")

	// ErrGitopsPathNotConfigured is returned when the config file carries no
	// gitops checkout path.
	ErrGitopsPathNotConfigured = errors.New("gitops_path is not configured")
)

// authIndicators are substrings that mark an error as an authentication or
// authorization failure worth offering a re-login for.
var authIndicators = []string{
	"unauthorized",
	"401",
	"403",
	"forbidden",
	"token has expired",
	"token is expired",
	"unable to connect to the server",
	"credentials",
	"authentication",
	"exec plugin",
	"no auth provider",
}

// IsAuthError reports whether the error indicates an authentication or
// authorization problem with the cluster.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range authIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// Manager runs environment logins and remembers whether one recently
// succeeded. Safe for concurrent use.
type Manager struct {
	gitopsPath string
	logger     *slog.Logger

	mu        sync.Mutex
	performed bool
	lastEnv   appurl.Environment
}

// NewManager creates a Manager. gitopsPath may be empty, in which case
// Login fails with ErrGitopsPathNotConfigured.
func NewManager(gitopsPath string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{gitopsPath: gitopsPath, logger: logger}
}

// Login provisions access for the environment the given kube context
// belongs to by running <gitops>/scripts/setup-access.sh <env>. It returns
// the environment that was logged in to.
func (m *Manager) Login(ctx context.Context, contextName string) (appurl.Environment, error) {
	env, ok := appurl.EnvFromContext(contextName)
	if !ok {
		return "", ErrUnsupportedContext
	}

	if m.gitopsPath == "" {
		return "", ErrGitopsPathNotConfigured
	}

	script := filepath.Join(m.gitopsPath, "scripts", "setup-access.sh")
	if _, err := os.Stat(script); err != nil {
		return "", fmt.Errorf("access setup script not found at %s: %w", script, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, script, string(env))
	cmd.Dir = m.gitopsPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("login to %s timed out after %s", env, LoginTimeout)
		}
		m.logger.Error("access setup script failed",
			logging.Environment(string(env)),
			logging.Err(err))
		return "", fmt.Errorf("login to %s failed: %s", env, strings.TrimSpace(string(output)))
	}

	m.mu.Lock()
	m.performed = true
	m.lastEnv = env
	m.mu.Unlock()

	m.logger.Info("logged in to environment",
		logging.Environment(string(env)),
		logging.KubeContext(contextName))
	return env, nil
}

// ConsumeLoginFlag reports whether a login happened since the last call
// and resets the flag. The environment of that login is returned alongside.
func (m *Manager) ConsumeLoginFlag() (appurl.Environment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.performed {
		return "", false
	}
	m.performed = false
	return m.lastEnv, true
}
