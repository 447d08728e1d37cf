// Package appurl resolves pasted Kognitos application URLs into the
// environment, organization and workspace they point at, and derives the
// Kubernetes namespace that hosts that workspace's resources.
package appurl

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Environment identifies which deployment a URL belongs to.
type Environment string

const (
	EnvLocal Environment = "local"
	EnvDev   Environment = "dev"
	EnvStg   Environment = "stg"
	EnvProd  Environment = "prod"
)

// ErrNoMatch is returned when the input does not look like a Kognitos
// application URL. Callers must leave the active context and namespace
// unchanged when they receive it.
var ErrNoMatch = errors.New("input does not match a known application URL")

// Location is the result of parsing an application URL.
type Location struct {
	Env         Environment
	OrgID       string
	WorkspaceID string
	// Namespace is org-<org>-ws-<ws>, lowercased and sanitized.
	Namespace string
}

// contextPatterns maps an environment to the substring expected in the
// matching kubeconfig context name.
var contextPatterns = map[Environment]string{
	EnvDev:   "kognitos-dev",
	EnvStg:   "kognitos-stg",
	EnvProd:  "kognitos-prod",
	EnvLocal: "kind-",
}

// orgWorkspacePattern extracts the organization and workspace path segments.
var orgWorkspacePattern = regexp.MustCompile(`/organizations/([^/]+)/workspaces/([^/]+)`)

// nonK8sNameChars matches every character that is not allowed in a
// Kubernetes object name.
var nonK8sNameChars = regexp.MustCompile(`[^a-z0-9-]`)

// hyphenRuns collapses repeated hyphens left over from sanitization.
var hyphenRuns = regexp.MustCompile(`-+`)

// SanitizeName lowers a string and reduces it to the character set allowed
// in Kubernetes names: lowercase alphanumerics and single hyphens, with no
// leading or trailing hyphen.
func SanitizeName(name string) string {
	name = strings.ToLower(name)
	name = nonK8sNameChars.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// Parse extracts the environment, organization and workspace from a pasted
// application URL. The input may omit the scheme. Supported hosts:
//
//   - app.us-1.dev.kognitos.com  (dev)
//   - app.us-1.stg.kognitos.com  (stg)
//   - app.us-1.kognitos.com      (prod)
//   - localhost / 127.0.0.1      (local)
//
// followed by /organizations/<org>/workspaces/<ws>/... in the path.
// Anything else returns ErrNoMatch.
func Parse(raw string) (*Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoMatch
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}

	env, ok := detectEnvironment(parsed.Host)
	if !ok {
		return nil, ErrNoMatch
	}

	match := orgWorkspacePattern.FindStringSubmatch(parsed.Path)
	if match == nil {
		return nil, ErrNoMatch
	}

	orgID := SanitizeName(match[1])
	wsID := SanitizeName(match[2])
	if orgID == "" || wsID == "" {
		return nil, ErrNoMatch
	}

	return &Location{
		Env:         env,
		OrgID:       orgID,
		WorkspaceID: wsID,
		Namespace:   fmt.Sprintf("org-%s-ws-%s", orgID, wsID),
	}, nil
}

// ContextPattern returns the kubeconfig context name substring associated
// with an environment, or false when the environment is unknown.
func ContextPattern(env Environment) (string, bool) {
	pattern, ok := contextPatterns[env]
	return pattern, ok
}

// MatchContext returns the first context name containing the pattern for
// the given environment, or false when no context matches.
func MatchContext(env Environment, contexts []string) (string, bool) {
	pattern, ok := contextPatterns[env]
	if !ok {
		return "", false
	}
	for _, name := range contexts {
		if strings.Contains(name, pattern) {
			return name, true
		}
	}
	return "", false
}

// EnvFromContext determines which remote environment a kubeconfig context
// belongs to. Local contexts are not reported since login does not apply
// to them.
func EnvFromContext(contextName string) (Environment, bool) {
	for _, env := range []Environment{EnvDev, EnvStg, EnvProd} {
		if strings.Contains(contextName, contextPatterns[env]) {
			return env, true
		}
	}
	return "", false
}

func detectEnvironment(host string) (Environment, bool) {
	switch {
	case strings.Contains(host, "localhost"), strings.Contains(host, "127.0.0.1"):
		return EnvLocal, true
	case strings.Contains(host, ".dev."):
		return EnvDev, true
	case strings.Contains(host, ".stg."):
		return EnvStg, true
	case strings.Contains(host, "kognitos.com"):
		return EnvProd, true
	}
	return "", false
}
