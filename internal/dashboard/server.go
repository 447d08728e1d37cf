package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kognitos/mission-control/internal/server"
	"github.com/kognitos/mission-control/internal/server/middleware"
)

// Server is the dashboard HTTP server. It owns the route table, the
// rendered views, and the health checker mounted on the same listener.
type Server struct {
	serverContext *server.ServerContext
	views         *Views
	health        *server.HealthChecker
	httpServer    *http.Server
}

// NewServer creates a dashboard server bound to the server context's
// configured listen address.
func NewServer(sc *server.ServerContext) (*Server, error) {
	if sc == nil {
		return nil, fmt.Errorf("server context is required")
	}

	views, err := NewViews()
	if err != nil {
		return nil, err
	}

	s := &Server{
		serverContext: sc,
		views:         views,
		health:        server.NewHealthChecker(sc),
	}

	handler := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{})(
		middleware.HTTPMetrics(sc.InstrumentationProvider())(s.routes()),
	)

	s.httpServer = &http.Server{
		Addr:              sc.Config().ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	s.health.RegisterHealthEndpoints(mux)

	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /books", s.handleBooks)
	mux.HandleFunc("GET /book/{namespace}/{name}", s.handleBookManifest)

	mux.HandleFunc("GET /book-connections", s.handleBookConnections)
	mux.HandleFunc("GET /book-connections-from-url", s.handleBookConnectionsFromURL)
	mux.HandleFunc("GET /book-connection/{namespace}/{name}", s.handleBookConnectionManifest)
	mux.HandleFunc("GET /book-connection-pod/{namespace}/{name}", s.handleBookConnectionPod)
	mux.HandleFunc("GET /book-connection-row/{namespace}/{name}", s.handleBookConnectionRow)

	mux.HandleFunc("GET /trigger-instances", s.handleTriggerInstances)
	mux.HandleFunc("GET /trigger-instance/{namespace}/{name}", s.handleTriggerInstanceManifest)

	mux.HandleFunc("GET /deployments", s.handleDeployments)
	mux.HandleFunc("GET /deployment/{namespace}/{name}", s.handleDeploymentManifest)

	mux.HandleFunc("GET /secrets", s.handleSecrets)
	mux.HandleFunc("GET /secret/{namespace}/{name}", s.handleSecretManifest)

	mux.HandleFunc("GET /pod/{namespace}/{name}", s.handlePodManifest)
	mux.HandleFunc("GET /pod-logs/{namespace}/{name}", s.handlePodLogs)

	mux.HandleFunc("POST /switch-context", s.handleSwitchContext)
	mux.HandleFunc("POST /login-context", s.handleLoginContext)
	mux.HandleFunc("GET /check-login-status", s.handleCheckLoginStatus)

	mux.HandleFunc("GET /close-manifest", s.handleCloseManifest)
	mux.HandleFunc("GET /keyboard-shortcuts.json", s.handleKeyboardShortcuts)

	return mux
}

// Handler returns the fully assembled HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.serverContext.Logger().Info("Starting dashboard server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server. In-flight requests get
// until the context deadline to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("dashboard server shutdown failed: %w", err)
	}
	return nil
}
