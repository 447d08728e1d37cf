package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kognitos/mission-control/internal/auth"
	"github.com/kognitos/mission-control/internal/config"
	"github.com/kognitos/mission-control/internal/dashboard"
	"github.com/kognitos/mission-control/internal/instrumentation"
	"github.com/kognitos/mission-control/internal/k8s"
	"github.com/kognitos/mission-control/internal/logging"
	"github.com/kognitos/mission-control/internal/server"
)

// newServeCmd creates the Cobra command for starting the dashboard server.
func newServeCmd() *cobra.Command {
	var cfg ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Mission Control dashboard server",
		Long: `Start the Mission Control dashboard server.

The dashboard lists Books, BookConnections, TriggerInstances,
Deployments, Secrets, and Pods in the current kube context, and can
switch contexts from the header dropdown. Kubeconfig resolution follows
the usual chain: --kubeconfig, then $KUBECONFIG, then ~/.kube/config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.ListenAddr, "listen-addr", ":5001", "Dashboard listen address")
	cmd.Flags().StringVar(&cfg.DefaultNamespace, "namespace", k8s.DefaultNamespace, "Default namespace for resource lists")
	cmd.Flags().StringVar(&cfg.KubeconfigPath, "kubeconfig", "", "Path to the kubeconfig file (default: $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().StringVar(&cfg.Context, "context", "", "Kube context to start with (default: current context)")
	cmd.Flags().StringVar(&cfg.ConfigPath, "config", "", "Path to the config file (default: ~/.config/mission-control/config.json)")
	cmd.Flags().Float32Var(&cfg.QPSLimit, "qps-limit", k8s.DefaultQPSLimit, "QPS limit for Kubernetes API calls")
	cmd.Flags().IntVar(&cfg.BurstLimit, "burst-limit", k8s.DefaultBurstLimit, "Burst limit for Kubernetes API calls")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", k8s.DefaultTimeout*time.Second, "Timeout for Kubernetes API calls")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, or error")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", "json", "Log format: json or text")
	cmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address (used when instrumentation is enabled)")

	return cmd
}

// runServe wires the Kubernetes client, instrumentation, and dashboard
// server together and blocks until shutdown.
func runServe(cfg ServeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	fileConfig, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	k8sClient, err := k8s.NewClient(&k8s.ClientConfig{
		KubeconfigPath: cfg.KubeconfigPath,
		Context:        cfg.Context,
		QPSLimit:       cfg.QPSLimit,
		BurstLimit:     cfg.BurstLimit,
		Timeout:        cfg.Timeout,
		Logger:         logging.NewSlogAdapter(logger),
	})
	if err != nil {
		return fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	// Graceful shutdown on SIGINT and SIGTERM.
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}
	defer func() {
		ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("Instrumentation shutdown failed", logging.KeyError, err.Error())
		}
	}()

	serverConfig := server.NewDefaultConfig()
	serverConfig.Version = rootCmd.Version
	serverConfig.ListenAddr = cfg.ListenAddr
	serverConfig.DefaultNamespace = cfg.DefaultNamespace
	serverConfig.KubeConfigPath = cfg.KubeconfigPath
	serverConfig.DefaultContext = cfg.Context
	serverConfig.LogLevel = cfg.LogLevel
	serverConfig.LogFormat = cfg.LogFormat

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithK8sClient(k8sClient),
		server.WithAuthManager(auth.NewManager(fileConfig.GitopsPath, logger)),
		server.WithLogger(logging.NewSlogAdapter(logger)),
		server.WithConfig(serverConfig),
		server.WithFileConfig(fileConfig),
		server.WithInstrumentationProvider(provider),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("Server context shutdown failed", logging.KeyError, err.Error())
		}
	}()

	dash, err := dashboard.NewServer(serverContext)
	if err != nil {
		return fmt.Errorf("failed to create dashboard server: %w", err)
	}

	metricsServer := startMetricsServer(cfg, provider, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- dash.Start()
	}()

	logger.Info("Mission Control ready",
		"addr", dash.Addr(),
		logging.KeyNamespace, cfg.DefaultNamespace)

	select {
	case <-shutdownCtx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return nil
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := dash.Shutdown(ctx); err != nil {
		logger.Warn("Dashboard shutdown failed", logging.KeyError, err.Error())
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown failed", logging.KeyError, err.Error())
		}
	}

	return nil
}

// startMetricsServer runs the dedicated metrics server when
// instrumentation is enabled. Failures are logged, not fatal: the
// dashboard works without metrics.
func startMetricsServer(cfg ServeConfig, provider *instrumentation.Provider, logger *slog.Logger) *server.MetricsServer {
	if provider == nil || !provider.Enabled() {
		return nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.MetricsAddr,
		Enabled:                 true,
		InstrumentationProvider: provider,
	})
	if err != nil {
		logger.Error("Failed to create metrics server", logging.KeyError, err.Error())
		return nil
	}

	go func() {
		logger.Info("Starting metrics server", "addr", metricsServer.Addr())
		if err := metricsServer.Start(); err != nil {
			logger.Error("Metrics server failed", logging.KeyError, err.Error())
		}
	}()

	return metricsServer
}
