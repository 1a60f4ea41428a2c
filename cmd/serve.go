package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-oauth/storage/memory"

	"github.com/teemow/workspace-mcp/internal/config"
	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/resources"
	"github.com/teemow/workspace-mcp/internal/server"
	"github.com/teemow/workspace-mcp/internal/tools/gmail_tools"
	"github.com/teemow/workspace-mcp/internal/tools/google_tools"
)

// Environment variables read by serve when the matching flag is not set.
const (
	envPermissions        = "WORKSPACE_MCP_PERMISSIONS"
	envConfigFile         = "WORKSPACE_MCP_CONFIG"
	envGoogleClientID     = "GOOGLE_CLIENT_ID"
	envGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	envGoogleRefreshToken = "GOOGLE_REFRESH_TOKEN"
	envMetricsEnabled     = "METRICS_ENABLED"
	envMetricsAddr        = "METRICS_ADDR"
)

type serveFlags struct {
	configFile         string
	permissions        []string
	transport          string
	httpAddr           string
	debug              bool
	logFormat          string
	googleClientID     string
	googleClientSecret string
	disableStreaming   bool
	metricsEnabled     bool
	metricsAddr        string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Gmail tools for
AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Permissions:
  Access is limited per service with --permissions, for example:
    --permissions gmail:drafts,drive:readonly
  Gmail levels are readonly < organize < drafts < send < full; every level
  includes the ones below it. Only the scopes of the configured levels are
  requested from Google and tools needing other scopes are not registered.
  Without --permissions the server is unrestricted.
  Run "workspace-mcp permissions" to list all levels.

Configuration precedence (lowest first):
  built-in defaults, --config YAML file, environment variables, flags

Google OAuth:
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars (required).
  GOOGLE_REFRESH_TOKEN pre-authorizes the default account.
  Other accounts are authorized with the google_get_auth_url tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runServe(cfg, flags.disableStreaming)
		},
	}

	cmd.Flags().StringVar(&flags.configFile, "config", "", "Path to a YAML config file. Can also use WORKSPACE_MCP_CONFIG env var.")
	cmd.Flags().StringSliceVar(&flags.permissions, "permissions", nil, "Permission levels as service:level (comma separated), e.g. gmail:organize,drive:readonly. Can also use WORKSPACE_MCP_PERMISSIONS env var. Default: unrestricted")
	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", config.LogFormatText, "Log format: text or json")
	cmd.Flags().StringVar(&flags.googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&flags.googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&flags.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")

	// Metrics server flags
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// resolveConfig layers the config file, environment variables and the flags
// the user set explicitly on top of config.Default.
func resolveConfig(cmd *cobra.Command, flags serveFlags) (config.Config, error) {
	changed := cmd.Flags().Changed

	cfg := config.Default()
	configFile := flags.configFile
	if !changed("config") {
		configFile = os.Getenv(envConfigFile)
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	// Environment variables only apply if the flag was not explicitly set
	if !changed("permissions") {
		if env := os.Getenv(envPermissions); env != "" {
			cfg.Permissions = config.SplitList(env)
		}
	}
	if !changed("google-client-id") {
		if env := os.Getenv(envGoogleClientID); env != "" {
			cfg.Google.ClientID = env
		}
	}
	if !changed("google-client-secret") {
		if env := os.Getenv(envGoogleClientSecret); env != "" {
			cfg.Google.ClientSecret = env
		}
	}
	if !changed("metrics-enabled") {
		if env := os.Getenv(envMetricsEnabled); env != "" {
			enabled, err := strconv.ParseBool(env)
			if err != nil {
				return config.Config{}, fmt.Errorf("invalid %s value %q (expected true/false): %w", envMetricsEnabled, env, err)
			}
			cfg.Metrics.Enabled = enabled
		}
	}
	if !changed("metrics-addr") {
		if env := os.Getenv(envMetricsAddr); env != "" {
			cfg.Metrics.Addr = env
		}
	}

	if changed("permissions") {
		cfg.Permissions = flags.permissions
	}
	if changed("transport") {
		cfg.Transport = flags.transport
	}
	if changed("http-addr") {
		cfg.HTTPAddr = flags.httpAddr
	}
	if changed("debug") {
		cfg.Log.Debug = flags.debug
	}
	if changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if changed("google-client-id") {
		cfg.Google.ClientID = flags.googleClientID
	}
	if changed("google-client-secret") {
		cfg.Google.ClientSecret = flags.googleClientSecret
	}
	if changed("metrics-enabled") {
		cfg.Metrics.Enabled = flags.metricsEnabled
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cfg config.Config, disableStreaming bool) error {
	// Logs always go to stderr so stdout stays reserved for the stdio transport
	logger, err := logging.New(os.Stderr, logging.Options{Debug: cfg.Log.Debug, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	perms, err := cfg.PermissionConfig()
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()
	metrics := provider.Metrics()

	// Tokens live in memory for the lifetime of the process
	store := memory.New()
	defer store.Stop()

	auth, err := google.NewAuthenticator(google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Permissions:  perms,
	}, google.NewStoreTokenProvider(store), metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to configure Google OAuth (set --google-client-id or %s): %w", envGoogleClientID, err)
	}

	if refreshToken := os.Getenv(envGoogleRefreshToken); refreshToken != "" {
		if err := auth.SeedRefreshToken(shutdownCtx, google.DefaultAccount, refreshToken); err != nil {
			return fmt.Errorf("failed to use %s: %w", envGoogleRefreshToken, err)
		}
		logger.Info("default account authorized from environment", logging.Account(google.DefaultAccount))
	}

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Permissions:   perms,
		Authenticator: auth,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("workspace-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	resources.RegisterPermissionResources(mcpSrv, serverContext)
	registered := registerAllTools(mcpSrv, serverContext)
	logger.Info("registered MCP tools",
		logging.Permissions(perms),
		slog.Int("tool_count", len(registered)),
		slog.Any("tools", registered))

	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, disableStreaming, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers every tool the permission config allows and
// returns the registered tool names.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) []string {
	var registered []string
	registered = append(registered, google_tools.RegisterGoogleTools(mcpSrv, sc)...)
	registered = append(registered, gmail_tools.RegisterGmailTools(mcpSrv, sc)...)
	return registered
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg config.Config, disableStreaming bool, provider *instrumentation.Provider, logger *slog.Logger) error {
	// Start metrics server if enabled
	if cfg.Metrics.Enabled && provider.Enabled() && provider.ServesPrometheus() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	healthChecker := server.NewHealthChecker(sc)
	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             cfg.HTTPAddr,
		DisableStreaming: disableStreaming,
		Health:           healthChecker,
		Metrics:          provider.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	logger.Info("streamable HTTP server started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("endpoint", server.MCPEndpointPath),
		slog.Bool("metrics", cfg.Metrics.Enabled))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
