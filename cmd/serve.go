package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/server"
)

// Transports.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

const (
	mcpEndpointPath = "/mcp"

	httpReadHeaderTimeout = 10 * time.Second
	httpShutdownTimeout   = 30 * time.Second
)

// serveOptions holds the serve command flags.
type serveOptions struct {
	Transport        string
	HTTPAddr         string
	Yolo             bool
	DisableStreaming bool
	MetricsEnabled   bool
	MetricsAddr      string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to expose the calendar
assistant as tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz,
    /readyz and /healthz/detailed

Safety Mode:
  By default, the server operates in read-only mode: events can be listed
  but not created, moved or deleted. Use --yolo to enable write operations.

Metrics:
  With the streamable-http transport and METRICS_EXPORTER=prometheus, metrics
  are served on a dedicated address (--metrics-addr).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.MetricsAddr = addr
				}
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.Yolo, "yolo", false, "Enable write operations (create, update and delete events). Default is read-only mode.")
	cmd.Flags().BoolVar(&opts.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics-enabled", true, "Serve prometheus metrics on a dedicated port (streamable-http only)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch opts.Transport {
	case transportStdio, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return err
	}
	// stdout belongs to the protocol on stdio, so logs always go to stderr.
	logger, err := newLogger(cfg, debugMode, os.Stderr)
	if err != nil {
		return err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	readOnly := !opts.Yolo
	a, err := newApp(shutdownCtx, appOptions{
		Config:   cfg,
		Logger:   logger,
		ReadOnly: readOnly,
		Metrics:  provider.Metrics(),
		Audit:    instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	if opts.Transport == transportStdio {
		return runStdioServer(a.mcp)
	}

	if opts.MetricsEnabled && provider.MetricsHandler() != nil {
		metricsServer, err := server.NewMetricsServer(opts.MetricsAddr, provider, logger)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := metricsServer.Listen(); err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(); err != nil {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	return runStreamableHTTPServer(shutdownCtx, a, opts, provider.Metrics(), logger)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// newHTTPHandler mounts the MCP endpoint and the health endpoints.
func newHTTPHandler(a *app, disableStreaming bool, metrics *instrumentation.Metrics) http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(a.mcp,
		mcpserver.WithEndpointPath(mcpEndpointPath),
		mcpserver.WithDisableStreaming(disableStreaming),
		mcpserver.WithLogger(logging.NewSlogAdapter(a.logger)),
	)

	health := server.NewHealthChecker(a.serverContext, version)
	health.SetProbe(func(ctx context.Context) error {
		resolver := a.assistant.Resolver()
		_, err := a.assistant.Events(ctx, resolver.DayRange(resolver.Today()))
		return err
	})

	mux := http.NewServeMux()
	mux.Handle(mcpEndpointPath, streamable)
	health.RegisterHealthEndpoints(mux)

	return server.InstrumentHTTP(mux, metrics)
}

func runStreamableHTTPServer(ctx context.Context, a *app, opts serveOptions, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              opts.HTTPAddr,
		Handler:           newHTTPHandler(a, opts.DisableStreaming, metrics),
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	logger.Info("streamable HTTP server starting",
		"addr", opts.HTTPAddr,
		"endpoint", mcpEndpointPath,
		logging.Calendar(a.cfg.CalendarID),
		"backend", a.cfg.Backend)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
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
