package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/config"
	"github.com/teemow/calmate/internal/dates"
	"github.com/teemow/calmate/internal/google"
	"github.com/teemow/calmate/internal/instrumentation"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/resources"
	"github.com/teemow/calmate/internal/server"
	"github.com/teemow/calmate/internal/tools/calendar_tools"
)

// appOptions configures newApp.
type appOptions struct {
	Config   *config.Config
	Logger   *slog.Logger
	ReadOnly bool

	// Service replaces the configured backend. Used by tests.
	Service calendar.Service

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// app is the wired object graph shared by chat, serve and export.
type app struct {
	cfg           *config.Config
	logger        *slog.Logger
	backend       calendar.Service
	assistant     *assistant.Assistant
	serverContext *server.ServerContext
	mcp           *mcpserver.MCPServer
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backend := opts.Service
	if backend == nil {
		var err error
		backend, err = newBackend(ctx, cfg, logger, opts.Metrics)
		if err != nil {
			return nil, err
		}
	}

	resolver := dates.NewResolver(cfg.Location())
	asst, err := assistant.New(backend, resolver, assistant.Options{
		CalendarID:    cfg.CalendarID,
		EventTimeZone: cfg.EventTimezone,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Assistant: asst,
		ReadOnly:  opts.ReadOnly,
		Backend:   cfg.Backend,
		Metrics:   opts.Metrics,
		Audit:     opts.Audit,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	mcpSrv := mcpserver.NewMCPServer("calmate", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := registerAll(mcpSrv, sc); err != nil {
		_ = sc.Shutdown()
		return nil, err
	}

	return &app{
		cfg:           cfg,
		logger:        logger,
		backend:       backend,
		assistant:     asst,
		serverContext: sc,
		mcp:           mcpSrv,
	}, nil
}

func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{"calendar tools", func() error { return calendar_tools.RegisterCalendarTools(mcpSrv, sc) }},
		{"calendar resources", func() error { return resources.RegisterCalendarResources(mcpSrv, sc) }},
	}
	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func (a *app) Close() error {
	return a.serverContext.Shutdown()
}

// newBackend builds the calendar service selected by cfg.Backend.
func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (calendar.Service, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return newMemoryBackend(ctx, cfg)
	case config.BackendGoogle:
		return newGoogleBackend(ctx, cfg, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

func newMemoryBackend(ctx context.Context, cfg *config.Config) (*calendar.MemoryService, error) {
	mem := calendar.NewMemoryService(calendar.WithLocation(cfg.Location()))
	if cfg.SeedICS == "" {
		return mem, nil
	}

	f, err := os.Open(cfg.SeedICS)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed calendar: %w", err)
	}
	defer f.Close()

	events, err := calendar.ReadICS(f, cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to read seed calendar %s: %w", cfg.SeedICS, err)
	}
	for _, ev := range events {
		if _, err := mem.Insert(ctx, cfg.CalendarID, ev); err != nil {
			return nil, fmt.Errorf("failed to seed event %q: %w", ev.Summary, err)
		}
	}
	return mem, nil
}

func newTokenProvider(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*google.TokenProvider, *google.FileTokenStore, error) {
	var (
		conf = google.OAuthConfig(cfg.ClientID, cfg.ClientSecret)
		err  error
	)
	if cfg.CredentialsPath != "" {
		conf, err = google.LoadOAuthConfig(cfg.CredentialsPath)
		if err != nil {
			return nil, nil, err
		}
	}

	store := google.NewFileTokenStore(cfg.TokenPath)
	provider := google.NewTokenProvider(conf, store, google.ProviderOptions{
		Logger:  logging.WithService(logger, "oauth"),
		Metrics: metrics,
	})
	return provider, store, nil
}

func newGoogleBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*calendar.Client, error) {
	provider, store, err := newTokenProvider(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	if !provider.HasToken() {
		return nil, fmt.Errorf("no Google token found at %s; run 'calmate auth' first", store.Path())
	}

	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google token: %w", err)
	}

	return calendar.NewClient(ctx, calendar.ClientOptions{
		TokenSource: ts,
		HTTPTimeout: cfg.Timeout(),
		Metrics:     metrics,
		Logger:      logging.WithService(logger, "calendar"),
	})
}

// loadConfig reads the config file, applies environment and flag
// overrides and validates the result.
func loadConfig(path string, flags configFlags) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. debug overrides the configured
// level.
func newLogger(cfg *config.Config, debug bool, w io.Writer) (*slog.Logger, error) {
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(level, cfg.LogFormat, w)
}
