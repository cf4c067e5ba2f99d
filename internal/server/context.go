package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/instrumentation"
)

// Options configures NewServerContext.
type Options struct {
	Assistant *assistant.Assistant

	// ReadOnly hides the tools that change the calendar.
	ReadOnly bool

	// Backend names the calendar backend for health reporting.
	Backend string

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// ServerContext carries the assistant and its observability hooks to the
// MCP tool handlers.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	assistant *assistant.Assistant
	readOnly  bool
	backend   string
	metrics   *instrumentation.Metrics
	audit     *instrumentation.AuditLogger
	logger    *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext derives a cancellable context from ctx.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Assistant == nil {
		return nil, errors.New("assistant cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		assistant: opts.Assistant,
		readOnly:  opts.ReadOnly,
		backend:   opts.Backend,
		metrics:   opts.Metrics,
		audit:     opts.Audit,
		logger:    logger,
	}, nil
}

func (sc *ServerContext) Context() context.Context { return sc.ctx }

func (sc *ServerContext) Assistant() *assistant.Assistant { return sc.assistant }

func (sc *ServerContext) ReadOnly() bool { return sc.readOnly }

func (sc *ServerContext) Backend() string { return sc.backend }

// Metrics may return nil when instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.metrics }

// AuditLogger may return nil when audit logging is disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger { return sc.audit }

func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Repeated calls are no-ops.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
