package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/dates"
	"github.com/teemow/calmate/internal/instrumentation"
)

func newTestServerContext(t *testing.T, readOnly bool) *ServerContext {
	t.Helper()
	a, err := assistant.New(
		calendar.NewMemoryService(calendar.WithLocation(time.UTC)),
		dates.NewResolver(time.UTC),
		assistant.Options{CalendarID: "team"},
	)
	require.NoError(t, err)

	sc, err := NewServerContext(context.Background(), Options{
		Assistant: a,
		ReadOnly:  readOnly,
		Backend:   "memory",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func newTestProvider(t *testing.T, enabled bool) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	p, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "calmate-test",
		Enabled:         enabled,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })
	return p
}
