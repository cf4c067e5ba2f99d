package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/config"
	"github.com/teemow/calmate/internal/logging"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Backend = config.BackendMemory
	cfg.CalendarID = "team"
	return cfg
}

func newTestApp(t *testing.T, readOnly bool) (*app, *calendar.MemoryService) {
	t.Helper()

	mem := calendar.NewMemoryService()
	a, err := newApp(context.Background(), appOptions{
		Config:   testConfig(),
		Logger:   logging.Discard(),
		ReadOnly: readOnly,
		Service:  mem,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, mem
}
