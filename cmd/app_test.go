package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calmate/internal/calendar"
	"github.com/teemow/calmate/internal/config"
	"github.com/teemow/calmate/internal/logging"
	"github.com/teemow/calmate/internal/tools/calendar_tools"
)

func TestNewApp_RegistersTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name:     "read-only",
			readOnly: true,
			want:     []string{calendar_tools.ToolListEvents, calendar_tools.ToolNextEvent, calendar_tools.ToolWeeklyView},
		},
		{
			name: "writable",
			want: []string{
				calendar_tools.ToolListEvents, calendar_tools.ToolCreateEvent, calendar_tools.ToolUpdateEvent,
				calendar_tools.ToolDeleteEvent, calendar_tools.ToolNextEvent, calendar_tools.ToolWeeklyView,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t, tt.readOnly)

			tools := a.mcp.ListTools()
			assert.Len(t, tools, len(tt.want))
			for _, name := range tt.want {
				assert.Contains(t, tools, name)
			}
			assert.Equal(t, "team", a.assistant.CalendarID())
			assert.Equal(t, tt.readOnly, a.serverContext.ReadOnly())
		})
	}
}

func TestNewMemoryBackend_Seed(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.ics")

	f, err := os.Create(seed)
	require.NoError(t, err)
	require.NoError(t, calendar.WriteICS(f, []calendar.Event{
		{
			ID:      "standup",
			Summary: "Standup",
			Start:   calendar.EventTime{DateTime: "2025-06-04T09:00:00Z"},
			End:     calendar.EventTime{DateTime: "2025-06-04T09:15:00Z"},
		},
		{
			ID:      "offsite",
			Summary: "Offsite",
			Start:   calendar.EventTime{Date: "2025-06-05"},
			End:     calendar.EventTime{Date: "2025-06-06"},
		},
	}))
	require.NoError(t, f.Close())

	cfg := testConfig()
	cfg.SeedICS = seed

	mem, err := newMemoryBackend(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())

	events, err := mem.List(context.Background(), "team", calendar.ListQuery{})
	require.NoError(t, err)
	titles := make([]string, 0, len(events))
	for _, ev := range events {
		titles = append(titles, ev.Summary)
	}
	assert.ElementsMatch(t, []string{"Standup", "Offsite"}, titles)
}

func TestNewMemoryBackend_MissingSeed(t *testing.T) {
	cfg := testConfig()
	cfg.SeedICS = filepath.Join(t.TempDir(), "missing.ics")

	_, err := newMemoryBackend(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to open seed calendar")
}

func TestNewGoogleBackend_RequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"
	cfg.TokenPath = filepath.Join(t.TempDir(), "token.json")

	_, err := newGoogleBackend(context.Background(), cfg, logging.Discard(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'calmate auth' first")
	assert.Contains(t, err.Error(), cfg.TokenPath)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: memory\ntimezone: Europe/Berlin\n"), 0o600))

	cfg, err := loadConfig(path, configFlags{calendarID: "work"})
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Backend)
	assert.Equal(t, "work", cfg.CalendarID)
	assert.Equal(t, "Europe/Berlin", cfg.EventTimezone)

	_, err = loadConfig(path, configFlags{timezone: "Mars/Olympus"})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestConfigFlags_Apply(t *testing.T) {
	t.Run("timezone carries the event time zone along", func(t *testing.T) {
		cfg := config.Default()
		configFlags{timezone: "Asia/Tokyo"}.apply(cfg)
		assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
		assert.Equal(t, "Asia/Tokyo", cfg.EventTimezone)
	})

	t.Run("explicit event time zone is kept", func(t *testing.T) {
		cfg := config.Default()
		cfg.EventTimezone = "America/New_York"
		configFlags{timezone: "Asia/Tokyo", backend: "memory"}.apply(cfg)
		assert.Equal(t, "America/New_York", cfg.EventTimezone)
		assert.Equal(t, "memory", cfg.Backend)
	})

	t.Run("empty flags change nothing", func(t *testing.T) {
		cfg := config.Default()
		configFlags{}.apply(cfg)
		assert.Equal(t, config.Default(), cfg)
	})
}
