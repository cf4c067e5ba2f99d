package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "primary", c.CalendarID)
	assert.Equal(t, "UTC", c.Timezone)
	assert.Equal(t, "UTC", c.EventTimezone)
	assert.Equal(t, BackendGoogle, c.Backend)
	assert.Equal(t, 30*time.Second, c.Timeout())
	assert.Equal(t, time.UTC, c.Location())
}

func TestNormalize_EventTimezoneFollowsTimezone(t *testing.T) {
	c := &Config{Timezone: "America/Chicago"}
	c.Normalize()
	assert.Equal(t, "America/Chicago", c.EventTimezone)

	c = &Config{Timezone: "America/Chicago", EventTimezone: "Europe/Berlin"}
	c.Normalize()
	assert.Equal(t, "Europe/Berlin", c.EventTimezone)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
calendar_id: team@example.com
timezone: America/Chicago
backend: MEMORY
http_timeout: 5s
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", c.CalendarID)
	assert.Equal(t, "America/Chicago", c.EventTimezone)
	assert.Equal(t, BackendMemory, c.Backend)
	assert.Equal(t, 5*time.Second, c.Timeout())
	assert.NoError(t, c.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar_id: [unterminated"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvCalendarID:      "work",
		EnvTimezone:        "Europe/Berlin",
		EnvBackend:         "memory",
		EnvCredentialsPath: "/secrets/credentials.json",
		EnvTokenPath:       "   ",
	}
	c := Default()
	c.TokenPath = "/keep/token.json"
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "work", c.CalendarID)
	assert.Equal(t, "Europe/Berlin", c.Timezone)
	assert.Equal(t, "memory", c.Backend)
	assert.Equal(t, "/secrets/credentials.json", c.CredentialsPath)
	assert.Equal(t, "/keep/token.json", c.TokenPath)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv(EnvBackend, "memory")
	t.Setenv(EnvTimezone, "Asia/Tokyo")

	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, c.Backend)
	assert.Equal(t, "Asia/Tokyo", c.Timezone)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"memory ok", func(c *Config) { c.Backend = BackendMemory }, ""},
		{"google with file", func(c *Config) { c.CredentialsPath = "/c.json" }, ""},
		{"google with client", func(c *Config) { c.ClientID, c.ClientSecret = "id", "secret" }, ""},
		{"google without credentials", func(c *Config) {}, "credentials_path"},
		{"bad backend", func(c *Config) { c.Backend = "outlook" }, "backend"},
		{"bad timezone", func(c *Config) { c.Backend = BackendMemory; c.Timezone = "Nowhere/City" }, "timezone"},
		{"bad event timezone", func(c *Config) { c.Backend = BackendMemory; c.EventTimezone = "Nowhere/City" }, "event_timezone"},
		{"bad timeout", func(c *Config) { c.Backend = BackendMemory; c.HTTPTimeout = "soon" }, "http_timeout"},
		{"negative timeout", func(c *Config) { c.Backend = BackendMemory; c.HTTPTimeout = "-1s" }, "http_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	c := Default()
	c.CalendarID = "team@example.com"
	c.Timezone = "America/Chicago"
	c.EventTimezone = "America/Chicago"

	require.NoError(t, c.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	assert.Error(t, Save("", c))
	assert.Error(t, Save(path, nil))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
