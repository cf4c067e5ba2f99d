// Package config loads calmate settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendGoogle = "google"
	BackendMemory = "memory"
)

// Defaults.
const (
	DefaultCalendarID  = "primary"
	DefaultTimezone    = "UTC"
	DefaultHTTPTimeout = "30s"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
)

// Environment variables that override file values.
const (
	EnvCalendarID      = "CALMATE_CALENDAR_ID"
	EnvTimezone        = "CALMATE_TIMEZONE"
	EnvEventTimezone   = "CALMATE_EVENT_TIMEZONE"
	EnvBackend         = "CALMATE_BACKEND"
	EnvHTTPTimeout     = "CALMATE_HTTP_TIMEOUT"
	EnvSeedICS         = "CALMATE_SEED_ICS"
	EnvLogLevel        = "CALMATE_LOG_LEVEL"
	EnvCredentialsPath = "GOOGLE_CREDENTIALS_PATH"
	EnvTokenPath       = "GOOGLE_TOKEN_PATH"
	EnvClientID        = "GOOGLE_CLIENT_ID"
	EnvClientSecret    = "GOOGLE_CLIENT_SECRET"
)

// Config is the application configuration.
type Config struct {
	// CalendarID is the calendar every operation targets.
	CalendarID string `yaml:"calendar_id"`

	// Timezone is the IANA zone used to resolve "today", day windows and
	// weeks.
	Timezone string `yaml:"timezone"`

	// EventTimezone is attached to created events. Defaults to Timezone.
	EventTimezone string `yaml:"event_timezone"`

	// Backend is "google" or "memory".
	Backend string `yaml:"backend"`

	// SeedICS optionally preloads the memory backend from an .ics file.
	SeedICS string `yaml:"seed_ics,omitempty"`

	CredentialsPath string `yaml:"credentials_path,omitempty"`
	TokenPath       string `yaml:"token_path,omitempty"`
	ClientID        string `yaml:"client_id,omitempty"`
	ClientSecret    string `yaml:"client_secret,omitempty"`

	// HTTPTimeout bounds each calendar API request, as a Go duration.
	HTTPTimeout string `yaml:"http_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// DefaultPath returns $XDG_CONFIG_HOME/calmate/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "calmate.yaml")
	}
	return filepath.Join(dir, "calmate", "config.yaml")
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.EventTimezone == "" {
		c.EventTimezone = c.Timezone
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendGoogle
	}
	if c.HTTPTimeout == "" {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// ApplyEnv overrides fields from environment variables read through
// getenv. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.CalendarID, EnvCalendarID)
	set(&c.Timezone, EnvTimezone)
	set(&c.EventTimezone, EnvEventTimezone)
	set(&c.Backend, EnvBackend)
	set(&c.HTTPTimeout, EnvHTTPTimeout)
	set(&c.SeedICS, EnvSeedICS)
	set(&c.LogLevel, EnvLogLevel)
	set(&c.CredentialsPath, EnvCredentialsPath)
	set(&c.TokenPath, EnvTokenPath)
	set(&c.ClientID, EnvClientID)
	set(&c.ClientSecret, EnvClientSecret)
}

// Validate checks that every value can be used.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendGoogle, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("backend %q is not one of %s, %s", c.Backend, BackendGoogle, BackendMemory))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if _, err := time.LoadLocation(c.EventTimezone); err != nil {
		errs = append(errs, fmt.Errorf("event_timezone: %w", err))
	}
	if d, err := time.ParseDuration(c.HTTPTimeout); err != nil {
		errs = append(errs, fmt.Errorf("http_timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.Backend == BackendGoogle && c.CredentialsPath == "" && (c.ClientID == "" || c.ClientSecret == "") {
		errs = append(errs, fmt.Errorf("google backend needs credentials_path or client_id and client_secret"))
	}

	return errors.Join(errs...)
}

// Location returns the reference location. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Timeout returns HTTPTimeout as a duration. Call Validate first.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultHTTPTimeout)
	}
	return d
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// LoadWithEnv loads path and applies environment overrides from the
// process environment.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically with mode 0600, creating the parent
// directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calmate-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
