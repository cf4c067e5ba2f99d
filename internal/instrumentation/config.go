package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the OpenTelemetry settings for calmate.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	// Enabled turns metrics and tracing on. When false every recorder is a no-op.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP export. Local collectors only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the tool audit trail.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludeArguments logs the tool arguments alongside each invocation.
	// Event titles and descriptions end up in the log when this is set.
	IncludeArguments bool
}

// Environment variables read by ConfigFromEnv.
const (
	EnvServiceName         = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID   = "OTEL_SERVICE_INSTANCE_ID"
	EnvEnabled             = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter     = "METRICS_EXPORTER"
	EnvTracingExporter     = "TRACING_EXPORTER"
	EnvOTLPEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure        = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvTraceSamplingRate   = "OTEL_TRACES_SAMPLER_ARG"
	EnvAuditEnabled        = "AUDIT_LOGGING_ENABLED"
	EnvAuditIncludeArgs    = "AUDIT_LOGGING_INCLUDE_ARGUMENTS"
	defaultServiceName     = "calmate"
	defaultTraceSampleRate = 0.1
)

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv. Unparseable values fall back to
// their defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	env := envReader(getenv)
	return Config{
		ServiceName:       env.str(EnvServiceName, defaultServiceName),
		ServiceVersion:    "unknown",
		ServiceInstanceID: env.str(EnvServiceInstanceID, ""),
		Enabled:           env.boolean(EnvEnabled, true),
		MetricsExporter:   env.str(EnvMetricsExporter, ExporterPrometheus),
		TracingExporter:   env.str(EnvTracingExporter, ExporterNone),
		OTLPEndpoint:      env.str(EnvOTLPEndpoint, ""),
		OTLPInsecure:      env.boolean(EnvOTLPInsecure, false),
		TraceSamplingRate: env.float(EnvTraceSamplingRate, defaultTraceSampleRate),
		AuditLogging: AuditLoggingConfig{
			Enabled:          env.boolean(EnvAuditEnabled, true),
			IncludeArguments: env.boolean(EnvAuditIncludeArgs, false),
		},
	}
}

// Validate checks exporter names, the sampling rate and OTLP settings.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter; set %s", EnvOTLPEndpoint)
	}
	return nil
}

type envReader func(string) string

func (e envReader) str(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	v, err := strconv.ParseBool(e(key))
	if err != nil {
		return def
	}
	return v
}

func (e envReader) float(key string, def float64) float64 {
	v, err := strconv.ParseFloat(e(key), 64)
	if err != nil {
		return def
	}
	return v
}

// Label values shared by metrics, spans and logs.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"

	ServiceCalendar = "calendar"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
