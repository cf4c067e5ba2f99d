// Package server holds the state shared by calmate's MCP transports.
//
// ServerContext hands the calendar assistant, metrics and audit logger to
// tool handlers. HealthChecker serves /healthz, /readyz and
// /healthz/detailed next to the streamable HTTP endpoint, and MetricsServer
// exposes Prometheus metrics on a separate listener.
package server
