// Package instrumentation wires OpenTelemetry metrics, tracing and the tool
// audit log for calmate.
//
// Metrics:
//   - http_requests_total, http_request_duration_seconds: streamable HTTP transport
//   - google_api_operations_total, google_api_operation_duration_seconds: Calendar API calls
//   - oauth_auth_total, oauth_token_refresh_total: Google authorization
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: MCP tools
//   - calmate_operations_total: assistant operations by outcome
//
// Spans are named tool.<name>, calmate.<operation> and
// google.calendar.<operation>.
//
// The Provider is configured from the environment (see ConfigFromEnv):
// INSTRUMENTATION_ENABLED, METRICS_EXPORTER, TRACING_EXPORTER,
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG and OTEL_SERVICE_NAME.
package instrumentation
