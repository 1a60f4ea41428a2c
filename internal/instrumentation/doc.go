// Package instrumentation provides OpenTelemetry metrics and tracing for the
// workspace-mcp server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of authorization code exchanges by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//   - mcp_tools_filtered_total: Counter of tools hidden by the permission config
//
// Attachment Metrics:
//   - gmail_attachments_resolved_total: Counter of resolved attachments by source
//   - gmail_attachment_size_bytes: Histogram of decoded attachment sizes by source
//   - gmail_attachment_failures_total: Counter of aborted resolutions by reason
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and Google API
// calls (google.<service>.<operation>).
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: workspace-mcp)
//   - METRICS_DETAILED_LABELS: add account domains to tool metrics
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "gmail_send_message", "success", time.Since(start))
package instrumentation
