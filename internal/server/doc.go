// Package server provides the MCP server context and the HTTP plumbing of
// the workspace-mcp application.
//
// # Key Components
//
// ServerContext carries the active permission config, the Google
// authenticator and the metrics recorder to every tool handler. It creates
// one Gmail mailbox per account on first use and caches it.
//
// HTTPServer serves the MCP streamable HTTP transport on /mcp together with
// the health endpoints of HealthChecker. Requests to /mcp are counted by the
// RequestMetrics middleware.
//
// MetricsServer exposes Prometheus metrics on a dedicated port so that
// operational data stays off the main listener.
package server
