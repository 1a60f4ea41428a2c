// Package common provides shared utilities for MCP tool implementations:
// account selection, per-call instrumentation and registration of tools
// gated by the OAuth scope they require.
package common
