// Package resources provides MCP resources describing the server's permission
// setup. Resources are read-only data sources that MCP clients can fetch, so
// an assistant can find out up front which permission levels are active and
// which OAuth scopes they grant instead of discovering it through failed tool
// calls.
package resources
