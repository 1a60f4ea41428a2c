// Package cmd implements the command-line interface for workspace-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide tools for AI assistants
//   - permissions: Show permission levels and the scopes they grant
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
