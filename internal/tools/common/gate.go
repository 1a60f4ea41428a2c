package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/workspace-mcp/internal/instrumentation"
	"github.com/teemow/workspace-mcp/internal/logging"
	"github.com/teemow/workspace-mcp/internal/server"
)

// ScopedTool is an MCP tool together with the OAuth scope it needs.
// An empty Scope means the tool is always available.
type ScopedTool struct {
	Tool    mcp.Tool
	Scope   string
	Handler ToolHandler
}

// Register adds every tool whose scope the active permission config allows
// to s, wrapped by InstrumentedToolHandler. Tools that are not allowed are
// skipped and counted in mcp_tools_filtered_total. It returns the names of
// the registered tools.
func Register(s *mcpserver.MCPServer, sc *server.ServerContext, tools ...ScopedTool) []string {
	perms := sc.Permissions()
	registered := make([]string, 0, len(tools))

	for _, t := range tools {
		name := t.Tool.Name
		if t.Scope != "" && !perms.Allows(t.Scope) {
			sc.Metrics().RecordToolFiltered(context.Background(), name)
			sc.Logger().Debug("tool filtered by permissions",
				logging.Tool(name),
				logging.Scope(t.Scope),
				logging.Permissions(perms))
			continue
		}
		s.AddTool(t.Tool, mcpserver.ToolHandlerFunc(InstrumentedToolHandler(name, sc, gateSpan(t.Scope, t.Handler))))
		registered = append(registered, name)
	}
	return registered
}

// gateSpan records the required scope on the tool span.
func gateSpan(scope string, handler ToolHandler) ToolHandler {
	if scope == "" {
		return handler
	}
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trace.SpanFromContext(ctx).SetAttributes(
			instrumentation.NewSpanAttributeBuilder().WithRequiredScope(scope).Build()...)
		return handler(ctx, request)
	}
}
