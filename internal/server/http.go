package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workspace-mcp/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is served.
const MCPEndpointPath = "/mcp"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr string

	// DisableStreaming turns off SSE responses for clients that cannot handle them.
	DisableStreaming bool

	Health  *HealthChecker
	Metrics *instrumentation.Metrics
}

// HTTPServer serves the MCP streamable HTTP transport and the health
// endpoints on one listener.
type HTTPServer struct {
	httpServer *http.Server
	handler    http.Handler
	addr       string
}

// NewHTTPServer wraps mcpServer in a streamable HTTP server.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
	}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(mcpServer, opts...)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, RequestMetrics(config.Metrics, streamable))
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		handler: mux,
		addr:    config.Addr,
	}, nil
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start starts the server in a blocking manner.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("starting MCP HTTP server", "addr", s.addr, "endpoint", MCPEndpointPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *HTTPServer) Addr() string {
	return s.addr
}

// RequestMetrics records http_requests_total and the request duration for
// every request passing through next.
func RequestMetrics(metrics *instrumentation.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
