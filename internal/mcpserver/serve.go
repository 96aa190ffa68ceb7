// Package mcpserver runs MCP servers over stdio or streamable HTTP. The
// subpackages define the individual servers.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yuribarsotti/agentlab/internal/httpserver"
	"github.com/yuribarsotti/agentlab/logging"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ServeOptions selects the transport.
type ServeOptions struct {
	Transport string // stdio (default) or http
	Addr      string // listen address for http
	Path      string // endpoint path for http, default /mcp

	Logger logging.Logger
}

// Serve runs server until ctx is cancelled or the client disconnects.
func Serve(ctx context.Context, server *mcp.Server, opts ServeOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	switch opts.Transport {
	case "", TransportStdio:
		opts.Logger.Info("mcp.serve.start", "transport", TransportStdio)

		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}

		return nil
	case TransportHTTP:
		return serveHTTP(ctx, server, opts)
	default:
		return fmt.Errorf("unknown transport %q", opts.Transport)
	}
}

// Handler returns the streamable HTTP handler plus a /health probe.
func Handler(server *mcp.Server, path string) http.Handler {
	if path == "" {
		path = "/mcp"
	}

	mux := http.NewServeMux()
	mux.Handle(path, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}

func serveHTTP(ctx context.Context, server *mcp.Server, opts ServeOptions) error {
	opts.Logger.Info("mcp.serve.start", "transport", TransportHTTP, "addr", opts.Addr)

	return httpserver.Serve(ctx, opts.Addr, Handler(server, opts.Path), opts.Logger)
}
