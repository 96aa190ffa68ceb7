// Package mcptool adapts the tools of a Model Context Protocol server to the
// tool.Tool interface so agents can call remote MCP tools like local ones.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// Options configures a Toolset.
type Options struct {
	// ClientName and ClientVersion identify the client during initialization.
	ClientName    string
	ClientVersion string

	// Roots advertised to the server, as file:// URIs.
	Roots []string

	// Filter restricts the exposed tools to the listed names. Empty exposes all.
	Filter []string
}

// Toolset is a connected MCP client session.
type Toolset struct {
	session *mcp.ClientSession
	filter  map[string]struct{}
}

// Connect opens a client session over transport.
//
//	ts, err := mcptool.Connect(ctx, &mcp.CommandTransport{Command: exec.Command("weather-mcp")})
func Connect(ctx context.Context, transport mcp.Transport, optFns ...func(o *Options)) (*Toolset, error) {
	opts := Options{
		ClientName:    "agentlab",
		ClientVersion: "v1.0.0",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: opts.ClientName, Version: opts.ClientVersion}, nil)

	for _, uri := range opts.Roots {
		client.AddRoots(&mcp.Root{URI: uri})
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mcp server: %w", err)
	}

	ts := &Toolset{session: session}

	if len(opts.Filter) > 0 {
		ts.filter = make(map[string]struct{}, len(opts.Filter))
		for _, name := range opts.Filter {
			ts.filter[name] = struct{}{}
		}
	}

	return ts, nil
}

// Tools lists the server's tools.
func (ts *Toolset) Tools(ctx context.Context) ([]tool.Tool, error) {
	var tools []tool.Tool

	for t, err := range ts.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("failed to list mcp tools: %w", err)
		}

		if ts.filter != nil {
			if _, ok := ts.filter[t.Name]; !ok {
				continue
			}
		}

		tools = append(tools, &remoteTool{session: ts.session, def: t})
	}

	return tools, nil
}

// Close terminates the session.
func (ts *Toolset) Close() error {
	return ts.session.Close()
}

type remoteTool struct {
	session *mcp.ClientSession
	def     *mcp.Tool
}

func (t *remoteTool) Name() string        { return t.def.Name }
func (t *remoteTool) Description() string { return t.def.Description }

func (t *remoteTool) Parameters() map[string]any {
	switch s := t.def.InputSchema.(type) {
	case map[string]any:
		return s
	case nil:
		return nil
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return nil
		}

		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil
		}

		return m
	}
}

// Call forwards the arguments to the server. Structured content is returned
// as is; otherwise the text blocks are joined.
func (t *remoteTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	res, err := t.session.CallTool(toolCtx.Context(), &mcp.CallToolParams{Name: t.def.Name, Arguments: args})
	if err != nil {
		return nil, tool.NewToolError(t.def.Name, err.Error(), tool.CodeExecution)
	}

	text := contentText(res.Content)

	if res.IsError {
		return nil, tool.NewToolError(t.def.Name, text, tool.CodeExecution)
	}

	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}

	return text, nil
}

func contentText(content []mcp.Content) string {
	var parts []string

	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}

	return strings.Join(parts, "\n")
}

// ErrNoText is returned by Text when a tool result carries no text content.
var ErrNoText = errors.New("mcp result has no text content")

// Text returns the joined text blocks of res.
func Text(res *mcp.CallToolResult) (string, error) {
	text := contentText(res.Content)
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}
