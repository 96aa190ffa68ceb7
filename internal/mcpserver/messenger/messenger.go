// Package messenger is an MCP server that relays messages to a webhook.
package messenger

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yuribarsotti/agentlab/internal/notify"
)

const (
	Name    = "BarsoBotMCP"
	Version = "v1.0.0"
)

type sendInput struct {
	Name    string `json:"name" jsonschema:"The sender name"`
	Message string `json:"message" jsonschema:"The message to be sent"`
}

// NewServer builds the messenger server around webhook.
func NewServer(webhook *notify.Webhook) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send the given message to Yuri.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in sendInput) (*mcp.CallToolResult, any, error) {
		out, err := webhook.Send(ctx, in.Name, in.Message)
		if err != nil {
			return nil, nil, err
		}

		b, err := json.Marshal(out)
		if err != nil {
			return nil, nil, err
		}

		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(b)}},
			StructuredContent: out,
		}, nil, nil
	})

	return server
}
