// Package weather is a demo MCP server with one tool, one resource template
// and one prompt, all returning canned weather.
package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	Name    = "Weather Service"
	Version = "v1.0.0"

	resourcePrefix = "weather://"
)

type weatherInput struct {
	Location string `json:"location" jsonschema:"City or place to report on"`
}

// Report returns the canned weather line for location.
func Report(location string) string {
	return fmt.Sprintf("Weather in %s: Sunny, 72°F", location)
}

// NewServer builds the weather server.
func NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a specified location.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in weatherInput) (*mcp.CallToolResult, any, error) {
		return textResult(Report(in.Location)), nil, nil
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "weather",
		Description: "Provide weather data as a resource.",
		URITemplate: resourcePrefix + "{location}",
		MIMEType:    "text/plain",
	}, readResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "weather_report",
		Description: "Create a weather report prompt.",
		Arguments:   []*mcp.PromptArgument{{Name: "location", Required: true}},
	}, func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		location := req.Params.Arguments["location"]

		return &mcp.GetPromptResult{
			Description: "Weather report for " + location,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: fmt.Sprintf("You are a weather reporter. Weather report for %s?", location)},
			}},
		}, nil
	})

	return server
}

func readResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI

	location, ok := strings.CutPrefix(uri, resourcePrefix)
	if !ok || location == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Weather data for %s: Sunny, 72°F", location),
		}},
	}, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
