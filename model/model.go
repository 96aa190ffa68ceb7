package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by flows.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // stop, length, tool_calls, ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by flows & agents to drive generation.
// Implementations close both channels when generation ends; the error channel
// carries at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// ErrNoResponse is returned by Collect when the model produced no final response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains a generation and returns the final (non-partial) response.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final Response
		found bool
	)

	for resp := range respCh {
		if resp.Partial {
			continue
		}

		final = resp
		found = true
	}

	if err := <-errCh; err != nil {
		return Response{}, err
	}

	if !found {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// SystemPrompt joins the request instructions with any system role contents.
func SystemPrompt(req Request) string {
	prompt := req.Instructions

	for _, c := range req.Contents {
		if c.Role != "system" {
			continue
		}

		if text := c.Text(); text != "" {
			if prompt != "" {
				prompt += "\n\n"
			}

			prompt += text
		}
	}

	return prompt
}

// FunctionResponseText renders a tool result as the text sent back to a
// provider: strings verbatim, other values as JSON, failures as {"error": ...}.
func FunctionResponseText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		data, _ := json.Marshal(map[string]string{"error": fr.Error})
		return string(data)
	}

	switch v := fr.Response.(type) {
	case nil:
		return ""
	case string:
		return v
	}

	data, err := json.Marshal(fr.Response)
	if err != nil {
		return fmt.Sprintf("%v", fr.Response)
	}

	return string(data)
}
