package anthropic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
)

func TestBuildMessages_ToolResultsInUserTurn(t *testing.T) {
	msgs := buildMessages([]core.Content{
		core.NewTextContent("system", "ignored here"),
		core.NewTextContent("user", "Weather in Rome and Paris?"),
		{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "tu_1", Name: "get_weather", Arguments: `{"location":"Rome"}`}},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "tu_2", Name: "get_weather", Arguments: `{"location":"Paris"}`}},
		}},
		{Role: "tool", Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "tu_1", Name: "get_weather", Response: "Sunny"}}}},
		{Role: "tool", Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "tu_2", Name: "get_weather", Error: "timeout"}}}},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	require.NotNil(t, msgs[2].Content[1].OfToolResult)
	assert.Equal(t, "tu_2", msgs[2].Content[1].OfToolResult.ToolUseID)
}

func TestModel_Generate(t *testing.T) {
	var body map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "Checking."},
				{"type": "tool_use", "id": "tu_1", "name": "get_weather", "input": {"location": "Rome"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 3, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL + "/"
		o.MaxRetries = 0
	})

	resp, err := model.Collect(t.Context(), m, model.Request{
		Instructions: "You are a weather bot.",
		Contents:     []core.Content{core.NewTextContent("user", "Weather in Rome?")},
		Tools: []model.ToolDefinition{{Type: "function", Function: model.FunctionDefinition{
			Name:        "get_weather",
			Description: "Weather lookup",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"location": map[string]any{"type": "string"}},
				"required":   []string{"location"},
			},
		}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Checking.", resp.Content.Text())
	assert.Equal(t, "tool_use", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	calls := core.Event{Content: &resp.Content}.GetFunctionCalls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"location":"Rome"}`, calls[0].Arguments)

	assert.Equal(t, "You are a weather bot.", body["system"].([]any)[0].(map[string]any)["text"])
	assert.Equal(t, "Weather lookup", body["tools"].([]any)[0].(map[string]any)["description"])
}
