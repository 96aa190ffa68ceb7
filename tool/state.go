package tool

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
)

// StateTool lets a model read and write session state, inspect the chat
// history and use long-term memory through a single operation switch.
type StateTool struct{}

// NewStateTool creates the state tool.
func NewStateTool() *StateTool { return &StateTool{} }

// Name returns the tool identifier.
func (t *StateTool) Name() string { return "state_manager" }

// Description returns the tool description.
func (t *StateTool) Description() string {
	return "Manage session state and memory. Operations: get_state, set_state, get_chat_history, search_memory, store_memory."
}

// Parameters returns the JSON schema for tool parameters.
func (t *StateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"enum":        []string{"get_state", "set_state", "get_chat_history", "search_memory", "store_memory"},
				"description": "The operation to perform",
			},
			"key":     map[string]any{"type": "string", "description": "State key for get_state/set_state"},
			"value":   map[string]any{"description": "Value for set_state"},
			"query":   map[string]any{"type": "string", "description": "Query for search_memory"},
			"content": map[string]any{"type": "string", "description": "Content for store_memory"},
			"limit":   map[string]any{"type": "integer", "description": "Maximum results (default 10)"},
		},
		"required": []string{"operation"},
	}
}

// Call dispatches the requested operation.
func (t *StateTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	operation, _ := args["operation"].(string)

	switch operation {
	case "get_state":
		key, err := stringArg(args, "key", operation)
		if err != nil {
			return nil, err
		}

		value, exists := tc.GetState(key)

		return map[string]any{"key": key, "exists": exists, "value": value}, nil
	case "set_state":
		key, err := stringArg(args, "key", operation)
		if err != nil {
			return nil, err
		}

		tc.SetState(key, args["value"])

		return map[string]any{"key": key, "success": true}, nil
	case "get_chat_history":
		history := tc.GetSessionHistory()

		limit := intArg(args, "limit", 10)
		if len(history) > limit {
			history = history[len(history)-limit:]
		}

		messages := make([]map[string]string, 0, len(history))
		for _, ev := range history {
			if text := ev.Text(); text != "" {
				messages = append(messages, map[string]string{"role": ev.Content.Role, "author": ev.Author, "content": text})
			}
		}

		return map[string]any{"messages": messages}, nil
	case "search_memory":
		query, err := stringArg(args, "query", operation)
		if err != nil {
			return nil, err
		}

		results, err := tc.SearchMemory(query, intArg(args, "limit", 10))
		if err != nil {
			return nil, err
		}

		return map[string]any{"query": query, "results": results}, nil
	case "store_memory":
		content, err := stringArg(args, "content", operation)
		if err != nil {
			return nil, err
		}

		if err := tc.StoreMemory(content, map[string]any{"agent": tc.AgentName()}); err != nil {
			return nil, err
		}

		return map[string]any{"success": true}, nil
	default:
		return nil, NewToolError(t.Name(), fmt.Sprintf("unknown operation: %q", operation), CodeValidation)
	}
}

func stringArg(args map[string]any, key, operation string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", NewToolError("state_manager", fmt.Sprintf("%s parameter is required for %s", key, operation), CodeValidation)
	}

	return v, nil
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		if v > 0 {
			return int(v)
		}
	case int:
		if v > 0 {
			return v
		}
	}

	return def
}
