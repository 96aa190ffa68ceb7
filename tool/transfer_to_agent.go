package tool

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
)

// TransferToAgentName is the function name models use to hand off control.
const TransferToAgentName = "transfer_to_agent"

type transferToAgentTool struct {
	targets []string
}

// NewTransferToAgentTool constructs the transfer tool. When targets are
// given the schema enumerates them and other names are rejected.
func NewTransferToAgentTool(targets ...string) Tool { return &transferToAgentTool{targets: targets} }

func (t *transferToAgentTool) Name() string { return TransferToAgentName }

func (t *transferToAgentTool) Description() string {
	return "Transfer the conversation to another agent by name. Use when another agent is better suited to answer."
}

func (t *transferToAgentTool) Parameters() map[string]any {
	agent := map[string]any{"type": "string", "description": "Target agent name"}
	if len(t.targets) > 0 {
		agent["enum"] = t.targets
	}

	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"agent": agent},
		"required":   []string{"agent"},
	}
}

func (t *transferToAgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	agentName, _ := args["agent"].(string)
	if agentName == "" {
		return nil, NewToolError(t.Name(), "field 'agent' must be a non-empty string", CodeValidation)
	}

	if len(t.targets) > 0 && !contains(t.targets, agentName) {
		return nil, NewToolError(t.Name(), fmt.Sprintf("unknown agent %q", agentName), CodeValidation)
	}

	tc.TransferToAgent(agentName)

	return map[string]any{"transferred": true, "agent": agentName}, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}

	return false
}
