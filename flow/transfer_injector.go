package flow

import (
	"fmt"
	"strings"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// TransferToolInjector adds the transfer_to_agent tool, restricted to the
// agent's transfer targets, and describes those targets in the instructions.
type TransferToolInjector struct{}

// NewTransferToolInjector creates the injector.
func NewTransferToolInjector() *TransferToolInjector { return &TransferToolInjector{} }

// Name returns the processor's identifier.
func (p *TransferToolInjector) Name() string { return "transfer_tool_injector" }

// ProcessRequest injects the transfer tool when the agent has targets.
func (p *TransferToolInjector) ProcessRequest(_ *core.RunContext, req *Request, agent FlowAgent) error {
	targets := agent.TransferTargets()
	if len(targets) == 0 {
		return nil
	}

	names := make([]string, 0, len(targets))

	var b strings.Builder

	b.WriteString("You can transfer the conversation to one of these agents when it is better suited to answer:\n")

	for _, t := range targets {
		names = append(names, t.Name())
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}

	b.WriteString("To transfer, call the " + tool.TransferToAgentName + " tool with the agent name.")

	if !req.AddTool(tool.NewTransferToAgentTool(names...)) {
		return nil
	}

	if req.Instructions != "" {
		req.Instructions += "\n\n"
	}

	req.Instructions += b.String()

	return nil
}
