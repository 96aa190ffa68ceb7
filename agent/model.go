package agent

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/flow"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

// ModelAgentOptions configures a ModelAgent.
type ModelAgentOptions struct {
	Description string
	Role        string

	// Instruction is the primary (static or dynamic) instruction.
	Instruction Instruction

	// Instructions are additional instruction lines.
	Instructions []string

	AdditionalContext string
	ExpectedOutput    string
	Markdown          bool
	AddDatetime       bool

	// HistoryRuns bounds how many previous runs are replayed; negative
	// replays the whole session.
	HistoryRuns int

	// OutputKey stores the final answer in session state under this key.
	OutputKey string

	EnableStreaming bool

	// AllowTransfer lets the model hand the conversation to sub-agents and,
	// when the parent is a ModelAgent, to the parent and its other children.
	AllowTransfer bool

	Tools []tool.Tool
}

// ModelAgent answers with a language model, calling tools and transferring
// to related agents as the model decides.
type ModelAgent struct {
	BaseAgent

	llm  model.Model
	opts ModelAgentOptions
}

// NewModelAgent creates a model-backed agent. Without any instruction or
// description it introduces itself as a helpful assistant.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		HistoryRuns:   -1,
		AllowTransfer: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Instruction.IsZero() && len(opts.Instructions) == 0 && opts.Description == "" {
		opts.Instruction = NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name))
	}

	a := &ModelAgent{
		BaseAgent: NewBaseAgent(name),
		llm:       llm,
		opts:      opts,
	}
	a.bind(a)

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// RegisterTools adds tools to the agent.
func (a *ModelAgent) RegisterTools(tools ...tool.Tool) {
	a.opts.Tools = append(a.opts.Tools, tools...)
}

// Model returns the language model driving the agent.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Tools returns the registered tools.
func (a *ModelAgent) Tools() []tool.Tool {
	out := make([]tool.Tool, len(a.opts.Tools))
	copy(out, a.opts.Tools)

	return out
}

// HistoryRuns returns the number of previous runs replayed to the model.
func (a *ModelAgent) HistoryRuns() int { return a.opts.HistoryRuns }

// StreamingEnabled reports whether partial responses are emitted.
func (a *ModelAgent) StreamingEnabled() bool { return a.opts.EnableStreaming }

// OutputKey returns the session state key receiving the final answer.
func (a *ModelAgent) OutputKey() string { return a.opts.OutputKey }

// Prompt resolves the system prompt sections for this run.
func (a *ModelAgent) Prompt(rc *core.RunContext) (flow.Prompt, error) {
	var instructions []string

	if !a.opts.Instruction.IsZero() {
		text, err := a.opts.Instruction.Resolve(rc)
		if err != nil {
			return flow.Prompt{}, err
		}

		if text != "" {
			instructions = append(instructions, text)
		}
	}

	instructions = append(instructions, a.opts.Instructions...)

	return flow.Prompt{
		Description:       a.opts.Description,
		Role:              a.opts.Role,
		Instructions:      instructions,
		AdditionalContext: a.opts.AdditionalContext,
		ExpectedOutput:    a.opts.ExpectedOutput,
		Markdown:          a.opts.Markdown,
		AddDatetime:       a.opts.AddDatetime,
	}, nil
}

// TransferTargets lists the agents the model may transfer to.
func (a *ModelAgent) TransferTargets() []core.Agent {
	if !a.opts.AllowTransfer {
		return nil
	}

	targets := a.SubAgents()

	parent, ok := a.Parent().(*ModelAgent)
	if !ok {
		return targets
	}

	targets = append(targets, parent)

	for _, peer := range parent.SubAgents() {
		if peer != core.Agent(a) {
			targets = append(targets, peer)
		}
	}

	return targets
}

// Run executes one turn through the flow selected for the agent.
func (a *ModelAgent) Run(rc *core.RunContext) error {
	rc.LogDebug("agent.run.start", "agent", a.Name(), "run", rc.RunID, "branch", rc.Branch)

	fl := flow.SelectFlow(a)

	rc.LogDebug("agent.flow.selected", "agent", a.Name(), "flow", fmt.Sprintf("%T", fl))

	if err := fl.Execute(rc); err != nil {
		rc.LogError("agent.run.error", "agent", a.Name(), "error", err.Error())
		return err
	}

	rc.LogDebug("agent.run.complete", "agent", a.Name())

	return nil
}

// Role returns the agent's role, shown to team leaders.
func (a *ModelAgent) Role() string { return a.opts.Role }
