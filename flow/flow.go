// Package flow drives the model / tool loop of a single model-backed agent.
//
// A flow builds a model request through a chain of RequestProcessors
// (instructions, conversation contents, tools, transfer targets), streams
// the model response as events, executes requested function calls and
// repeats until the model produces a final answer, a tool ends the turn or
// control is transferred to another agent.
package flow

import (
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

// Flow executes one agent turn, emitting events on the RunContext.
type Flow interface {
	Execute(rc *core.RunContext) error
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// Name returns the agent's name, used as event author.
	Name() string

	// Model returns the language model driving the agent.
	Model() model.Model

	// Prompt resolves the pieces of the system prompt for this run.
	Prompt(rc *core.RunContext) (Prompt, error)

	// Tools returns the tools the model may call.
	Tools() []tool.Tool

	// TransferTargets returns the agents control may be handed to; empty
	// disables transfers.
	TransferTargets() []core.Agent

	// HistoryRuns bounds how many previous runs are replayed to the model.
	// Negative means the whole history.
	HistoryRuns() int

	// StreamingEnabled reports whether partial responses should be emitted.
	StreamingEnabled() bool

	// OutputKey names the session state key receiving the final answer.
	OutputKey() string
}

// Prompt collects the sections rendered into the system prompt.
type Prompt struct {
	Description       string
	Role              string
	Instructions      []string
	AdditionalContext string
	ExpectedOutput    string
	SuccessCriteria   string
	Markdown          bool
	AddDatetime       bool

	// Now overrides the clock used when AddDatetime is set.
	Now func() time.Time
}

// Request is a model request under construction together with the tools
// able to serve the calls it may produce.
type Request struct {
	model.Request

	Toolset []tool.Tool
}

// AddTool registers t and its definition unless a tool of that name exists.
func (r *Request) AddTool(t tool.Tool) bool {
	if tool.Find(r.Toolset, t.Name()) != nil {
		return false
	}

	r.Toolset = append(r.Toolset, t)
	r.Tools = append(r.Tools, tool.Definitions([]tool.Tool{t})...)

	return true
}

// RequestProcessor mutates the request before it is sent to the model.
type RequestProcessor interface {
	Name() string
	ProcessRequest(rc *core.RunContext, req *Request, agent FlowAgent) error
}
