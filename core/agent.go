package core

// Agent defines the interface every agent in agentlab implements.
//
// Agents receive their inputs through a RunContext, emit events through it
// and return when their turn is over. Sub-agent management methods allow
// hierarchical setups (teams, sequential pipelines, transfers).
//
// Implementations must respect context cancellation and emit every event
// through RunContext.EmitEvent so staged state is attached.
type Agent interface {
	Name() string
	Description() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes the implementation (model, team, workflow, ...).
type AgentInfo struct{ Name, Type string }
