package agent

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yuribarsotti/agentlab/core"
)

// BaseAgent bundles shared lifecycle (Start/Stop), hierarchy management and
// identity helpers. Embed it in concrete agents, supply Run and call bind
// from the constructor so hierarchy links point at the concrete agent.
type BaseAgent struct {
	name        string
	description string
	self        core.Agent

	mu        sync.Mutex
	active    int
	parent    core.Agent
	subAgents []core.Agent
}

// NewBaseAgent constructs a BaseAgent with a generated description.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

func (b *BaseAgent) bind(self core.Agent) { b.self = self }

// Name returns the agent name.
func (b *BaseAgent) Name() string { return b.name }

// Description returns what the agent is good at; coordinators show it to models.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Start marks one run as active. Runs may overlap.
func (b *BaseAgent) Start(rc *core.RunContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.active++
	rc.LogDebug("agent.lifecycle.start", "agent", b.name, "active", b.active)

	return nil
}

// Stop marks one run as finished.
func (b *BaseAgent) Stop(rc *core.RunContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active == 0 {
		return errors.New("agent is not running")
	}

	b.active--
	rc.LogDebug("agent.lifecycle.stop", "agent", b.name, "active", b.active)

	return nil
}

// Running reports whether at least one run is active.
func (b *BaseAgent) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.active > 0
}

// SetSubAgents replaces the child set and makes this agent their parent.
// An agent can only have one parent.
func (b *BaseAgent) SetSubAgents(children ...core.Agent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, child := range children {
		if child == nil {
			return errors.New("sub-agent must not be nil")
		}

		if p := child.Parent(); p != nil && p != b.self {
			return fmt.Errorf("agent %s already has parent %s", child.Name(), p.Name())
		}
	}

	for _, child := range b.subAgents {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(nil)
		}
	}

	b.subAgents = nil

	for _, child := range children {
		if setter, ok := child.(interface{ setParent(core.Agent) }); ok {
			setter.setParent(b.self)
		}

		b.subAgents = append(b.subAgents, child)
	}

	return nil
}

func (b *BaseAgent) setParent(p core.Agent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.parent = p
}

// Parent returns the parent agent or nil for a root agent.
func (b *BaseAgent) Parent() core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.parent
}

// SubAgents returns a copy of the child agents.
func (b *BaseAgent) SubAgents() []core.Agent {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]core.Agent, len(b.subAgents))
	copy(result, b.subAgents)

	return result
}

// FindAgent searches this agent and its subtree depth-first by name.
func (b *BaseAgent) FindAgent(name string) core.Agent {
	if b.name == name && b.self != nil {
		return b.self
	}

	for _, child := range b.SubAgents() {
		if found := child.FindAgent(name); found != nil {
			return found
		}
	}

	return nil
}
