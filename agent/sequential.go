package agent

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
)

// SequentialAgent runs its children one after another on the same context,
// so each child sees the history and state produced by the previous ones.
type SequentialAgent struct {
	BaseAgent
}

// NewSequentialAgent creates a sequential coordinator over children.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	s := &SequentialAgent{BaseAgent: NewBaseAgent(name)}
	s.bind(s)
	_ = s.SetSubAgents(children...)

	return s
}

// Run executes each child in order; the first error stops the pipeline.
func (s *SequentialAgent) Run(rc *core.RunContext) error {
	for _, child := range s.SubAgents() {
		if err := rc.Err(); err != nil {
			return err
		}

		rc.LogDebug("agent.sequential.step", "agent", s.Name(), "child", child.Name())

		childCtx := rc.NewChildContext(rc.Emit, rc.Resume, "")
		childCtx.Agent = core.AgentInfo{Name: child.Name(), Type: fmt.Sprintf("%T", child)}

		if err := child.Run(childCtx); err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
	}

	return nil
}
