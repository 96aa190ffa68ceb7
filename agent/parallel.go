package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yuribarsotti/agentlab/core"
)

// ParallelAgent runs its children concurrently, each on its own branch
// ("<parent branch>.<parallel>.<child>") so siblings do not see each
// other's conversation. Events of all children are forwarded as they come.
type ParallelAgent struct {
	BaseAgent

	timeout time.Duration
}

// NewParallelAgent creates a parallel coordinator; a zero timeout means no limit.
func NewParallelAgent(name string, timeout time.Duration, children ...core.Agent) *ParallelAgent {
	p := &ParallelAgent{BaseAgent: NewBaseAgent(name), timeout: timeout}
	p.bind(p)
	_ = p.SetSubAgents(children...)

	return p
}

func (p *ParallelAgent) branchFor(rc *core.RunContext, child core.Agent) string {
	return buildBranchPath(rc.Branch, p.Name()+"."+child.Name())
}

// Run launches all children and waits for them. Successful children finish
// even when siblings fail; all errors are joined.
func (p *ParallelAgent) Run(rc *core.RunContext) error {
	parent := rc
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(rc.Context, p.timeout)
		defer cancel()

		parent = rc.Clone()
		parent.Context = ctx
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, child := range p.SubAgents() {
		wg.Add(1)

		go func(c core.Agent) {
			defer wg.Done()

			branchCtx := parent.WithBranch(p.branchFor(rc, c))
			branchCtx.Agent = core.AgentInfo{Name: c.Name(), Type: fmt.Sprintf("%T", c)}
			branchCtx.StateDelta = map[string]any{}

			if err := c.Run(branchCtx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("parallel execution failed for agent %s: %w", c.Name(), err))
				mu.Unlock()
			}
		}(child)
	}

	wg.Wait()

	return errors.Join(errs...)
}
