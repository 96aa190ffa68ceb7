package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/yuribarsotti/agentlab/core"
)

// ErrEscalated reports that a child escalated out of a loop.
var ErrEscalated = errors.New("child agent escalated")

// LoopAgent runs a child repeatedly until it escalates, the predicate
// accepts its answer, the iteration budget is spent or the context ends.
type LoopAgent struct {
	BaseAgent

	child       core.Agent
	maxIters    int
	interval    time.Duration
	stopOnError bool
	predicate   func(string) bool
}

// LoopOption customises a LoopAgent.
type LoopOption func(*LoopAgent)

// WithMaxIters bounds the number of iterations.
func WithMaxIters(n int) LoopOption {
	return func(l *LoopAgent) { l.maxIters = n }
}

// WithInterval waits d between iterations.
func WithInterval(d time.Duration) LoopOption {
	return func(l *LoopAgent) { l.interval = d }
}

// WithPredicate stops the loop once pred returns true for an iteration's
// final answer.
func WithPredicate(pred func(string) bool) LoopOption {
	return func(l *LoopAgent) { l.predicate = pred }
}

// WithContinueOnError keeps looping after failed iterations.
func WithContinueOnError() LoopOption {
	return func(l *LoopAgent) { l.stopOnError = false }
}

// NewLoopAgent creates a loop over child, 100 iterations at most by default.
func NewLoopAgent(name string, child core.Agent, opts ...LoopOption) *LoopAgent {
	l := &LoopAgent{
		BaseAgent:   NewBaseAgent(name),
		child:       child,
		maxIters:    100,
		stopOnError: true,
	}
	l.bind(l)
	_ = l.SetSubAgents(child)

	for _, o := range opts {
		o(l)
	}

	return l
}

// Run executes the loop. Escalation ends it without error.
func (l *LoopAgent) Run(rc *core.RunContext) error {
	for i := 0; i < l.maxIters; i++ {
		if err := rc.Err(); err != nil {
			return err
		}

		rc.LogDebug("agent.loop.iteration", "agent", l.Name(), "iteration", i+1)

		childCtx := rc.NewChildContext(nil, nil, "")
		childCtx.Agent = core.AgentInfo{Name: l.child.Name(), Type: fmt.Sprintf("%T", l.child)}

		events, err := relay(rc, l.child, childCtx, true)

		if escalated(events) {
			rc.LogInfo("agent.loop.escalated", "agent", l.Name(), "iteration", i+1)
			return nil
		}

		if err != nil {
			if rc.Err() != nil || l.stopOnError {
				return fmt.Errorf("loop iteration %d failed for agent %s: %w", i+1, l.child.Name(), err)
			}

			rc.LogWarn("agent.loop.iteration.error", "agent", l.Name(), "iteration", i+1, "error", err.Error())
		}

		if l.predicate != nil && l.predicate(lastAnswer(events)) {
			rc.LogInfo("agent.loop.predicate.satisfied", "agent", l.Name(), "iteration", i+1)
			return nil
		}

		if l.interval > 0 && i < l.maxIters-1 {
			select {
			case <-rc.Done():
				return rc.Err()
			case <-time.After(l.interval):
			}
		}
	}

	rc.LogDebug("agent.loop.complete", "agent", l.Name(), "iterations", l.maxIters)

	return nil
}

// CreateEscalationEvent builds an event asking enclosing loops to stop.
func CreateEscalationEvent(invocationID, author string, content *core.Content) core.Event {
	escalate := true
	ev := core.NewEvent(invocationID, author)
	ev.Actions.Escalate = &escalate
	ev.Content = content

	return ev
}
