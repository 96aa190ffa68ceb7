package agent

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/core"
)

// WorkflowFunc implements the body of a Workflow. State staged with
// rc.SetState is persisted when the run ends: committed straight to the
// session store when one is configured, else carried by a final event.
type WorkflowFunc func(rc *core.RunContext, w *Workflow) error

// Workflow is an agent driven by plain Go code instead of a model.
type Workflow struct {
	BaseAgent

	run WorkflowFunc
}

// NewWorkflow creates a workflow; sub-agents it orchestrates are registered
// as children so FindAgent and transfers can reach them.
func NewWorkflow(name string, fn WorkflowFunc, children ...core.Agent) *Workflow {
	w := &Workflow{BaseAgent: NewBaseAgent(name), run: fn}
	w.bind(w)
	_ = w.SetSubAgents(children...)

	return w
}

// Run executes the workflow body and flushes any staged state.
func (w *Workflow) Run(rc *core.RunContext) error {
	rc.LogDebug("workflow.run.start", "workflow", w.Name(), "run", rc.RunID)

	if err := w.run(rc, w); err != nil {
		rc.LogError("workflow.run.error", "workflow", w.Name(), "error", err.Error())
		return err
	}

	if err := w.flushState(rc); err != nil {
		return err
	}

	rc.LogDebug("workflow.run.complete", "workflow", w.Name())

	return nil
}

func (w *Workflow) flushState(rc *core.RunContext) error {
	if len(rc.StateDelta) == 0 {
		return nil
	}

	if rc.SessionStore != nil {
		if err := rc.CommitStateDelta(); err != nil {
			return fmt.Errorf("workflow %s: commit state: %w", w.Name(), err)
		}

		return nil
	}

	return rc.EmitEvent(core.NewEvent(rc.RunID, w.Name()))
}

// Respond emits a final assistant message authored by the workflow.
func (w *Workflow) Respond(rc *core.RunContext, text string) error {
	ev := core.NewMessageEvent(w.Name(), text)
	complete := true
	ev.TurnComplete = &complete

	return rc.EmitEvent(ev)
}

// RunAgent runs a on input, streaming its events to the caller, and returns
// its final answer.
func (w *Workflow) RunAgent(rc *core.RunContext, a core.Agent, input string) (string, error) {
	child := rc.NewChildContext(nil, nil, "")
	child.Agent = core.AgentInfo{Name: a.Name(), Type: fmt.Sprintf("%T", a)}

	if input != rc.UserContent.Text() {
		child.RunID = rc.RunID + "/" + a.Name()
		child.UserContent = core.NewTextContent("user", input)
	}

	events, err := relay(rc, a, child, true)
	if err != nil {
		return "", fmt.Errorf("workflow %s: agent %s: %w", w.Name(), a.Name(), err)
	}

	return lastAnswer(events), nil
}
