package testutil

import (
	"context"
	"sync"

	"github.com/yuribarsotti/agentlab/core"
)

// RunResult holds what an agent produced during a harness run.
type RunResult struct {
	Events  []core.Event
	Err     error
	Session *core.Session
}

// Texts returns the text of every non-partial event that carries some.
func (r RunResult) Texts() []string {
	var out []string

	for _, ev := range r.Events {
		if ev.IsPartial() {
			continue
		}

		if t := ev.Text(); t != "" {
			out = append(out, t)
		}
	}

	return out
}

// Final returns the final root branch text.
func (r RunResult) Final() string { return core.FinalText(r.Events, "") }

// NewRunContext builds a RunContext for agent over sess with the user
// message appended to the session, as the runner would do.
func NewRunContext(ctx context.Context, agent core.Agent, sess *core.Session, userText string, emit chan<- core.Event) *core.RunContext {
	if sess == nil {
		sess = core.NewSession("test-session")
	}

	content := core.NewTextContent("user", userText)
	sess.AddEvent(core.NewUserContentEvent("run-1", &content))

	return core.NewRunContext(ctx, sess.ID, "run-1", core.AgentInfo{Name: agent.Name()}, content, emit, sess, core.RunContextOptions{UserID: sess.UserID})
}

// Run executes agent with userText and collects every emitted event.
func Run(ctx context.Context, agent core.Agent, sess *core.Session, userText string) RunResult {
	emit := make(chan core.Event, 16)
	rc := NewRunContext(ctx, agent, sess, userText, emit)

	var (
		res RunResult
		wg  sync.WaitGroup
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for ev := range emit {
			res.Events = append(res.Events, ev)
		}
	}()

	res.Err = agent.Run(rc)

	close(emit)
	wg.Wait()

	res.Session = rc.Session

	return res
}
