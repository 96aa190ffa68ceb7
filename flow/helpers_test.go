package flow

import (
	"context"
	"errors"
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

type testAgent struct {
	name      string
	llm       model.Model
	prompt    Prompt
	tools     []tool.Tool
	targets   []core.Agent
	history   int
	stream    bool
	outputKey string
}

func newTestAgent(name string, llm model.Model) *testAgent {
	return &testAgent{name: name, llm: llm, history: -1}
}

func (a *testAgent) Name() string                            { return a.name }
func (a *testAgent) Model() model.Model                      { return a.llm }
func (a *testAgent) Prompt(*core.RunContext) (Prompt, error) { return a.prompt, nil }
func (a *testAgent) Tools() []tool.Tool                      { return a.tools }
func (a *testAgent) TransferTargets() []core.Agent           { return a.targets }
func (a *testAgent) HistoryRuns() int                        { return a.history }
func (a *testAgent) StreamingEnabled() bool                  { return a.stream }
func (a *testAgent) OutputKey() string                       { return a.outputKey }

// stubAgent is a core.Agent that answers with a fixed message.
type stubAgent struct {
	name  string
	reply string
	ran   bool
}

func (s *stubAgent) Name() string                     { return s.name }
func (s *stubAgent) Description() string              { return "stub " + s.name }
func (s *stubAgent) Start(*core.RunContext) error     { return nil }
func (s *stubAgent) Stop(*core.RunContext) error      { return nil }
func (s *stubAgent) SetSubAgents(...core.Agent) error { return nil }
func (s *stubAgent) SubAgents() []core.Agent          { return nil }
func (s *stubAgent) Parent() core.Agent               { return nil }
func (s *stubAgent) FindAgent(string) core.Agent      { return nil }
func (s *stubAgent) Run(rc *core.RunContext) error {
	s.ran = true
	return rc.EmitEvent(core.NewMessageEvent(s.name, s.reply))
}

type mockTool struct {
	name        string
	delay       time.Duration
	result      any
	err         error
	panicMsg    any
	actionState map[string]any
	transferTo  string
	skip        bool
}

func (mt *mockTool) Name() string               { return mt.name }
func (mt *mockTool) Description() string        { return "mock tool" }
func (mt *mockTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (mt *mockTool) Call(tc *core.ToolContext, _ map[string]any) (any, error) {
	if mt.delay > 0 {
		select {
		case <-time.After(mt.delay):
		case <-tc.Context().Done():
			return nil, tc.Context().Err()
		}
	}

	if mt.panicMsg != nil {
		panic(mt.panicMsg)
	}

	for k, v := range mt.actionState {
		tc.SetState(k, v)
	}

	if mt.transferTo != "" {
		tc.TransferToAgent(mt.transferTo)
	}

	if mt.skip {
		tc.SkipSummarization()
	}

	return mt.result, mt.err
}

var errBoom = errors.New("boom")

// newTestRunContext returns a context whose session already holds the
// user message, like the runner prepares it.
func newTestRunContext(ctx context.Context, agentName, userText string) (*core.RunContext, chan core.Event) {
	emit := make(chan core.Event, 256)
	sess := core.NewSession("sess")
	content := core.NewTextContent("user", userText)
	sess.AddEvent(core.NewUserContentEvent("run-1", &content))

	rc := core.NewRunContext(ctx, "sess", "run-1", core.AgentInfo{Name: agentName}, content, emit, sess, core.RunContextOptions{UserID: "u1"})

	return rc, emit
}

func drainEvents(ch chan core.Event) []core.Event {
	var out []core.Event

	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
