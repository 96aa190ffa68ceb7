package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

func TestSingleAgentFlow_TextAnswer(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.AddResponse("hello", "Hi there")

	agent := newTestAgent("assistant", llm)
	agent.outputKey = "last_answer"

	rc, emit := newTestRunContext(t.Context(), "assistant", "hello")
	require.NoError(t, SelectFlow(agent).Execute(rc))

	events := drainEvents(emit)
	require.Len(t, events, 1)
	assert.Equal(t, "Hi there", events[0].Text())
	assert.True(t, events[0].IsFinalResponse())
	assert.Equal(t, "Hi there", events[0].Actions.StateDelta["last_answer"])

	v, _ := rc.Session.GetState("last_answer")
	assert.Equal(t, "Hi there", v)
}

func TestSingleAgentFlow_Streaming(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.AddResponse("hello", "one two three")

	agent := newTestAgent("assistant", llm)
	agent.stream = true

	rc, emit := newTestRunContext(t.Context(), "assistant", "hello")
	require.NoError(t, SelectFlow(agent).Execute(rc))

	events := drainEvents(emit)
	require.Len(t, events, 4)

	for _, ev := range events[:3] {
		assert.True(t, ev.IsPartial())
	}

	assert.Equal(t, "one two three", events[3].Text())
	assert.Len(t, rc.Session.GetEvents(), 2)
}

func TestBaseFlow_ToolLoop(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(
		model.ToolCallResponse(
			core.FunctionCall{ID: "fc1", Name: "t1", Arguments: `{}`},
			core.FunctionCall{ID: "fc2", Name: "t2", Arguments: `{}`},
		),
		model.TextResponse("done"),
	)

	agent := newTestAgent("assistant", llm)
	agent.tools = []tool.Tool{
		&mockTool{name: "t1", result: "r1", actionState: map[string]any{"a": 1}},
		&mockTool{name: "t2", result: "r2"},
	}

	rc, emit := newTestRunContext(t.Context(), "assistant", "go")
	require.NoError(t, SelectFlow(agent).Execute(rc))

	events := drainEvents(emit)
	require.Len(t, events, 4)
	assert.Len(t, events[0].GetFunctionCalls(), 2)
	assert.Equal(t, "fc1", events[1].GetFunctionResponses()[0].ID)
	assert.Equal(t, 1, events[1].Actions.StateDelta["a"])
	assert.Equal(t, "fc2", events[2].GetFunctionResponses()[0].ID)
	assert.Equal(t, "done", events[3].Text())

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[0].Tools, 2)

	second := reqs[1].Contents
	require.Len(t, second, 4)
	assert.Equal(t, "tool", second[3].Role)
}

func TestBaseFlow_SkipSummarizationEndsTurn(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(model.ToolCallResponse(core.FunctionCall{ID: "fc1", Name: "final", Arguments: `{}`}))

	agent := newTestAgent("assistant", llm)
	agent.tools = []tool.Tool{&mockTool{name: "final", result: "ok", skip: true}}

	rc, emit := newTestRunContext(t.Context(), "assistant", "go")
	require.NoError(t, SelectFlow(agent).Execute(rc))

	assert.Len(t, drainEvents(emit), 2)
	assert.Len(t, llm.Requests(), 1)
}

func TestMultiAgentFlow_Transfer(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(model.ToolCallResponse(core.FunctionCall{ID: "fc1", Name: tool.TransferToAgentName, Arguments: `{"agent":"billing"}`}))

	billing := &stubAgent{name: "billing", reply: "Your invoice is paid."}
	agent := newTestAgent("router", llm)
	agent.targets = []core.Agent{billing}

	rc, emit := newTestRunContext(t.Context(), "router", "invoice?")
	require.NoError(t, SelectFlow(agent).Execute(rc))

	assert.True(t, billing.ran)

	events := drainEvents(emit)
	require.Len(t, events, 3)
	assert.Equal(t, "billing", *events[1].Actions.TransferToAgent)
	assert.Equal(t, "billing", events[2].Author)
	assert.Equal(t, "Your invoice is paid.", core.FinalText(events, ""))

	req := llm.Requests()[0]
	assert.Contains(t, req.Instructions, "- billing: stub billing")
	require.Len(t, req.Tools, 1)
	assert.Equal(t, tool.TransferToAgentName, req.Tools[0].Function.Name)
}

func TestBaseFlow_ModelCallLimit(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.Enqueue(
		model.ToolCallResponse(core.FunctionCall{ID: "fc1", Name: "t1", Arguments: `{}`}),
		model.ToolCallResponse(core.FunctionCall{ID: "fc2", Name: "t1", Arguments: `{}`}),
	)

	agent := newTestAgent("assistant", llm)
	agent.tools = []tool.Tool{&mockTool{name: "t1", result: "r"}}

	emit := make(chan core.Event, 64)
	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{Name: "assistant"}, core.NewTextContent("user", "go"), emit, nil, core.RunContextOptions{MaxModelCalls: 1})

	err := SelectFlow(agent).Execute(rc)
	require.ErrorIs(t, err, core.ErrModelCallLimit)

	events := drainEvents(emit)
	last := events[len(events)-1]
	require.True(t, last.IsError())
	assert.Equal(t, ErrorCodeLimit, *last.ErrorCode)
}

func TestBaseFlow_ModelError(t *testing.T) {
	agent := newTestAgent("assistant", model.NewMockModel("mock"))

	emit := make(chan core.Event, 8)
	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{Name: "assistant"}, core.Content{}, emit, nil, core.RunContextOptions{})

	require.Error(t, SelectFlow(agent).Execute(rc))

	events := drainEvents(emit)
	require.Len(t, events, 1)
	assert.Equal(t, ErrorCodeModel, *events[0].ErrorCode)
}

func TestBaseFlow_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agent := newTestAgent("assistant", model.NewMockModel("mock"))
	rc, _ := newTestRunContext(ctx, "assistant", "hi")

	assert.ErrorIs(t, SelectFlow(agent).Execute(rc), context.Canceled)
}
