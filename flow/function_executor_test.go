package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

func TestParallelFunctionExecutor_OrderAndErrors(t *testing.T) {
	rc, emit := newTestRunContext(t.Context(), "agent", "msg")

	tools := []tool.Tool{
		&mockTool{name: "slow", delay: 30 * time.Millisecond, result: "slow"},
		&mockTool{name: "fast", result: "fast"},
		&mockTool{name: "fails", err: errBoom},
		&mockTool{name: "panics", panicMsg: "kaboom"},
	}

	calls := []core.FunctionCall{
		{ID: "1", Name: "slow"},
		{ID: "2", Name: "fast"},
		{ID: "3", Name: "fails"},
		{ID: "4", Name: "panics"},
		{ID: "5", Name: "missing"},
		{ID: "6", Name: "fast", Arguments: "{not json"},
	}

	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2, LogStartEvents: true})
	out := exec.Execute(rc, "agent", tools, calls)
	require.Len(t, out, len(calls))

	for i, ev := range out {
		frs := ev.GetFunctionResponses()
		require.Len(t, frs, 1)
		assert.Equal(t, calls[i].ID, frs[0].ID)
	}

	assert.Equal(t, "slow", out[0].GetFunctionResponses()[0].Response)
	assert.Empty(t, out[1].GetFunctionResponses()[0].Error)
	assert.Equal(t, "boom", out[2].GetFunctionResponses()[0].Error)
	assert.Contains(t, out[3].GetFunctionResponses()[0].Error, "panic recovered")
	assert.Contains(t, out[4].GetFunctionResponses()[0].Error, tool.CodeNotFound)
	assert.Contains(t, out[5].GetFunctionResponses()[0].Error, tool.CodeValidation)

	assert.Len(t, drainEvents(emit), len(calls))
}

func TestParallelFunctionExecutor_ActionsApplied(t *testing.T) {
	rc, _ := newTestRunContext(t.Context(), "agent", "msg")

	tools := []tool.Tool{&mockTool{name: "t", actionState: map[string]any{"k": "v"}, transferTo: "next"}}
	out := NewParallelFunctionExecutor(FunctionExecutorConfig{}).Execute(rc, "agent", tools, []core.FunctionCall{{ID: "x", Name: "t"}})

	require.Len(t, out, 1)
	assert.Equal(t, "v", out[0].Actions.StateDelta["k"])
	assert.Equal(t, "next", *out[0].Actions.TransferToAgent)

	v, _ := rc.Session.GetState("k")
	assert.Equal(t, "v", v)
}
