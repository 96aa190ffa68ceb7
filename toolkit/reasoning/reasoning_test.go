package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

func TestThinkThenAnalyze(t *testing.T) {
	sess := core.NewSession("s")
	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{Name: "team"}, core.Content{}, nil, sess, core.RunContextOptions{})

	tools := NewTools()

	tc := core.NewToolContext(rc, "c1")
	out, err := tool.Find(tools, ThinkTool).Call(tc, map[string]any{
		"title":   "Plan",
		"thought": "Fetch prices for AAPL and MSFT",
		"action":  "call get_current_stock_price",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1:\nTitle: Plan")
	assert.Contains(t, out, "Confidence: 0.80")

	// Persist the first step the way the flow does for tool responses.
	sess.ApplyStateDelta(tc.Actions().StateDelta)

	tc2 := core.NewToolContext(rc, "c2")
	out, err = tool.Find(tools, AnalyzeTool).Call(tc2, map[string]any{
		"title":      "Prices",
		"result":     "AAPL 189, MSFT 410",
		"analysis":   "Both fetched",
		"confidence": 0.9,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Step 2:\nTitle: Prices")
	assert.Contains(t, out, "Next Action: continue")

	steps := Steps(tc2.State())
	require.Len(t, steps, 2)
	assert.Equal(t, "Both fetched", steps[1].Reasoning)
	assert.InDelta(t, 0.9, steps[1].Confidence, 1e-9)
}

func TestAnalyze_RejectsUnknownNextAction(t *testing.T) {
	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{Name: "a"}, core.Content{}, nil, nil, core.RunContextOptions{})

	_, err := tool.Find(NewTools(), AnalyzeTool).Call(core.NewToolContext(rc, "c"), map[string]any{
		"title": "x", "result": "y", "analysis": "z", "next_action": "give_up",
	})
	require.Error(t, err)
}

func TestSteps_DecodesPersistedMaps(t *testing.T) {
	state := map[string]any{StepsKey: []any{
		map[string]any{"title": "t", "reasoning": "r", "confidence": 0.5},
	}}

	steps := Steps(state)
	require.Len(t, steps, 1)
	assert.Equal(t, Step{Title: "t", Reasoning: "r", Confidence: 0.5}, steps[0])
}
