package agentlab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/agent"
	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
)

func TestApp_Prompt(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.AddResponse("What is 2+2?", "4")

	app := New(agent.NewModelAgent("calc", llm))

	answer, err := app.Prompt(t.Context(), "s1", "ana", "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", answer)

	sess, err := app.SessionStore().Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "ana", sess.UserID)
	assert.Len(t, sess.Events, 2)
}

func TestApp_PromptNoAnswer(t *testing.T) {
	silent := agent.NewWorkflow("silent", func(*core.RunContext, *agent.Workflow) error { return nil })

	_, err := New(silent).Prompt(t.Context(), "s1", "", "hello")
	require.ErrorIs(t, err, ErrNoAnswer)
}

func TestApp_WorkflowStateCommitted(t *testing.T) {
	counter := agent.NewWorkflow("counter", func(rc *core.RunContext, _ *agent.Workflow) error {
		n, _ := rc.GetState("count")
		c, _ := n.(int)
		rc.SetState("count", c+1)

		return nil
	})

	app := New(counter)

	for range 2 {
		_, _, err := app.InvokeSync(t.Context(), "s1", "", core.NewTextContent("user", "tick"))
		require.NoError(t, err)
	}

	sess, err := app.SessionStore().Get("s1")
	require.NoError(t, err)

	v, ok := sess.GetState("count")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	for _, ev := range sess.Events {
		assert.NotEqual(t, "counter", ev.Author)
	}
}

func TestApp_InvokeSyncPropagatesErrors(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue(model.ToolCallResponse(core.FunctionCall{ID: "1", Name: "missing", Arguments: "{}"}))

	app := New(agent.NewModelAgent("a", llm), func(o *Options) { o.MaxModelCalls = 1 })

	_, events, err := app.InvokeSync(t.Context(), "s1", "", core.NewTextContent("user", "go"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelCallLimit)
	assert.NotEmpty(t, events)
}
