package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/testutil"
	"github.com/yuribarsotti/agentlab/model"
)

func TestBaseAgent_Hierarchy(t *testing.T) {
	root := NewModelAgent("root", model.NewMockModel("m"))
	child := NewModelAgent("child", model.NewMockModel("m"))
	grandchild := NewModelAgent("grandchild", model.NewMockModel("m"))

	require.NoError(t, child.SetSubAgents(grandchild))
	require.NoError(t, root.SetSubAgents(child))

	assert.Equal(t, core.Agent(root), child.Parent())
	assert.Equal(t, core.Agent(grandchild), root.FindAgent("grandchild"))
	assert.Equal(t, core.Agent(root), root.FindAgent("root"))
	assert.Nil(t, root.FindAgent("missing"))

	other := NewModelAgent("other", model.NewMockModel("m"))
	assert.Error(t, other.SetSubAgents(child))

	require.NoError(t, root.SetSubAgents())
	assert.Nil(t, child.Parent())
}

func TestBaseAgent_Lifecycle(t *testing.T) {
	a := NewModelAgent("a", model.NewMockModel("m"))
	rc := testutil.NewRunContext(t.Context(), a, nil, "hi", make(chan core.Event, 1))

	require.NoError(t, a.Start(rc))
	require.NoError(t, a.Start(rc))
	assert.True(t, a.Running())
	require.NoError(t, a.Stop(rc))
	require.NoError(t, a.Stop(rc))
	assert.False(t, a.Running())
	assert.Error(t, a.Stop(rc))
}

func TestBuildBranchPath(t *testing.T) {
	assert.Equal(t, "a", buildBranchPath("", "a"))
	assert.Equal(t, "p.a", buildBranchPath("p", "a"))
	assert.Equal(t, "p", buildBranchPath("p", ""))
}

func TestInstruction(t *testing.T) {
	static := NewInstructionFromText("be nice")
	assert.True(t, static.IsStatic())

	dynamic := NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		v, _ := rc.GetState("tone")
		return "be " + v.(string), nil
	})
	assert.False(t, dynamic.IsStatic())

	sess := testutil.NewSessionBuilder("s").State("tone", "brief").Build()
	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{}, core.Content{}, nil, sess, core.RunContextOptions{})

	text, err := dynamic.Resolve(rc)
	require.NoError(t, err)
	assert.Equal(t, "be brief", text)
	assert.True(t, Instruction{}.IsZero())
}
