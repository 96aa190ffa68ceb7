package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContext_EmitEventMergesState(t *testing.T) {
	rc, emitCh := newRunContextForTest()
	rc.SetState("foo", "bar")

	require.NoError(t, rc.EmitEvent(NewMessageEvent("", "hello")))

	received := <-emitCh
	assert.Equal(t, "bar", received.Actions.StateDelta["foo"])
	assert.Equal(t, "Agent1", received.Author)
	assert.Equal(t, "run-x", received.InvocationID)
	assert.Empty(t, rc.StateDelta)

	v, ok := rc.Session.GetState("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
	assert.Len(t, rc.Session.GetEvents(), 1)
}

func TestRunContext_PartialEventsNotRecorded(t *testing.T) {
	rc, emitCh := newRunContextForTest()

	partial := true
	ev := NewMessageEvent("", "hel")
	ev.Partial = &partial

	require.NoError(t, rc.EmitEvent(ev))
	<-emitCh

	assert.Empty(t, rc.Session.GetEvents())
}

func TestRunContext_EmitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := NewRunContext(ctx, "s", "r", AgentInfo{Name: "a"}, Content{}, make(chan Event), nil, RunContextOptions{})

	assert.ErrorIs(t, rc.EmitEvent(NewMessageEvent("a", "x")), context.Canceled)
}

func TestRunContext_CommitStateDelta(t *testing.T) {
	rc, _ := newRunContextForTest()
	store := rc.SessionStore.(*mockSessionStore)

	rc.SetState("k1", 123)
	require.NoError(t, rc.CommitStateDelta())

	assert.Equal(t, 123, store.applied[rc.SessionID]["k1"])
	assert.Empty(t, rc.StateDelta)
}

func TestRunContext_StateOverlay(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.Session.SetState("a", 1)
	rc.Session.SetState("b", 2)
	rc.SetState("b", 3)
	rc.SetState("a", nil)

	state := rc.State()
	assert.Equal(t, map[string]any{"b": 3}, state)

	_, ok := rc.GetState("a")
	assert.False(t, ok)
}

func TestRunContext_CloneIsolation(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.SetState("a", 1)

	clone := rc.Clone()
	assert.Same(t, rc.Session, clone.Session)

	clone.SetState("b", 2)
	_, exists := rc.StateDelta["b"]
	assert.False(t, exists)

	v, _ := clone.GetState("a")
	assert.Equal(t, 1, v)
}

func TestRunContext_WithBranchAndChild(t *testing.T) {
	rc, _ := newRunContextForTest()

	branched := rc.WithBranch("Root.Child")
	assert.Equal(t, "Root.Child", branched.Branch)
	assert.Empty(t, rc.Branch)

	childEmit := make(chan Event, 1)
	child := branched.NewChildContext(childEmit, nil, "")
	assert.Equal(t, "Root.Child", child.Branch)

	require.NoError(t, child.EmitEvent(NewMessageEvent("", "from child")))

	ev := <-childEmit
	assert.Equal(t, "Root.Child", ev.BranchName())
}

func TestRunContext_Memory(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.UserID = "u1"

	require.NoError(t, rc.StoreMemory("likes tea", nil))

	res, err := rc.SearchMemory("tea", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "likes tea", res[0].Content)

	rc.MemoryStore = nil
	assert.ErrorIs(t, rc.StoreMemory("x", nil), ErrNotConfigured)
}

func TestRunContext_WaitForResumeWithoutChannel(t *testing.T) {
	rc, _ := newRunContextForTest()
	assert.NoError(t, rc.WaitForResume())
}

func TestToolContext_StateAndActions(t *testing.T) {
	rc, _ := newRunContextForTest()
	rc.Session.SetState("city", "Lisbon")

	tc := NewToolContext(rc, "call-1")
	tc.SetState("count", 2)
	tc.TransferToAgent("Finance Agent")
	tc.Escalate()

	v, ok := tc.GetState("count")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, map[string]any{"city": "Lisbon", "count": 2}, tc.State())

	ev := NewFunctionResponseEvent("Agent1", "call-1", "f", "ok", nil)
	tc.InternalApplyActions(&ev)

	assert.Equal(t, 2, ev.Actions.StateDelta["count"])
	require.NotNil(t, ev.Actions.TransferToAgent)
	assert.Equal(t, "Finance Agent", *ev.Actions.TransferToAgent)
	require.NotNil(t, ev.Actions.Escalate)
	assert.True(t, *ev.Actions.Escalate)
}

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(1)
	require.NoError(t, l.Increment())
	assert.ErrorIs(t, l.Increment(), ErrModelCallLimit)
	assert.Equal(t, 2, l.Count())

	assert.Equal(t, -1, NewModelLimiter(0).Remaining())
}
