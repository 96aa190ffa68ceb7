package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
)

func TestBuildSystemPrompt(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	got := BuildSystemPrompt(Prompt{
		Description:       "You are a finance agent.",
		Role:              "Analyst",
		Instructions:      []string{"Use tables", "Be brief"},
		AdditionalContext: "<context>extra</context>",
		ExpectedOutput:    "A report",
		SuccessCriteria:   "numbers are cited",
		Markdown:          true,
		AddDatetime:       true,
		Now:               func() time.Time { return fixed },
	})

	want := "You are a finance agent.\n\n" +
		"<your_role>\nAnalyst\n</your_role>\n\n" +
		"<instructions>\n- Use tables\n- Be brief\n</instructions>\n\n" +
		"<additional_information>\n- Use markdown to format your answers.\n- The current time is 2025-03-01 09:30:00.\n</additional_information>\n\n" +
		"<expected_output>\nA report\n</expected_output>\n\n" +
		"<success_criteria>\nThe task is considered successful if: numbers are cited\n</success_criteria>\n\n" +
		"<context>extra</context>"
	assert.Equal(t, want, got)

	assert.Equal(t, "<instructions>\nOnly one\n</instructions>", BuildSystemPrompt(Prompt{Instructions: []string{"Only one"}}))
}

func TestInstructionsProcessor_RendersState(t *testing.T) {
	agent := newTestAgent("clinic", nil)
	agent.prompt = Prompt{
		Instructions:      []string{"Patient: {name}, age {{.age}}. Unknown: {missing}"},
		AdditionalContext: "<context>You are interacting with the user: {user_id}</context>",
	}

	rc, _ := newTestRunContext(t.Context(), "clinic", "hi")
	rc.Session.SetState("name", "Ana")
	rc.SetState("age", 31)

	req := &Request{}
	require.NoError(t, NewInstructionsProcessor().ProcessRequest(rc, req, agent))

	assert.Contains(t, req.Instructions, "Patient: Ana, age 31. Unknown: {missing}")
	assert.Contains(t, req.Instructions, "You are interacting with the user: u1")
}

func TestContentsProcessor_OtherAgentsAndSanitize(t *testing.T) {
	rc, _ := newTestRunContext(t.Context(), "member", "plan a trip")

	leaderCall := core.NewFunctionCallEvent("leader", core.FunctionCall{ID: "c1", Name: "transfer_task_to_member", Arguments: `{"member":"member"}`})
	leaderCall.InvocationID = "run-1"
	rc.Session.AddEvent(leaderCall)

	dangling := core.NewFunctionCallEvent("member", core.FunctionCall{ID: "c2", Name: "lookup"})
	dangling.InvocationID = "run-1"
	rc.Session.AddEvent(dangling)

	agent := newTestAgent("member", nil)
	req := &Request{}
	require.NoError(t, NewContentsProcessor().ProcessRequest(rc, req, agent))

	require.Len(t, req.Contents, 2)
	assert.Equal(t, "plan a trip", req.Contents[0].Text())
	assert.Equal(t, "user", req.Contents[1].Role)
	assert.Contains(t, req.Contents[1].Text(), "[leader] called tool `transfer_task_to_member`")
}

func TestContentsProcessor_AppendsTaskForChildRun(t *testing.T) {
	rc, _ := newTestRunContext(t.Context(), "member", "original")
	child := rc.NewChildContext(make(chan core.Event, 1), nil, "team.member")
	child.RunID = "run-1/member"
	child.UserContent = core.NewTextContent("user", "delegated task")

	req := &Request{}
	require.NoError(t, NewContentsProcessor().ProcessRequest(child, req, newTestAgent("member", nil)))

	require.NotEmpty(t, req.Contents)
	assert.Equal(t, "delegated task", req.Contents[len(req.Contents)-1].Text())
}

func TestLimitRuns(t *testing.T) {
	var events []core.Event

	for _, id := range []string{"r1", "r1", "r2", "r3", "r3", "r4"} {
		ev := core.NewMessageEvent("a", id)
		ev.InvocationID = id
		events = append(events, ev)
	}

	assert.Len(t, LimitRuns(events, "r4", -1), 6)
	assert.Len(t, LimitRuns(events, "r4", 0), 1)
	assert.Len(t, LimitRuns(events, "r4", 1), 3)
	assert.Len(t, LimitRuns(events, "r4", 2), 4)
}

func TestTransferToolInjector_NoDuplicates(t *testing.T) {
	agent := newTestAgent("root", model.NewMockModel("m"))
	agent.targets = []core.Agent{&stubAgent{name: "child"}}

	rc, _ := newTestRunContext(t.Context(), "root", "hi")
	req := &Request{}

	inj := NewTransferToolInjector()
	require.NoError(t, inj.ProcessRequest(rc, req, agent))
	require.NoError(t, inj.ProcessRequest(rc, req, agent))

	require.Len(t, req.Tools, 1)
	assert.Equal(t, []string{"child"}, req.Tools[0].Function.Parameters["properties"].(map[string]any)["agent"].(map[string]any)["enum"])
}
