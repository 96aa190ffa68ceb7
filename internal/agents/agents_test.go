package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/agent"
	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/testutil"
	"github.com/yuribarsotti/agentlab/knowledge"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/session"
	"github.com/yuribarsotti/agentlab/toolkit/finance"
	"github.com/yuribarsotti/agentlab/toolkit/reasoning"
	"github.com/yuribarsotti/agentlab/toolkit/websearch"
)

func names[T interface{ Name() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name())
	}

	return out
}

func TestClinicAgent_CollectsUserInfo(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.Enqueue(
		model.ToolCallResponse(core.FunctionCall{
			ID:        "c1",
			Name:      CollectUserInfoTool,
			Arguments: `{"name":"Ana Souza","cpf":"123.456.789-00","phone":"+55 11 99999-0000"}`,
		}),
		model.TextResponse("Thanks Ana, how can I help?"),
	)

	sess, err := NewClinicSession(session.NewInMemoryStore(), "clinic-1", "user-1")
	require.NoError(t, err)

	name, _ := sess.GetState("user_name")
	assert.Equal(t, "", name)

	res := testutil.Run(t.Context(), NewClinicAgent(llm), sess, "Hi, I am Ana")
	require.NoError(t, res.Err)
	assert.Equal(t, "Thanks Ana, how can I help?", res.Final())

	state := res.Session.StateSnapshot()
	assert.Equal(t, "Ana Souza", state["user_name"])
	assert.Equal(t, "123.456.789-00", state["user_cpf"])
	assert.Equal(t, "+55 11 99999-0000", state["user_phone"])
	assert.Equal(t, "collected", state["conversation_stage"])

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Instructions, "Current user info: , , ")
	assert.Contains(t, reqs[1].Instructions, "Current user info: Ana Souza, 123.456.789-00, +55 11 99999-0000")
}

func TestFinanceAgents_Tools(t *testing.T) {
	llm := model.NewMockModel("m")
	client := finance.NewClient()

	assert.Equal(t, []string{finance.StockPriceTool}, names(NewStockPriceAgent(llm, client).Tools()))
	assert.ElementsMatch(t, []string{
		finance.StockPriceTool,
		finance.StockFundamentalsTool,
		finance.AnalystRecommendationsTool,
		finance.CompanyInfoTool,
	}, names(NewFinanceAgent(llm, client).Tools()))
	assert.ElementsMatch(t, []string{
		finance.StockPriceTool,
		finance.AnalystRecommendationsTool,
		finance.CompanyInfoTool,
		finance.CompanyNewsTool,
	}, names(NewPlaygroundFinanceAgent(llm, client).Tools()))

	kb, err := knowledge.New(knowledge.NewInMemoryStore(), knowledge.NewHashEmbedder(32))
	require.NoError(t, err)

	assert.Equal(t, "Agno Assist", NewKnowledgeAgent(llm, kb).Name())
}

func TestReasoningFinanceTeam(t *testing.T) {
	llm := model.NewMockModel("m")

	team, err := NewReasoningFinanceTeam(llm, websearch.NewDuckDuckGo().Tool(), finance.NewClient())
	require.NoError(t, err)

	assert.Equal(t, agent.TeamModeCoordinate, team.Mode())
	assert.Equal(t, []string{"Web Search Agent", "Finance Agent"}, names(team.Members()))
	assert.Contains(t, names(team.Tools()), reasoning.ThinkTool)
	assert.Contains(t, names(team.Tools()), reasoning.AnalyzeTool)
}

func TestTripPlannerTeam(t *testing.T) {
	llm := model.NewMockModel("m")

	team, err := NewTripPlannerTeam(llm, websearch.NewDuckDuckGo().Tool())
	require.NoError(t, err)

	assert.Equal(t, agent.TeamModeCoordinate, team.Mode())
	assert.Equal(t, []string{
		"Destination Researcher",
		"Accommodation Specialist",
		"Itinerary Planner",
		"Budget Advisor",
	}, names(team.Members()))

	budget, ok := team.Members()[3].(*agent.ModelAgent)
	require.True(t, ok)
	assert.Equal(t, "Provide cost estimates and budget planning", budget.Role())
}

func TestTripAdvisor_UserContext(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.AddResponse("Where should I go in May?", "Try Lisbon.")

	sess := testutil.NewSessionBuilder("trip").User("ana").Build()

	res := testutil.Run(t.Context(), NewTripAdvisor(llm, websearch.NewDuckDuckGo().Tool()), sess, "Where should I go in May?")
	require.NoError(t, res.Err)
	assert.Equal(t, "Try Lisbon.", res.Final())

	instr := llm.Requests()[0].Instructions
	assert.Contains(t, instr, "You are Trip Advisor")
	assert.Contains(t, instr, "<context>You are interacting with the user: ana</context>")
}

func TestCacheWorkflow(t *testing.T) {
	llm := model.NewMockModel("m")
	llm.AddResponse("tell me a joke", "Why did the gopher cross the road?")

	wf := NewCacheWorkflow(llm)
	sess := core.NewSession("cache")

	first := testutil.Run(t.Context(), wf, sess, "tell me a joke")
	require.NoError(t, first.Err)

	second := testutil.Run(t.Context(), wf, sess, "tell me a joke")
	require.NoError(t, second.Err)
	assert.Contains(t, second.Texts(), "Why did the gopher cross the road?")

	assert.Len(t, llm.Requests(), 1)
}

func TestClinicAgent_Tools(t *testing.T) {
	assert.Equal(t, []string{CollectUserInfoTool, "state_manager"}, names(NewClinicAgent(model.NewMockModel("m")).Tools()))
}
