// Package agents defines the agents, teams and workflows shared by the
// example programs, the playground and the command line tools.
package agents

import (
	"github.com/yuribarsotti/agentlab/agent"
	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/knowledge"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
	"github.com/yuribarsotti/agentlab/toolkit/finance"
	"github.com/yuribarsotti/agentlab/toolkit/reasoning"
)

// NewStockPriceAgent answers stock price questions with a table only.
func NewStockPriceAgent(llm model.Model, client *finance.Client) *agent.ModelAgent {
	return agent.NewModelAgent("stock_price_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = finance.NewTools(func(fo *finance.Options) {
			fo.StockPrice = true
			fo.Client = client
		})
		o.Instructions = []string{"Use tables to display data. Don't include any other text."}
		o.Markdown = true
	})
}

// NewKnowledgeAgent is "Agno Assist": it searches the knowledge base before
// answering and replays the last three runs.
func NewKnowledgeAgent(llm model.Model, kb *knowledge.Knowledge) *agent.ModelAgent {
	return agent.NewModelAgent("Agno Assist", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = []tool.Tool{knowledge.NewSearchTool(kb)}
		o.Instructions = []string{
			"Search your knowledge before answering the question.",
			"Only include the output in your response. No other text.",
		}
		o.AddDatetime = true
		o.HistoryRuns = 3
		o.Markdown = true
	})
}

// NewWebSearchAgent handles research through search.
func NewWebSearchAgent(llm model.Model, search tool.Tool) *agent.ModelAgent {
	return agent.NewModelAgent("Web Search Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Role = "Handle web search requests, general research and web scrapping."
		o.Tools = []tool.Tool{search}
		o.Instructions = []string{"Always include sources"}
		o.AddDatetime = true
	})
}

// NewFinanceAgent handles market data and analysis.
func NewFinanceAgent(llm model.Model, client *finance.Client) *agent.ModelAgent {
	return agent.NewModelAgent("Finance Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Role = "Handle financial data requests and market analysis"
		o.Tools = finance.NewTools(func(fo *finance.Options) {
			fo.StockPrice = true
			fo.StockFundamentals = true
			fo.AnalystRecommendations = true
			fo.CompanyInfo = true
			fo.Client = client
		})
		o.Instructions = []string{
			"Use tables to display stock prices, fundamentals (P/E, Market Cap), and recommendations.",
			"Clearly state the company name and ticker symbol.",
			"Focus on delivering actionable financial insights.",
		}
		o.AddDatetime = true
	})
}

// NewReasoningFinanceTeam coordinates the web search and finance agents with
// reasoning tools and shared context.
func NewReasoningFinanceTeam(llm model.Model, search tool.Tool, client *finance.Client) (*agent.Team, error) {
	members := []core.Agent{
		NewWebSearchAgent(llm, search),
		NewFinanceAgent(llm, client),
	}

	return agent.NewTeam("Reasoning Finance Team", llm, members, func(o *agent.TeamOptions) {
		o.Mode = agent.TeamModeCoordinate
		o.Tools = reasoning.NewTools()
		o.Instructions = []string{
			"Collaborate to provide comprehensive financial and investment insights",
			"Consider both fundamental analysis and market sentiment",
			"Use tables and charts to display data clearly and professionally",
			"Present findings in a structured, easy-to-follow format",
			"Only output the final consolidated analysis, not individual agent responses",
			reasoning.Instructions,
		}
		o.Markdown = true
		o.ShowMembersResponses = true
		o.EnableAgenticContext = true
		o.AddDatetime = true
		o.SuccessCriteria = "The team has provided a complete financial analysis with data, visualizations, risk assessment, " +
			"and actionable investment recommendations supported by quantitative analysis and market research."
	})
}

// NewCacheWorkflow answers with a plain model agent and caches answers per
// message in session state.
func NewCacheWorkflow(llm model.Model) *agent.Workflow {
	return agent.NewCacheWorkflow("cache_workflow", agent.NewModelAgent("assistant", llm))
}
