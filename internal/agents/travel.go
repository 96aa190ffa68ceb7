package agents

import (
	"strings"

	"github.com/yuribarsotti/agentlab/agent"
	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
	"github.com/yuribarsotti/agentlab/toolkit/finance"
)

// NewPlaygroundWebAgent is the playground's search agent.
func NewPlaygroundWebAgent(llm model.Model, search tool.Tool) *agent.ModelAgent {
	return agent.NewModelAgent("Web Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = []tool.Tool{search}
		o.Instructions = []string{"Always include sources"}
		o.AddDatetime = true
		o.HistoryRuns = 5
		o.Markdown = true
	})
}

// NewPlaygroundFinanceAgent is the playground's market data agent.
func NewPlaygroundFinanceAgent(llm model.Model, client *finance.Client) *agent.ModelAgent {
	return agent.NewModelAgent("Finance Agent", llm, func(o *agent.ModelAgentOptions) {
		o.Tools = finance.NewTools(func(fo *finance.Options) {
			fo.StockPrice = true
			fo.AnalystRecommendations = true
			fo.CompanyInfo = true
			fo.CompanyNews = true
			fo.Client = client
		})
		o.Instructions = []string{"Always use tables to display data"}
		o.AddDatetime = true
		o.HistoryRuns = 5
		o.Markdown = true
	})
}

const tripAdvisorDescription = `You are Trip Advisor, a professional travel consultant and destination expert with extensive knowledge of global travel.
You specialize in providing personalized travel recommendations, itinerary planning, and comprehensive destination guides.
You have access to real-time web search capabilities to provide current travel information, prices, and recommendations.

Your expertise includes:
• Destination recommendations based on user preferences and budget
• Detailed itinerary planning with activities, accommodations, and transportation
• Cultural insights and local customs for destinations
• Travel tips, safety information, and practical advice
• Restaurant and attraction recommendations
• Budget planning and cost estimates
• Weather and seasonal travel considerations`

const tripAdvisorInstructions = `Follow these steps to provide comprehensive travel assistance:

1. Understand the Travel Request
- Carefully analyze the user's travel query to identify their needs (destination info, itinerary planning, recommendations, etc.)
- Identify key details: budget, travel dates, group size, interests, accommodation preferences
- Ask clarifying questions if essential information is missing

2. Research Current Information
- Use ` + "`duckduckgo_search`" + ` to find up-to-date travel information including:
    • Current travel restrictions, visa requirements, and safety advisories
    • Weather conditions and seasonal considerations
    • Top attractions, restaurants, and activities
    • Transportation options and costs
    • Accommodation recommendations and pricing
    • Local customs, culture, and etiquette
    • Recent traveler reviews and experiences

3. Provide Comprehensive Travel Advice
- **Start** with a clear, direct answer addressing the main travel question
- **Structure your response** with organized sections:
    • Overview of the destination/recommendation
    • Detailed itinerary or activity suggestions
    • Practical information (costs, transportation, timing)
    • Insider tips and local insights
    • Safety and cultural considerations
- Include specific recommendations with explanations
- Provide realistic budget estimates when relevant
- Mention seasonal considerations and best times to visit

4. Enhanced Travel Planning
- Create detailed day-by-day itineraries when requested
- Suggest alternatives for different budgets and interests
- Include backup plans for weather-dependent activities
- Recommend booking platforms and reservation tips
- Provide packing suggestions based on destination and season

5. Engage and Follow Up
- Ask if they need help with specific aspects (accommodations, activities, transportation)
- Suggest related destinations or experiences they might enjoy
- Offer to create detailed itineraries or research specific attractions

6. Quality Assurance
- Ensure all recommendations are current and accurate
- Include sources for important information (travel advisories, costs, etc.)
- Verify opening hours, seasons, and availability when possible
- Provide multiple options to suit different preferences and budgets

Always prioritize traveler safety and provide accurate, up-to-date information. Be enthusiastic about travel while being realistic about costs and logistics.`

// UserContext names the current user. The placeholder is filled from the
// run's user id when the prompt is rendered.
const UserContext = "<context>You are interacting with the user: {user_id}</context>"

// NewTripAdvisor is the single agent travel consultant.
func NewTripAdvisor(llm model.Model, search tool.Tool) *agent.ModelAgent {
	return agent.NewModelAgent("Trip Advisor", llm, func(o *agent.ModelAgentOptions) {
		o.Description = tripAdvisorDescription
		o.Instruction = agent.NewInstructionFromText(tripAdvisorInstructions)
		o.AdditionalContext = UserContext
		o.Tools = []tool.Tool{search}
		o.Markdown = true
		o.AddDatetime = true
		o.HistoryRuns = 3
	})
}

type specialist struct {
	name, role, intro string
	areas             []string
	style             []string
}

var tripSpecialists = []specialist{
	{
		name:  "Destination Researcher",
		role:  "Research destinations and attractions",
		intro: "You are a destination research specialist with extensive knowledge of global travel destinations! 🌍",
		areas: []string{
			"Destination Overview: climate and weather patterns, best times to visit, cultural highlights, language tips",
			"Attractions & Activities: must-see landmarks, hidden gems, activities by interest, seasonal events",
			"Safety & Practical Information: travel advisories, visa requirements, health recommendations, local transportation",
			"Cultural Insights: customs and etiquette, tipping practices, religious considerations, local festivals",
		},
		style: []string{
			"Always search for current, up-to-date information",
			"Provide detailed but organized information",
			"Highlight unique experiences and authentic local activities",
			"Consider different travel styles (budget, luxury, adventure, family)",
		},
	},
	{
		name:  "Accommodation Specialist",
		role:  "Find and recommend accommodations",
		intro: "You are an accommodation specialist with expertise in finding the perfect places to stay! 🏨",
		areas: []string{
			"Accommodation Types: hotels, vacation rentals, hostels, unique stays",
			"Location Analysis: proximity to attractions, neighborhood safety, amenities, walkability",
			"Booking Intelligence: best platforms and deals, booking timing, cancellation policies, loyalty programs",
			"Personalized Recommendations: budget, family, business, romantic and adventure stays",
		},
		style: []string{
			"Research current availability and pricing",
			"Compare multiple options across different platforms",
			"Consider location advantages and disadvantages",
			"Provide backup options for different budgets",
		},
	},
	{
		name:  "Itinerary Planner",
		role:  "Create detailed day-by-day itineraries",
		intro: "You are a master itinerary planner who creates perfectly balanced travel schedules! 📅",
		areas: []string{
			"Day-by-Day Scheduling: activity sequencing, geographic clustering, rest, weather backups",
			"Transportation Coordination: local options and costs, inter-city travel, airport transfers",
			"Time Management: realistic time allocations, queue times, meal breaks, leisure time",
			"Personalization: family activities, accessibility, interests, dietary restrictions",
			"Practical Considerations: opening hours, advance booking, local holidays, budget distribution",
		},
		style: []string{
			"Create detailed hour-by-hour schedules when needed",
			"Include alternative options for different weather",
			"Provide realistic time estimates and distances",
			"Build in flexibility for spontaneous discoveries",
		},
	},
	{
		name:  "Budget Advisor",
		role:  "Provide cost estimates and budget planning",
		intro: "You are a travel budget advisor who helps travelers make the most of their money! 💰",
		areas: []string{
			"Cost Breakdown Analysis: accommodation, transportation, food, activities, shopping",
			"Money-Saving Strategies: booking timing, free activities, public transport, city passes",
			"Budget Optimization: splurge vs. save, value accommodations, budget allocation, emergency funds",
			"Regional Cost Intelligence: exchange rates, tipping, bargaining, ATM fees, tourist taxes",
		},
		style: []string{
			"Research current pricing and exchange rates",
			"Provide multiple budget tiers (budget/mid-range/luxury)",
			"Include hidden costs and unexpected expenses",
			"Balance cost savings with experience quality",
		},
	},
}

func (s specialist) instructions() string {
	var b strings.Builder

	b.WriteString(s.intro)
	b.WriteString("\n\nYour expertise includes:\n")

	for _, a := range s.areas {
		b.WriteString("- " + a + "\n")
	}

	b.WriteString("\nStyle:\n")

	for _, st := range s.style {
		b.WriteString("- " + st + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// NewTripPlannerTeam coordinates the four travel specialists.
func NewTripPlannerTeam(llm model.Model, search tool.Tool) (*agent.Team, error) {
	members := make([]core.Agent, 0, len(tripSpecialists))

	for _, s := range tripSpecialists {
		members = append(members, agent.NewModelAgent(s.name, llm, func(o *agent.ModelAgentOptions) {
			o.Role = s.role
			o.Instruction = agent.NewInstructionFromText(s.instructions())
			o.Tools = []tool.Tool{search}
			o.HistoryRuns = 3
			o.AddDatetime = true
			o.Markdown = true
		}))
	}

	return agent.NewTeam("Trip Planner Team", llm, members, func(o *agent.TeamOptions) {
		o.Mode = agent.TeamModeCoordinate
		o.Description = "A professional team of travel specialists working together to create comprehensive trip plans."
		o.Instructions = []string{
			"You are the lead coordinator of a professional trip planning team!",
			"For comprehensive trip planning requests:",
			"1. First, have the Destination Researcher gather information about the destination",
			"2. Then, ask the Accommodation Specialist to find suitable accommodations",
			"3. Have the Itinerary Planner create a detailed schedule",
			"4. Finally, ask the Budget Advisor to provide cost estimates and budgeting advice",
			"For specific questions, route to the most appropriate specialist:",
			"- Destination info, attractions, culture → Destination Researcher",
			"- Hotels, accommodations, where to stay → Accommodation Specialist",
			"- Itineraries, schedules, what to do → Itinerary Planner",
			"- Costs, budgets, money-saving tips → Budget Advisor",
			"Always coordinate the team to provide comprehensive, well-organized travel plans.",
			"Ensure all recommendations are current, practical, and tailored to the user's needs.",
		}
		o.SuccessCriteria = "A comprehensive and well-organized trip plan that addresses all aspects of travel planning."
		o.ExpectedOutput = "Detailed trip plans with destination insights, accommodation recommendations, day-by-day itineraries, and budget information."
		o.AdditionalContext = UserContext
		o.EnableAgenticContext = true
		o.ShowMembersResponses = true
		o.Markdown = true
	})
}
