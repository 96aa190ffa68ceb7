package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/flow"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

// TeamMode selects how the team leader works with its members.
type TeamMode string

// Team modes.
const (
	// TeamModeCoordinate lets the leader delegate tasks to members and
	// compose the final answer from their results.
	TeamModeCoordinate TeamMode = "coordinate"
	// TeamModeRoute lets the leader forward the request to the single best
	// member, whose answer is final.
	TeamModeRoute TeamMode = "route"
	// TeamModeCollaborate gives every member the task in parallel and has
	// the leader synthesise their answers.
	TeamModeCollaborate TeamMode = "collaborate"
)

// Team tool names and state keys.
const (
	TransferTaskToolName     = "transfer_task_to_member"
	ForwardTaskToolName      = "forward_task_to_member"
	SetSharedContextToolName = "set_shared_context"
	TeamContextKey           = "team_context"
)

// TeamOptions configures a Team.
type TeamOptions struct {
	Mode              TeamMode
	Description       string
	Instructions      []string
	Tools             []tool.Tool
	SuccessCriteria   string
	ExpectedOutput    string
	AdditionalContext string

	// EnableAgenticContext gives the leader the set_shared_context tool;
	// the stored context is shown to the leader and passed to members.
	EnableAgenticContext bool

	// ShowMembersResponses streams member events (on their branch) to the
	// caller. Otherwise members run on a private session copy.
	ShowMembersResponses bool

	AddDatetime     bool
	Markdown        bool
	HistoryRuns     int
	EnableStreaming bool
}

// Team is an agent whose model leads a set of member agents.
type Team struct {
	BaseAgent

	llm  model.Model
	opts TeamOptions
}

// NewTeam creates a team led by llm. Mode defaults to coordinate.
func NewTeam(name string, llm model.Model, members []core.Agent, optFns ...func(o *TeamOptions)) (*Team, error) {
	opts := TeamOptions{Mode: TeamModeCoordinate, HistoryRuns: -1}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch opts.Mode {
	case TeamModeCoordinate, TeamModeRoute, TeamModeCollaborate:
	default:
		return nil, fmt.Errorf("unknown team mode %q", opts.Mode)
	}

	if len(members) == 0 {
		return nil, errors.New("team needs at least one member")
	}

	t := &Team{BaseAgent: NewBaseAgent(name), llm: llm, opts: opts}
	t.bind(t)

	if opts.Description != "" {
		t.SetDescription(opts.Description)
	}

	if err := t.SetSubAgents(members...); err != nil {
		return nil, err
	}

	return t, nil
}

// Mode returns the team mode.
func (t *Team) Mode() TeamMode { return t.opts.Mode }

// Members returns the member agents.
func (t *Team) Members() []core.Agent { return t.SubAgents() }

// Model returns the leader model.
func (t *Team) Model() model.Model { return t.llm }

// HistoryRuns returns how many previous runs the leader sees.
func (t *Team) HistoryRuns() int { return t.opts.HistoryRuns }

// StreamingEnabled reports whether leader responses stream.
func (t *Team) StreamingEnabled() bool { return t.opts.EnableStreaming }

// OutputKey is unused by teams.
func (t *Team) OutputKey() string { return "" }

// TransferTargets is empty: teams delegate through their own tools.
func (t *Team) TransferTargets() []core.Agent { return nil }

// Tools returns the configured tools plus the mode specific ones.
func (t *Team) Tools() []tool.Tool {
	tools := make([]tool.Tool, 0, len(t.opts.Tools)+2)
	tools = append(tools, t.opts.Tools...)

	switch t.opts.Mode {
	case TeamModeCoordinate:
		tools = append(tools, t.transferTaskTool())
	case TeamModeRoute:
		tools = append(tools, t.forwardTaskTool())
	}

	if t.opts.EnableAgenticContext {
		tools = append(tools, setSharedContextTool())
	}

	return tools
}

// Prompt builds the leader's system prompt.
func (t *Team) Prompt(rc *core.RunContext) (flow.Prompt, error) {
	var lead []string

	switch t.opts.Mode {
	case TeamModeCoordinate:
		lead = []string{
			"You are the leader of a team of AI agents and can delegate tasks to the members listed in <team_members>.",
			"Use the " + TransferTaskToolName + " tool to give a member a clear, self-contained task, then combine the results into the final answer.",
			"Answer directly when no member is needed.",
		}
	case TeamModeRoute:
		lead = []string{
			"You are the router of a team of AI agents listed in <team_members>.",
			"Use the " + ForwardTaskToolName + " tool to forward the request to the single member best suited to answer it.",
			"Answer directly only when no member fits.",
		}
	case TeamModeCollaborate:
		lead = []string{
			"You are the leader of a team of AI agents that all worked on the user's request.",
			"Their answers are listed in <member_responses>. Synthesise them into one consolidated answer.",
		}
	}

	if t.opts.EnableAgenticContext {
		lead = append(lead, "Use the "+SetSharedContextToolName+" tool to record context the whole team should know.")
	}

	var extra strings.Builder

	extra.WriteString("<team_members>\n")

	for _, m := range t.Members() {
		fmt.Fprintf(&extra, "- %s: %s\n", m.Name(), memberRole(m))
	}

	extra.WriteString("</team_members>")

	if t.opts.EnableAgenticContext {
		if v, ok := rc.GetState(TeamContextKey); ok && fmt.Sprint(v) != "" {
			fmt.Fprintf(&extra, "\n\n<team_context>\n%v\n</team_context>", v)
		}
	}

	if answers, ok := rc.Context.Value(memberResponsesKey{team: t.Name()}).(string); ok {
		fmt.Fprintf(&extra, "\n\n<member_responses>\n%s\n</member_responses>", answers)
	}

	if t.opts.AdditionalContext != "" {
		extra.WriteString("\n\n" + t.opts.AdditionalContext)
	}

	return flow.Prompt{
		Description:       t.opts.Description,
		Instructions:      append(lead, t.opts.Instructions...),
		AdditionalContext: extra.String(),
		ExpectedOutput:    t.opts.ExpectedOutput,
		SuccessCriteria:   t.opts.SuccessCriteria,
		Markdown:          t.opts.Markdown,
		AddDatetime:       t.opts.AddDatetime,
	}, nil
}

// Run executes one team turn.
func (t *Team) Run(rc *core.RunContext) error {
	rc.LogDebug("team.run.start", "team", t.Name(), "mode", string(t.opts.Mode))

	if t.opts.Mode == TeamModeCollaborate {
		answers, err := t.collaborate(rc)
		if err != nil {
			return err
		}

		leader := rc.Clone()
		leader.Context = context.WithValue(rc.Context, memberResponsesKey{team: t.Name()}, answers)

		return flow.NewSingleAgentFlow(t).Execute(leader)
	}

	return flow.SelectFlow(t).Execute(rc)
}

type memberResponsesKey struct{ team string }

// collaborate runs every member on the user's request in parallel and
// returns their answers formatted for the leader.
func (t *Team) collaborate(rc *core.RunContext) (string, error) {
	members := t.Members()
	answers := make([]string, len(members))
	errs := make([]error, len(members))

	var wg sync.WaitGroup

	for i, m := range members {
		wg.Add(1)

		go func(i int, m core.Agent) {
			defer wg.Done()

			answers[i], errs[i] = t.runMember(rc, m, rc.UserContent, "")
		}(i, m)
	}

	wg.Wait()

	var b strings.Builder

	for i, m := range members {
		if errs[i] != nil {
			rc.LogWarn("team.member.error", "team", t.Name(), "member", m.Name(), "error", errs[i].Error())
			fmt.Fprintf(&b, "[%s]: failed: %v\n", m.Name(), errs[i])

			continue
		}

		fmt.Fprintf(&b, "[%s]: %s\n", m.Name(), answers[i])
	}

	if err := errors.Join(errs...); err != nil && rc.Err() != nil {
		return "", rc.Err()
	}

	return strings.TrimSpace(b.String()), nil
}

// runMember executes member on its own branch with task as input and
// returns its final answer.
func (t *Team) runMember(rc *core.RunContext, member core.Agent, task core.Content, expectedOutput string) (string, error) {
	if expectedOutput != "" {
		task = core.NewTextContent("user", task.Text()+"\n\n<expected_output>\n"+expectedOutput+"\n</expected_output>")
	}

	if t.opts.EnableAgenticContext {
		if v, ok := rc.GetState(TeamContextKey); ok && fmt.Sprint(v) != "" {
			task = core.NewTextContent("user", task.Text()+"\n\n<team_context>\n"+fmt.Sprint(v)+"\n</team_context>")
		}
	}

	child := rc.NewChildContext(nil, nil, buildBranchPath(rc.Branch, t.Name()+"."+member.Name()))
	child.Agent = core.AgentInfo{Name: member.Name(), Type: fmt.Sprintf("%T", member)}
	child.RunID = rc.RunID + "/" + member.Name()
	child.UserContent = task

	if !t.opts.ShowMembersResponses && child.Session != nil {
		child.Session = child.Session.Clone()
	}

	rc.LogInfo("team.member.start", "team", t.Name(), "member", member.Name())

	events, err := relay(rc, member, child, t.opts.ShowMembersResponses)
	if err != nil {
		return "", err
	}

	return lastAnswer(events), nil
}

func (t *Team) memberNames() []string {
	members := t.Members()

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name())
	}

	return names
}

func (t *Team) member(name string) core.Agent {
	for _, m := range t.Members() {
		if m.Name() == name {
			return m
		}
	}

	return nil
}

func (t *Team) transferTaskTool() tool.Tool {
	return tool.NewFunctionTool(
		TransferTaskToolName,
		"Delegate a task to a team member and receive the member's answer.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"member_id":        map[string]any{"type": "string", "enum": t.memberNames(), "description": "Name of the member"},
				"task_description": map[string]any{"type": "string", "description": "A clear, self-contained task for the member"},
				"expected_output":  map[string]any{"type": "string", "description": "What the member should return"},
			},
			"required": []string{"member_id", "task_description"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			name, _ := args["member_id"].(string)
			task, _ := args["task_description"].(string)
			expected, _ := args["expected_output"].(string)

			m := t.member(name)
			if m == nil {
				return nil, tool.NewToolError(TransferTaskToolName, fmt.Sprintf("unknown member %q", name), tool.CodeValidation)
			}

			answer, err := t.runMember(tc.InternalRunContext(), m, core.NewTextContent("user", task), expected)
			if err != nil {
				return nil, err
			}

			if answer == "" {
				return "The member returned no answer.", nil
			}

			return answer, nil
		},
	)
}

func (t *Team) forwardTaskTool() tool.Tool {
	return tool.NewFunctionTool(
		ForwardTaskToolName,
		"Forward the user's request to the member best suited to answer it. The member's answer is final.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"member_id":       map[string]any{"type": "string", "enum": t.memberNames(), "description": "Name of the member"},
				"expected_output": map[string]any{"type": "string", "description": "What the member should return"},
			},
			"required": []string{"member_id"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			name, _ := args["member_id"].(string)

			m := t.member(name)
			if m == nil {
				return nil, tool.NewToolError(ForwardTaskToolName, fmt.Sprintf("unknown member %q", name), tool.CodeValidation)
			}

			rc := tc.InternalRunContext()

			child := rc.NewChildContext(rc.Emit, rc.Resume, "")
			child.Agent = core.AgentInfo{Name: m.Name(), Type: fmt.Sprintf("%T", m)}
			child.RunID = rc.RunID + "/" + m.Name()

			if expected, _ := args["expected_output"].(string); expected != "" {
				child.UserContent = core.NewTextContent("user", rc.UserContent.Text()+"\n\n<expected_output>\n"+expected+"\n</expected_output>")
			}

			rc.LogInfo("team.route", "team", t.Name(), "member", m.Name())

			if err := m.Run(child); err != nil {
				return nil, err
			}

			tc.SkipSummarization()

			return map[string]any{"forwarded_to": m.Name()}, nil
		},
	)
}

func setSharedContextTool() tool.Tool {
	type input struct {
		Context string `json:"context" description:"Context to share with the whole team"`
	}

	return tool.NewTypedTool(SetSharedContextToolName, "Set the team context shared with every member.",
		func(tc *core.ToolContext, in input) (any, error) {
			tc.SetState(TeamContextKey, in.Context)
			return "Team context updated.", nil
		})
}

func memberRole(a core.Agent) string {
	if r, ok := a.(interface{ Role() string }); ok && r.Role() != "" {
		return r.Role()
	}

	return a.Description()
}
