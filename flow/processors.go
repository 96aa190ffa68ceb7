package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/util"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

// InstructionsProcessor renders the agent Prompt into the system
// instructions. Session state fills {key} and {{.key}} placeholders;
// user_id and session_id are available unless shadowed by state.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(rc *core.RunContext, req *Request, agent FlowAgent) error {
	prompt, err := agent.Prompt(rc)
	if err != nil {
		return fmt.Errorf("failed to resolve instructions: %w", err)
	}

	data := rc.State()
	if _, ok := data["user_id"]; !ok && rc.UserID != "" {
		data["user_id"] = rc.UserID
	}

	if _, ok := data["session_id"]; !ok {
		data["session_id"] = rc.SessionID
	}

	rendered, err := util.RenderTemplate(BuildSystemPrompt(prompt), data)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	if req.Instructions != "" {
		rendered = req.Instructions + "\n\n" + rendered
	}

	req.Instructions = strings.TrimSpace(rendered)

	rc.LogDebug("flow.instructions.resolved", "agent", agent.Name(), "length", len(req.Instructions))

	return nil
}

// BuildSystemPrompt lays out the prompt sections in a fixed order.
func BuildSystemPrompt(p Prompt) string {
	var b strings.Builder

	section := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}

		b.WriteString(s)
	}

	tagged := func(tag, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}

		section(fmt.Sprintf("<%s>\n%s\n</%s>", tag, strings.TrimSpace(body), tag))
	}

	section(p.Description)
	tagged("your_role", p.Role)

	switch len(p.Instructions) {
	case 0:
	case 1:
		tagged("instructions", p.Instructions[0])
	default:
		lines := make([]string, 0, len(p.Instructions))
		for _, inst := range p.Instructions {
			lines = append(lines, "- "+inst)
		}

		tagged("instructions", strings.Join(lines, "\n"))
	}

	var extra []string

	if p.Markdown {
		extra = append(extra, "- Use markdown to format your answers.")
	}

	if p.AddDatetime {
		now := time.Now
		if p.Now != nil {
			now = p.Now
		}

		extra = append(extra, "- The current time is "+now().Format("2006-01-02 15:04:05")+".")
	}

	tagged("additional_information", strings.Join(extra, "\n"))
	tagged("expected_output", p.ExpectedOutput)

	if p.SuccessCriteria != "" {
		tagged("success_criteria", "The task is considered successful if: "+p.SuccessCriteria)
	}

	section(p.AdditionalContext)

	return b.String()
}

// ContentsProcessor replays the conversation visible from the agent's
// branch. Contributions of other agents become user-role context notes
// (transfer bookkeeping omitted) and
// unmatched function calls or responses are dropped, so the request is
// always well formed for providers.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest fills req.Contents.
func (p *ContentsProcessor) ProcessRequest(rc *core.RunContext, req *Request, agent FlowAgent) error {
	events := LimitRuns(rc.History(), rc.RunID, agent.HistoryRuns())

	contents := make([]core.Content, 0, len(events)+1)
	seenUser := false

	for _, ev := range events {
		if ev.Content == nil || len(ev.Content.Parts) == 0 {
			continue
		}

		if ev.Author == "user" && ev.InvocationID == rc.RunID {
			seenUser = true
		}

		if ev.Author == "user" || ev.Author == agent.Name() {
			contents = append(contents, *ev.Content)
			continue
		}

		if note, ok := contextNote(ev); ok {
			contents = append(contents, note)
		}
	}

	if !seenUser && len(rc.UserContent.Parts) > 0 {
		user := rc.UserContent
		if user.Role == "" {
			user.Role = "user"
		}

		contents = append(contents, user)
	}

	req.Contents = SanitizeFunctionCalls(contents)

	return nil
}

// LimitRuns keeps the events of the current run plus the last n previous
// runs. A negative n keeps everything.
func LimitRuns(events []core.Event, currentRunID string, n int) []core.Event {
	if n < 0 {
		return events
	}

	var previous []string

	seen := map[string]bool{currentRunID: true}

	for i := len(events) - 1; i >= 0; i-- {
		id := events[i].InvocationID
		if seen[id] {
			continue
		}

		seen[id] = true
		previous = append(previous, id)
	}

	keep := map[string]bool{currentRunID: true}
	for i := 0; i < n && i < len(previous); i++ {
		keep[previous[i]] = true
	}

	out := make([]core.Event, 0, len(events))

	for _, ev := range events {
		if keep[ev.InvocationID] {
			out = append(out, ev)
		}
	}

	return out
}

func contextNote(ev core.Event) (core.Content, bool) {
	var lines []string

	for _, part := range ev.Content.Parts {
		switch pt := part.(type) {
		case core.TextPart:
			if strings.TrimSpace(pt.Text) != "" {
				lines = append(lines, fmt.Sprintf("[%s] said: %s", ev.Author, pt.Text))
			}
		case core.FunctionCallPart:
			if pt.FunctionCall.Name == tool.TransferToAgentName {
				continue
			}

			lines = append(lines, fmt.Sprintf("[%s] called tool `%s` with parameters: %s", ev.Author, pt.FunctionCall.Name, pt.FunctionCall.Arguments))
		case core.FunctionResponsePart:
			if pt.FunctionResponse.Name == tool.TransferToAgentName {
				continue
			}

			lines = append(lines, fmt.Sprintf("[%s] `%s` tool returned result: %s", ev.Author, pt.FunctionResponse.Name, model.FunctionResponseText(pt.FunctionResponse)))
		}
	}

	if len(lines) == 0 {
		return core.Content{}, false
	}

	return core.NewTextContent("user", "For context:\n"+strings.Join(lines, "\n")), true
}

// SanitizeFunctionCalls removes function calls without a response and
// responses without a preceding call, dropping contents left empty.
func SanitizeFunctionCalls(contents []core.Content) []core.Content {
	calls := map[string]bool{}
	responses := map[string]bool{}

	for _, c := range contents {
		for _, part := range c.Parts {
			switch pt := part.(type) {
			case core.FunctionCallPart:
				calls[pt.FunctionCall.ID] = true
			case core.FunctionResponsePart:
				responses[pt.FunctionResponse.ID] = true
			}
		}
	}

	out := make([]core.Content, 0, len(contents))

	for _, c := range contents {
		parts := make([]core.Part, 0, len(c.Parts))

		for _, part := range c.Parts {
			switch pt := part.(type) {
			case core.FunctionCallPart:
				if !responses[pt.FunctionCall.ID] {
					continue
				}
			case core.FunctionResponsePart:
				if !calls[pt.FunctionResponse.ID] {
					continue
				}
			}

			parts = append(parts, part)
		}

		if len(parts) == 0 {
			continue
		}

		c.Parts = parts
		out = append(out, c)
	}

	return out
}

// ToolsProcessor exposes the agent's tools to the model.
type ToolsProcessor struct{}

// NewToolsProcessor creates a new tools processor.
func NewToolsProcessor() *ToolsProcessor { return &ToolsProcessor{} }

// Name returns the processor's identifier.
func (p *ToolsProcessor) Name() string { return "tools" }

// ProcessRequest registers every agent tool on the request.
func (p *ToolsProcessor) ProcessRequest(_ *core.RunContext, req *Request, agent FlowAgent) error {
	for _, t := range agent.Tools() {
		req.AddTool(t)
	}

	return nil
}
