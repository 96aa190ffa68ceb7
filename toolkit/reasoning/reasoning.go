// Package reasoning provides think and analyze scratchpad tools. Every step
// is appended to the session state under StepsKey, so later turns (and
// other agents of a team) see the reasoning so far.
package reasoning

import (
	"fmt"
	"strings"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// Tool names and the state key holding recorded steps.
const (
	ThinkTool   = "think"
	AnalyzeTool = "analyze"
	StepsKey    = "reasoning_steps"
)

// Instructions explains the tools to a model; add it to an agent's
// instructions when enabling the toolkit.
const Instructions = `You have access to the think and analyze tools to work through problems step by step.
1. Think before acting: use the think tool to plan, break the problem down and decide which tools to call.
2. Analyze results: after tool calls, use the analyze tool to evaluate the results and decide the next step.
3. Set next_action to "continue" to keep working, "validate" to double check, or "final_answer" when ready to answer.
4. Keep each thought short and concrete.`

// Step is one recorded reasoning step.
type Step struct {
	Title      string  `json:"title"`
	Reasoning  string  `json:"reasoning"`
	Action     string  `json:"action,omitempty"`
	Result     string  `json:"result,omitempty"`
	NextAction string  `json:"next_action,omitempty"`
	Confidence float64 `json:"confidence"`
}

type thinkArgs struct {
	Title      string  `json:"title" description:"A concise title for this step"`
	Thought    string  `json:"thought" description:"Your detailed thought for this step"`
	Action     string  `json:"action,omitempty" description:"What you will do based on this thought"`
	Confidence float64 `json:"confidence,omitempty" description:"How confident you are about this thought (0.0 to 1.0)"`
}

type analyzeArgs struct {
	Title      string  `json:"title" description:"A concise title for this analysis step"`
	Result     string  `json:"result" description:"The outcome of the previous action"`
	Analysis   string  `json:"analysis" description:"Your analysis of the results"`
	NextAction string  `json:"next_action,omitempty" enum:"continue,validate,final_answer" description:"What to do next"`
	Confidence float64 `json:"confidence,omitempty" description:"How confident you are in this analysis (0.0 to 1.0)"`
}

// NewTools returns the think and analyze tools.
func NewTools() []tool.Tool {
	think := tool.NewTypedTool(ThinkTool,
		"Use this tool as a scratchpad to reason about the question and work through it step by step.",
		func(tc *core.ToolContext, in thinkArgs) (any, error) {
			return record(tc, Step{
				Title:      in.Title,
				Reasoning:  in.Thought,
				Action:     in.Action,
				Confidence: confidence(in.Confidence),
			}), nil
		})

	analyze := tool.NewTypedTool(AnalyzeTool,
		"Use this tool to analyze results from a reasoning step and determine next actions.",
		func(tc *core.ToolContext, in analyzeArgs) (any, error) {
			next := in.NextAction
			if next == "" {
				next = "continue"
			}

			return record(tc, Step{
				Title:      in.Title,
				Reasoning:  in.Analysis,
				Result:     in.Result,
				NextAction: next,
				Confidence: confidence(in.Confidence),
			}), nil
		})

	return []tool.Tool{think, analyze}
}

// Steps returns the steps recorded in state.
func Steps(state map[string]any) []Step {
	raw, _ := state[StepsKey].([]any)

	steps := make([]Step, 0, len(raw))

	for _, r := range raw {
		switch v := r.(type) {
		case Step:
			steps = append(steps, v)
		case map[string]any:
			steps = append(steps, Step{
				Title:      str(v["title"]),
				Reasoning:  str(v["reasoning"]),
				Action:     str(v["action"]),
				Result:     str(v["result"]),
				NextAction: str(v["next_action"]),
				Confidence: num(v["confidence"]),
			})
		}
	}

	return steps
}

func record(tc *core.ToolContext, step Step) string {
	steps := Steps(tc.State())
	steps = append(steps, step)

	stored := make([]any, len(steps))
	for i, s := range steps {
		stored[i] = s
	}

	tc.SetState(StepsKey, stored)

	return Format(steps)
}

// Format renders steps the way they are returned to the model.
func Format(steps []Step) string {
	var b strings.Builder

	for i, s := range steps {
		fmt.Fprintf(&b, "Step %d:\nTitle: %s\nReasoning: %s\n", i+1, s.Title, s.Reasoning)

		if s.Action != "" {
			fmt.Fprintf(&b, "Action: %s\n", s.Action)
		}

		if s.Result != "" {
			fmt.Fprintf(&b, "Result: %s\n", s.Result)
		}

		if s.NextAction != "" {
			fmt.Fprintf(&b, "Next Action: %s\n", s.NextAction)
		}

		fmt.Fprintf(&b, "Confidence: %.2f\n\n", s.Confidence)
	}

	return strings.TrimSpace(b.String())
}

func confidence(c float64) float64 {
	if c <= 0 || c > 1 {
		return 0.8
	}

	return c
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}
