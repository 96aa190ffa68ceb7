package graph

import (
	"context"
	"strings"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
)

// MessagesState is the conventional chat state: an ordered message list.
type MessagesState struct {
	Messages []core.Content
}

// Last returns the most recent message, if any.
func (s MessagesState) Last() (core.Content, bool) {
	if len(s.Messages) == 0 {
		return core.Content{}, false
	}

	return s.Messages[len(s.Messages)-1], true
}

// AddMessages is the append reducer for MessagesState. It never mutates
// the input's backing array.
func AddMessages(s MessagesState, msgs ...core.Content) MessagesState {
	out := make([]core.Content, 0, len(s.Messages)+len(msgs))
	out = append(out, s.Messages...)
	out = append(out, msgs...)

	return MessagesState{Messages: out}
}

// ChatbotNode answers the conversation with llm and appends the reply.
// Instructions, if any, become the system prompt.
func ChatbotNode(llm model.Model, instructions ...string) NodeFunc[MessagesState] {
	system := strings.Join(instructions, "\n")

	return func(ctx context.Context, s MessagesState) (MessagesState, error) {
		resp, err := model.Collect(ctx, llm, model.Request{Instructions: system, Contents: s.Messages})
		if err != nil {
			return s, err
		}

		return AddMessages(s, resp.Content), nil
	}
}
