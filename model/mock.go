package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yuribarsotti/agentlab/core"
)

// MockModel is a scripted in-memory Model for tests and offline examples.
//
// Enqueued responses are served first, in order. Afterwards the model
// answers with the canned response registered for the last user text, or
// echoes it.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	queue     []Response
	requests  []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: map[string]string{},
	}
}

// AddResponse registers a canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[prompt] = response
}

// Enqueue appends scripted responses served before any canned response.
func (m *MockModel) Enqueue(resps ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = append(m.queue, resps...)
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// TextResponse builds a final assistant text response.
func TextResponse(text string) Response {
	return Response{Content: core.NewTextContent("assistant", text), FinishReason: "stop"}
}

// ToolCallResponse builds a final response requesting the given calls.
func ToolCallResponse(calls ...core.FunctionCall) Response {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}

	return Response{Content: core.Content{Role: "assistant", Parts: parts}, FinishReason: "tool_calls"}
}

func (m *MockModel) next(req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]

		return resp, nil
	}

	input := lastUserText(req.Contents)
	if input == "" {
		return Response{}, fmt.Errorf("no contents provided")
	}

	if full, ok := m.responses[input]; ok {
		return TextResponse(full), nil
	}

	return TextResponse("Mock response to: " + input), nil
}

func lastUserText(contents []core.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == "user" {
			return contents[i].Text()
		}
	}

	return ""
}

// Generate implements Model. Streaming requests receive one partial chunk
// per word of text before the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream {
			for _, word := range strings.SplitAfter(resp.Content.Text(), " ") {
				if word == "" {
					continue
				}

				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewTextContent("assistant", word)}:
				}
			}
		}

		respCh <- resp
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
