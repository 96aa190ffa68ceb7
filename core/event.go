package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventActions encodes side effects or orchestration signals attached to an Event.
// Pointer fields distinguish absence from zero values.
type EventActions struct {
	SkipSummarization *bool          `json:"skip_summarization,omitempty"`
	StateDelta        map[string]any `json:"state_delta,omitempty"`
	TransferToAgent   *string        `json:"transfer_to_agent,omitempty"`
	Escalate          *bool          `json:"escalate,omitempty"`
}

// Event is the unit of communication between agents, the runner and
// clients. Treat it as immutable once emitted.
//
// Content may be nil for control or error-only events.
type Event struct {
	ID             string            `json:"id"`
	InvocationID   string            `json:"invocation_id"`
	Author         string            `json:"author"`
	Actions        EventActions      `json:"actions"`
	Branch         *string           `json:"branch,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	Content        *Content          `json:"content,omitempty"`
	Partial        *bool             `json:"partial,omitempty"`
	TurnComplete   *bool             `json:"turn_complete,omitempty"`
	ErrorCode      *string           `json:"error_code,omitempty"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	CustomMetadata map[string]string `json:"custom_metadata,omitempty"`
}

// NewEvent creates a bare event authored by author bound to an invocation.
func NewEvent(invocationID, author string) Event {
	return Event{
		ID:           NewID(),
		InvocationID: invocationID,
		Author:       author,
		Timestamp:    time.Now().UTC(),
	}
}

// NewMessageEvent creates an assistant message event with a single text part.
func NewMessageEvent(author, message string) Event {
	e := NewEvent("", author)
	e.Content = &Content{Role: "assistant", Parts: []Part{TextPart{Text: message}}}

	return e
}

// NewUserMessageEvent creates a user-authored text message event.
func NewUserMessageEvent(invocationID, message string) Event {
	e := NewEvent(invocationID, "user")
	e.Content = &Content{Role: "user", Parts: []Part{TextPart{Text: message}}}

	return e
}

// NewUserContentEvent creates a user-authored event with arbitrary Content.
func NewUserContentEvent(invocationID string, content *Content) Event {
	e := NewEvent(invocationID, "user")
	e.Content = content

	return e
}

// NewFunctionCallEvent represents an agent requesting execution of one or more tools.
func NewFunctionCallEvent(author string, calls ...FunctionCall) Event {
	e := NewEvent("", author)

	parts := make([]Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, FunctionCallPart{FunctionCall: c})
	}

	e.Content = &Content{Role: "assistant", Parts: parts}

	return e
}

// NewFunctionResponseEvent records the result (or error) of a tool invocation.
// If err is non-nil its message is copied into the response Error field.
func NewFunctionResponseEvent(author, id, functionName string, result any, err error) Event {
	e := NewEvent("", author)

	fr := FunctionResponse{ID: id, Name: functionName, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}

	e.Content = &Content{Role: "tool", Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}

	return e
}

// NewErrorEvent creates an event carrying an error code and message.
func NewErrorEvent(author, code, message string) Event {
	e := NewEvent("", author)
	e.ErrorCode = &code
	e.ErrorMessage = &message

	return e
}

// NewID generates a new unique identifier.
func NewID() string { return uuid.NewString() }

// IsPartial reports whether this event is a streaming fragment.
func (e Event) IsPartial() bool { return e.Partial != nil && *e.Partial }

// IsError reports whether the event carries an error message.
func (e Event) IsError() bool { return e.ErrorMessage != nil }

// BranchName returns the branch label or "" for root events.
func (e Event) BranchName() string {
	if e.Branch == nil {
		return ""
	}

	return *e.Branch
}

// Text concatenates all text parts of the event content.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}

	return e.Content.Text()
}

// GetFunctionCalls returns the FunctionCall parts in their original order.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}

	var calls []FunctionCall

	for _, p := range e.Content.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}

	return calls
}

// GetFunctionResponses returns the FunctionResponse parts in their original order.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}

	var responses []FunctionResponse

	for _, p := range e.Content.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}

	return responses
}

// IsFinalResponse reports whether the event completes an assistant turn:
// no pending tool calls or responses and not a partial fragment.
func (e Event) IsFinalResponse() bool {
	if e.Actions.SkipSummarization != nil && *e.Actions.SkipSummarization {
		return true
	}

	return len(e.GetFunctionCalls()) == 0 &&
		len(e.GetFunctionResponses()) == 0 &&
		!e.IsPartial()
}

// FinalText returns the text of the last final, non-error event authored by
// author (any author when empty) on the root branch.
func FinalText(events []Event, author string) string {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.IsError() || !ev.IsFinalResponse() || ev.BranchName() != "" {
			continue
		}

		if ev.Content == nil || ev.Content.Role != "assistant" {
			continue
		}

		if author != "" && ev.Author != author {
			continue
		}

		if txt := strings.TrimSpace(ev.Text()); txt != "" {
			return ev.Text()
		}
	}

	return ""
}
