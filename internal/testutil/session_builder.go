package testutil

import (
	"github.com/yuribarsotti/agentlab/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
//
//	sess := NewSessionBuilder("sess-1").State("k", "v").Events(ev1, ev2).Build()
type SessionBuilder struct {
	id     string
	userID string
	state  map[string]any
	events []core.Event
}

// NewSessionBuilder creates a new builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, state: map[string]any{}}
}

// User sets the session owner.
func (b *SessionBuilder) User(id string) *SessionBuilder {
	b.userID = id
	return b
}

// State sets a key/value pair on the resulting session.
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Events appends events to the session history.
func (b *SessionBuilder) Events(evs ...core.Event) *SessionBuilder {
	b.events = append(b.events, evs...)
	return b
}

// UserText appends a user message.
func (b *SessionBuilder) UserText(text string) *SessionBuilder {
	return b.Events(core.NewUserMessageEvent("", text))
}

// AssistantText appends an assistant message authored by author.
func (b *SessionBuilder) AssistantText(author, text string) *SessionBuilder {
	return b.Events(core.NewMessageEvent(author, text))
}

// Build returns a *core.Session with pre-populated state and events.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)
	s.UserID = b.userID

	for k, v := range b.state {
		s.State[k] = v
	}

	s.Events = append(s.Events, b.events...)

	return s
}
